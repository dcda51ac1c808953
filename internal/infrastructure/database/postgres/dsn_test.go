package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/redact"
)

func TestConnConfigFromDescriptor(t *testing.T) {
	desc := model.ConnectionDescriptor{
		ID:       "local",
		Host:     "db.internal",
		Port:     6543,
		Database: "app",
		User:     "alice",
		Password: "p@ss:word/1",
		SSLMode:  model.SSLModeDisable,
	}

	cfg, err := ConnConfig(desc)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.EqualValues(t, 6543, cfg.Port)
	assert.Equal(t, "app", cfg.Database)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, "p@ss:word/1", cfg.Password)
	assert.Nil(t, cfg.TLSConfig)
	assert.Equal(t, applicationName, cfg.RuntimeParams["application_name"])
}

func TestConnConfigDefaultsPortAndSSL(t *testing.T) {
	cfg, err := ConnConfig(model.ConnectionDescriptor{ID: "x", Host: "localhost", Database: "postgres", User: "postgres"})
	require.NoError(t, err)
	assert.EqualValues(t, model.DefaultPort, cfg.Port)
	assert.NotNil(t, cfg.TLSConfig)
	assert.NotEmpty(t, cfg.Fallbacks)
}

func TestConnectionURLMasks(t *testing.T) {
	u := connectionURL(model.ConnectionDescriptor{Host: "h", Port: 1, Database: "d", User: "u", Password: "secret"})
	assert.Contains(t, u, "secret")
	assert.NotContains(t, redact.Mask(u), "secret")
}
