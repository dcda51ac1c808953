package credentials

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	s := NewMemory()

	pw, err := s.Password("local")
	require.NoError(t, err)
	assert.Equal(t, "", pw)

	require.NoError(t, s.SetPassword("local", "hunter2"))
	pw, err = s.Password("local")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	require.NoError(t, s.SetPassword("local", ""))
	pw, err = s.Password("local")
	require.NoError(t, err)
	assert.Equal(t, "", pw)

	assert.NoError(t, s.DeletePassword("never-stored"))
}

func TestAPIKeysAreNamespacedByProvider(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.SetAPIKey("Anthropic", "sk-ant"))
	require.NoError(t, s.SetAPIKey("openai", "sk-oai"))

	key, err := s.APIKey("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", key)

	key, err = s.APIKey("google")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestSecretReadsRawKeys(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: "prod-db", Data: []byte("s3cret")}})
	s := New(ring)

	v, err := s.Secret("prod-db")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
}

func TestFileBackend(t *testing.T) {
	s, err := Open(Options{Backend: BackendFile, FileDir: t.TempDir(), FilePassword: "unlock"})
	require.NoError(t, err)

	require.NoError(t, s.SetPassword("staging", "pw"))
	pw, err := s.Password("staging")
	require.NoError(t, err)
	assert.Equal(t, "pw", pw)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendAuto, b)

	b, err = ParseBackend("Memory")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, b)

	_, err = ParseBackend("vault")
	assert.Error(t, err)
}
