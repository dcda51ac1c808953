package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

func newConnectionService(t *testing.T) (*ConnectionService, *fakeOpener) {
	t.Helper()
	st := newStore(t)
	secrets := newSecrets()
	opener := &fakeOpener{}
	registry := NewConnectionRegistry(opener.open, st, secrets, nil)
	return NewConnectionService(st, secrets, registry), opener
}

func TestSaveKeepsPasswordOutOfRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newConnectionService(t)

	color := "#ff0000"
	rec, err := svc.Save(ctx, model.ConnectionDescriptor{
		Name:     "Local",
		Host:     "localhost",
		Database: "appdb",
		User:     "postgres",
		Password: "hunter2",
		Color:    &color,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	assert.Equal(t, model.DefaultPort, rec.Port)
	assert.Equal(t, model.SSLModePrefer, rec.SSLMode)
	require.NotNil(t, rec.Color)
	assert.Equal(t, color, *rec.Color)

	pw, err := svc.secrets.Password(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	// saving again without a password keeps the stored one
	desc := rec.Descriptor("")
	desc.Name = "Renamed"
	_, err = svc.Save(ctx, desc)
	require.NoError(t, err)
	pw, err = svc.secrets.Password(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)
}

func TestSaveRejectsInvalidDescriptor(t *testing.T) {
	svc, _ := newConnectionService(t)
	_, err := svc.Save(context.Background(), model.ConnectionDescriptor{Name: "x", Host: "localhost"})
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
}

func TestDeleteDisconnectsAndForgets(t *testing.T) {
	ctx := context.Background()
	svc, opener := newConnectionService(t)

	desc := testDescriptor("c1")
	_, err := svc.Save(ctx, desc)
	require.NoError(t, err)
	require.NoError(t, svc.registry.Connect(ctx, desc))

	require.NoError(t, svc.Delete(ctx, "c1"))
	assert.True(t, opener.last().isClosed())
	assert.Empty(t, svc.registry.ConnectedIDs())

	_, err = svc.Get(ctx, "c1")
	assert.True(t, apperr.Is(err, apperr.NotFound))
	pw, err := svc.secrets.Password("c1")
	require.NoError(t, err)
	assert.Empty(t, pw)
}

func TestImportResolvesPasswords(t *testing.T) {
	ctx := context.Background()
	svc, _ := newConnectionService(t)
	svc.passwords.lookup = func(name string) (string, bool) {
		if name == "STAGING_PASSWORD" {
			return "from-env", true
		}
		return "", false
	}

	path := filepath.Join(t.TempDir(), "connections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`connections:
  - id: local
    name: Local
    host: localhost
    database: app
    user: postgres
    password:
      type: plain_text
      key: postgres
  - name: Staging Replica
    host: staging.internal
    database: app
    user: readonly
    password:
      type: env
      key: STAGING_PASSWORD
`), 0o600))

	recs, err := svc.Import(ctx, path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "local", recs[0].ID)

	pw, err := svc.secrets.Password("local")
	require.NoError(t, err)
	assert.Equal(t, "postgres", pw)
	pw, err = svc.secrets.Password(recs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
}

func TestImportStopsOnUnresolvedPassword(t *testing.T) {
	svc, _ := newConnectionService(t)
	svc.passwords.lookup = func(string) (string, bool) { return "", false }

	path := filepath.Join(t.TempDir(), "connections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`connections:
  - id: prod
    name: Prod
    host: db
    database: app
    user: app
    password:
      type: env
      key: MISSING_PASSWORD
`), 0o600))

	recs, err := svc.Import(context.Background(), path)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
	assert.Empty(t, recs)
}
