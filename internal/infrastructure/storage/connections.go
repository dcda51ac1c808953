package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

const connectionColumns = `id, name, host, port, database, user, ssl_mode, color, created_at`

// SaveConnection inserts rec or replaces the stored record with the same id,
// keeping its original creation time.
func (s *Store) SaveConnection(ctx context.Context, rec model.ConnectionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connections (id, name, host, port, database, user, ssl_mode, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			host = excluded.host,
			port = excluded.port,
			database = excluded.database,
			user = excluded.user,
			ssl_mode = excluded.ssl_mode,
			color = excluded.color`,
		rec.ID, rec.Name, rec.Host, rec.Port, rec.Database, rec.User, string(rec.SSLMode), rec.Color, s.now(),
	)
	if err != nil {
		return storageErr("failed to save connection", err)
	}
	return nil
}

// ListConnections returns every stored connection ordered by name.
func (s *Store) ListConnections(ctx context.Context) ([]model.ConnectionRecord, error) {
	out := make([]model.ConnectionRecord, 0)
	if err := s.db.SelectContext(ctx, &out, `SELECT `+connectionColumns+` FROM connections ORDER BY name`); err != nil {
		return nil, storageErr("failed to list connections", err)
	}
	return out, nil
}

func (s *Store) GetConnection(ctx context.Context, id string) (*model.ConnectionRecord, error) {
	var rec model.ConnectionRecord
	err := s.db.GetContext(ctx, &rec, `SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "Connection '%s' not found", id)
	}
	if err != nil {
		return nil, storageErr("failed to load connection", err)
	}
	return &rec, nil
}

// DeleteConnection removes the record. Deleting an unknown id is not an error.
func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id); err != nil {
		return storageErr("failed to delete connection", err)
	}
	return nil
}
