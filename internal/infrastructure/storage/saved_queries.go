package storage

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// SaveQuery stores q and returns its new id.
func (s *Store) SaveQuery(ctx context.Context, q model.SavedQuery) (int64, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (name, sql, connection_id, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		q.Name, q.SQL, q.ConnectionID, q.Description, now, now,
	)
	if err != nil {
		return 0, storageErr("failed to save query", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("failed to save query", err)
	}
	return id, nil
}

func (s *Store) SavedQueries(ctx context.Context) ([]model.SavedQuery, error) {
	out := make([]model.SavedQuery, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name, sql, connection_id, description, created_at, updated_at
		FROM saved_queries
		ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("failed to list saved queries", err)
	}
	return out, nil
}

func (s *Store) DeleteSavedQuery(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id); err != nil {
		return storageErr("failed to delete saved query", err)
	}
	return nil
}
