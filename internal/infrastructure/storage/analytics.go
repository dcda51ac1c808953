package storage

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// RecordTableAccess bumps the browse counter of schema.table.
func (s *Store) RecordTableAccess(ctx context.Context, connectionID, schema, table string) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_analytics (connection_id, table_schema, table_name, access_count, last_accessed)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(connection_id, table_schema, table_name) DO UPDATE SET
			access_count = access_count + 1,
			last_accessed = excluded.last_accessed`,
		connectionID, schema, table, now,
	)
	if err != nil {
		return storageErr("failed to record table access", err)
	}
	return nil
}

// TopTables returns the most browsed tables of a connection.
func (s *Store) TopTables(ctx context.Context, connectionID string, limit int) ([]model.TableUsage, error) {
	out := make([]model.TableUsage, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT connection_id, table_schema, table_name, access_count, last_accessed
		FROM usage_analytics
		WHERE connection_id = ?
		ORDER BY access_count DESC, last_accessed DESC
		LIMIT ?`, connectionID, limit)
	if err != nil {
		return nil, storageErr("failed to load table usage", err)
	}
	return out, nil
}
