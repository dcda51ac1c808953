package storage

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

const historyColumns = `id, connection_id, sql, execution_time_ms, row_count, success, error_message, created_at`

// AddHistory records one execution attempt.
func (s *Store) AddHistory(ctx context.Context, entry model.HistoryEntry) (int64, error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (connection_id, sql, execution_time_ms, row_count, success, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ConnectionID, entry.SQL, entry.ExecutionTimeMs, entry.RowCount, entry.Success, entry.ErrorMessage, createdAt,
	)
	if err != nil {
		return 0, storageErr("failed to record history", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("failed to record history", err)
	}
	return id, nil
}

// History returns the newest entries of one connection.
func (s *Store) History(ctx context.Context, connectionID string, limit int) ([]model.HistoryEntry, error) {
	out := make([]model.HistoryEntry, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+historyColumns+`
		FROM query_history
		WHERE connection_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, connectionID, limit)
	if err != nil {
		return nil, storageErr("failed to load history", err)
	}
	return out, nil
}

// AllHistory returns the newest entries across all connections.
func (s *Store) AllHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	out := make([]model.HistoryEntry, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+historyColumns+`
		FROM query_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("failed to load history", err)
	}
	return out, nil
}

func (s *Store) DeleteHistory(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM query_history WHERE id = ?`, id); err != nil {
		return storageErr("failed to delete history entry", err)
	}
	return nil
}

// DeleteHistoryBySQL removes every entry with exactly this text and reports
// how many went.
func (s *Store) DeleteHistoryBySQL(ctx context.Context, sqlText string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_history WHERE sql = ?`, sqlText)
	if err != nil {
		return 0, storageErr("failed to delete history entries", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("failed to delete history entries", err)
	}
	return n, nil
}

// SearchTableHistory returns successful statements of a connection whose
// text mentions table.
func (s *Store) SearchTableHistory(ctx context.Context, connectionID, table string, limit int) ([]model.HistoryEntry, error) {
	out := make([]model.HistoryEntry, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+historyColumns+`
		FROM query_history
		WHERE connection_id = ? AND sql LIKE ? AND success = 1
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, connectionID, "%"+table+"%", limit)
	if err != nil {
		return nil, storageErr("failed to search history", err)
	}
	return out, nil
}
