package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// SaveAIConfig replaces the single provider selection row.
func (s *Store) SaveAIConfig(ctx context.Context, cfg model.AIConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_config (id, provider, model) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET provider = excluded.provider, model = excluded.model`,
		cfg.Provider, cfg.Model,
	)
	if err != nil {
		return storageErr("failed to save AI configuration", err)
	}
	return nil
}

// GetAIConfig returns nil when nothing was configured yet.
func (s *Store) GetAIConfig(ctx context.Context) (*model.AIConfig, error) {
	var cfg model.AIConfig
	err := s.db.GetContext(ctx, &cfg, `SELECT provider, model FROM ai_config WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("failed to load AI configuration", err)
	}
	return &cfg, nil
}

// SaveAIPrompt remembers a natural-language prompt and the SQL it produced.
// Repeating a prompt bumps its use count and keeps the latest SQL.
func (s *Store) SaveAIPrompt(ctx context.Context, prompt, generatedSQL string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_prompts (prompt, generated_sql, use_count, last_used) VALUES (?, ?, 1, ?)
		ON CONFLICT(prompt) DO UPDATE SET
			use_count = use_count + 1,
			last_used = excluded.last_used,
			generated_sql = excluded.generated_sql`,
		prompt, generatedSQL, s.now(),
	)
	if err != nil {
		return storageErr("failed to save AI prompt", err)
	}
	return nil
}

// SearchAIPrompts returns remembered prompts containing query, most used first.
func (s *Store) SearchAIPrompts(ctx context.Context, query string, limit int) ([]model.AIPromptSuggestion, error) {
	out := make([]model.AIPromptSuggestion, 0)
	err := s.db.SelectContext(ctx, &out, `
		SELECT prompt, generated_sql
		FROM ai_prompts
		WHERE prompt LIKE ?
		ORDER BY use_count DESC, last_used DESC
		LIMIT ?`, "%"+query+"%", limit)
	if err != nil {
		return nil, storageErr("failed to search AI prompts", err)
	}
	return out, nil
}
