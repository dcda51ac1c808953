package service

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// ConnectionStore persists connection records. It never sees passwords.
type ConnectionStore interface {
	SaveConnection(ctx context.Context, rec model.ConnectionRecord) error
	ListConnections(ctx context.Context) ([]model.ConnectionRecord, error)
	GetConnection(ctx context.Context, id string) (*model.ConnectionRecord, error)
	DeleteConnection(ctx context.Context, id string) error
}

// SecretStore holds connection passwords and provider API keys. Missing
// entries read back as "".
type SecretStore interface {
	SetPassword(connectionID, password string) error
	Password(connectionID string) (string, error)
	DeletePassword(connectionID string) error
	SetAPIKey(provider, key string) error
	APIKey(provider string) (string, error)
	Secret(key string) (string, error)
}

type HistoryStore interface {
	AddHistory(ctx context.Context, entry model.HistoryEntry) (int64, error)
	History(ctx context.Context, connectionID string, limit int) ([]model.HistoryEntry, error)
	AllHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id int64) error
	DeleteHistoryBySQL(ctx context.Context, sqlText string) (int64, error)
	SearchTableHistory(ctx context.Context, connectionID, table string, limit int) ([]model.HistoryEntry, error)
}

type SavedQueryStore interface {
	SaveQuery(ctx context.Context, q model.SavedQuery) (int64, error)
	SavedQueries(ctx context.Context) ([]model.SavedQuery, error)
	DeleteSavedQuery(ctx context.Context, id int64) error
}

type UsageStore interface {
	RecordTableAccess(ctx context.Context, connectionID, schema, table string) error
	TopTables(ctx context.Context, connectionID string, limit int) ([]model.TableUsage, error)
}

type AIConfigStore interface {
	SaveAIConfig(ctx context.Context, cfg model.AIConfig) error
	GetAIConfig(ctx context.Context) (*model.AIConfig, error)
	SaveAIPrompt(ctx context.Context, prompt, generatedSQL string) error
	SearchAIPrompts(ctx context.Context, query string, limit int) ([]model.AIPromptSuggestion, error)
}

// descriptorResolver rebuilds a full descriptor for a stored connection,
// fetching the password from the secret store when none was supplied.
type descriptorResolver struct {
	store   ConnectionStore
	secrets SecretStore
}

func (r descriptorResolver) resolve(ctx context.Context, id, password string) (model.ConnectionDescriptor, error) {
	rec, err := r.store.GetConnection(ctx, id)
	if err != nil {
		return model.ConnectionDescriptor{}, err
	}
	if password == "" && r.secrets != nil {
		password, err = r.secrets.Password(id)
		if err != nil {
			return model.ConnectionDescriptor{}, err
		}
	}
	return rec.Descriptor(password), nil
}
