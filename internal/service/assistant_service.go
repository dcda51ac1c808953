package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/ai"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

const (
	defaultPromptSuggestions = 10
	recentQueryCount         = 5
)

// SchemaSource builds the schema summary sent along with every AI request.
type SchemaSource interface {
	BuildSchemaContext(ctx context.Context, id string) (*model.SchemaContext, error)
}

// AIConfigInput selects a provider. An empty model picks the provider
// default; an empty key keeps the stored one.
type AIConfigInput struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
	Model    string `json:"model,omitempty"`
}

// AssistantScope names the schema an AI request is about: either a live
// connection whose catalog is read, or a caller-supplied snapshot.
type AssistantScope struct {
	ConnectionID string               `json:"connectionId,omitempty"`
	Schema       *model.SchemaContext `json:"schemaContext,omitempty"`
}

type NLToSQLRequest struct {
	AssistantScope
	Prompt        string   `json:"prompt"`
	RecentQueries []string `json:"recentQueries,omitempty"`
}

type OptimizeRequest struct {
	AssistantScope
	SQL   string `json:"sql"`
	Error string `json:"error,omitempty"`
}

type CompleteRequest struct {
	AssistantScope
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// AssistantService backs the AI features. Only schema metadata is ever sent
// to the provider, never row data.
type AssistantService struct {
	client    *ai.Client
	providers func(string) (ai.Provider, error)
	store     AIConfigStore
	secrets   SecretStore
	schemas   SchemaSource
	history   HistoryStore
}

func NewAssistantService(client *ai.Client, store AIConfigStore, secrets SecretStore, schemas SchemaSource, history HistoryStore) *AssistantService {
	return &AssistantService{
		client:    client,
		providers: ai.ParseProvider,
		store:     store,
		secrets:   secrets,
		schemas:   schemas,
		history:   history,
	}
}

// Restore reapplies the saved configuration at startup. A saved provider
// without a stored key stays unconfigured.
func (s *AssistantService) Restore(ctx context.Context) error {
	cfg, err := s.store.GetAIConfig(ctx)
	if err != nil || cfg == nil {
		return err
	}
	provider, err := s.providers(cfg.Provider)
	if err != nil {
		return err
	}
	key, err := s.secrets.APIKey(cfg.Provider)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "failed to read API key", err)
	}
	if key == "" {
		slog.InfoContext(ctx, "ai provider saved without key", slog.String("provider", cfg.Provider))
		return nil
	}
	s.client.Configure(ai.Config{Provider: provider, APIKey: key, Model: cfg.Model})
	return nil
}

func (s *AssistantService) Configure(ctx context.Context, in AIConfigInput) error {
	provider, err := s.providers(in.Provider)
	if err != nil {
		return err
	}
	name := strings.ToLower(strings.TrimSpace(in.Provider))
	modelName := in.Model
	if modelName == "" {
		modelName = provider.DefaultModel()
	}

	key := in.APIKey
	if key == "" {
		if key, err = s.secrets.APIKey(name); err != nil {
			return apperr.Wrap(apperr.Storage, "failed to read API key", err)
		}
		if key == "" {
			return apperr.New(apperr.InvalidInput, "API key is required")
		}
	} else if err := s.secrets.SetAPIKey(name, key); err != nil {
		return apperr.Wrap(apperr.Storage, "failed to store API key", err)
	}

	if err := s.store.SaveAIConfig(ctx, model.AIConfig{Provider: name, Model: modelName}); err != nil {
		return err
	}
	s.client.Configure(ai.Config{Provider: provider, APIKey: key, Model: modelName})
	slog.InfoContext(ctx, "ai configured", slog.String("provider", name), slog.String("model", modelName))
	return nil
}

func (s *AssistantService) Status() model.AIStatus {
	provider, modelName, ok := s.client.Active()
	if !ok {
		return model.AIStatus{}
	}
	return model.AIStatus{Configured: true, Provider: strings.ToLower(provider.Name()), Model: modelName}
}

// Config returns the saved provider selection, or nil.
func (s *AssistantService) Config(ctx context.Context) (*model.AIConfig, error) {
	return s.store.GetAIConfig(ctx)
}

func (s *AssistantService) ddl(ctx context.Context, scope AssistantScope) (string, error) {
	if scope.Schema != nil {
		return scope.Schema.DDLSummary(), nil
	}
	if scope.ConnectionID == "" {
		return "", apperr.New(apperr.InvalidInput, "connectionId or schemaContext is required")
	}
	schema, err := s.schemas.BuildSchemaContext(ctx, scope.ConnectionID)
	if err != nil {
		return "", err
	}
	return schema.DDLSummary(), nil
}

func (s *AssistantService) chat(ctx context.Context, p ai.Prompt) (string, error) {
	return s.client.Chat(ctx, p.System, p.User)
}

// NLToSQL turns a request into SQL. Without explicit recent queries the last
// successful ones on the connection are used. The pair is kept for prompt
// suggestions.
func (s *AssistantService) NLToSQL(ctx context.Context, req NLToSQLRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", apperr.New(apperr.InvalidInput, "prompt is required")
	}
	ddl, err := s.ddl(ctx, req.AssistantScope)
	if err != nil {
		return "", err
	}

	recent := req.RecentQueries
	if recent == nil && req.ConnectionID != "" {
		recent = s.recentQueries(ctx, req.ConnectionID)
	}

	text, err := s.chat(ctx, ai.NLToSQLPrompt(req.Prompt, ddl, recent))
	if err != nil {
		return "", err
	}
	generated := ai.StripCodeFences(text)
	if err := s.store.SaveAIPrompt(context.WithoutCancel(ctx), req.Prompt, generated); err != nil {
		slog.WarnContext(ctx, "failed to save ai prompt", slog.Any("err", err))
	}
	return generated, nil
}

func (s *AssistantService) recentQueries(ctx context.Context, connectionID string) []string {
	if s.history == nil {
		return nil
	}
	entries, err := s.history.History(ctx, connectionID, recentQueryCount*2)
	if err != nil {
		slog.WarnContext(ctx, "failed to load recent queries", slog.Any("err", err))
		return nil
	}
	out := make([]string, 0, recentQueryCount)
	for _, e := range entries {
		if e.Success && len(out) < recentQueryCount {
			out = append(out, e.SQL)
		}
	}
	return out
}

func (s *AssistantService) SearchPrompts(ctx context.Context, query string, limit int) ([]model.AIPromptSuggestion, error) {
	if limit <= 0 {
		limit = defaultPromptSuggestions
	}
	return s.store.SearchAIPrompts(ctx, query, limit)
}

func (s *AssistantService) Explain(ctx context.Context, scope AssistantScope, sql string) (string, error) {
	ddl, err := s.ddl(ctx, scope)
	if err != nil {
		return "", err
	}
	return s.chat(ctx, ai.ExplainPrompt(sql, ddl))
}

// Optimize suggests a faster query, or a fix when req.Error carries the
// server's error text.
func (s *AssistantService) Optimize(ctx context.Context, req OptimizeRequest) (string, error) {
	ddl, err := s.ddl(ctx, req.AssistantScope)
	if err != nil {
		return "", err
	}
	return s.chat(ctx, ai.OptimizePrompt(req.SQL, ddl, req.Error))
}

func (s *AssistantService) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	ddl, err := s.ddl(ctx, req.AssistantScope)
	if err != nil {
		return "", err
	}
	return s.chat(ctx, ai.CompletePrompt(req.Prefix, req.Suffix, ddl))
}

func (s *AssistantService) Chat(ctx context.Context, scope AssistantScope, message string) (string, error) {
	ddl, err := s.ddl(ctx, scope)
	if err != nil {
		return "", err
	}
	return s.chat(ctx, ai.ChatPrompt(message, ddl))
}
