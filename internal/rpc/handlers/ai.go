package handlers

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

type ExplainParams struct {
	service.AssistantScope
	SQL string `json:"sql"`
}

type ChatParams struct {
	service.AssistantScope
	Message string `json:"message"`
}

type PromptSearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type SQLResult struct {
	SQL string `json:"sql"`
}

type TextResult struct {
	Text string `json:"text"`
}

func getAIStatus(_ context.Context, svc service.Services, _ struct{}) (model.AIStatus, error) {
	return svc.Assistant.Status(), nil
}

func getAIConfig(ctx context.Context, svc service.Services, _ struct{}) (*model.AIConfig, error) {
	return svc.Assistant.Config(ctx)
}

func configureAI(ctx context.Context, svc service.Services, p service.AIConfigInput) (model.AIStatus, error) {
	if err := svc.Assistant.Configure(ctx, p); err != nil {
		return model.AIStatus{}, err
	}
	return svc.Assistant.Status(), nil
}

func nlToSQL(ctx context.Context, svc service.Services, p service.NLToSQLRequest) (*SQLResult, error) {
	sql, err := svc.Assistant.NLToSQL(ctx, p)
	if err != nil {
		return nil, err
	}
	return &SQLResult{SQL: sql}, nil
}

func explainQuery(ctx context.Context, svc service.Services, p ExplainParams) (*TextResult, error) {
	return text(svc.Assistant.Explain(ctx, p.AssistantScope, p.SQL))
}

func optimizeQuery(ctx context.Context, svc service.Services, p service.OptimizeRequest) (*TextResult, error) {
	return text(svc.Assistant.Optimize(ctx, p))
}

func completeSQL(ctx context.Context, svc service.Services, p service.CompleteRequest) (*TextResult, error) {
	return text(svc.Assistant.Complete(ctx, p))
}

func aiChat(ctx context.Context, svc service.Services, p ChatParams) (*TextResult, error) {
	return text(svc.Assistant.Chat(ctx, p.AssistantScope, p.Message))
}

func searchAIPrompts(ctx context.Context, svc service.Services, p PromptSearchParams) ([]model.AIPromptSuggestion, error) {
	return svc.Assistant.SearchPrompts(ctx, p.Query, p.Limit)
}

func text(s string, err error) (*TextResult, error) {
	if err != nil {
		return nil, err
	}
	return &TextResult{Text: s}, nil
}
