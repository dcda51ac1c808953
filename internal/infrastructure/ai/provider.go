// Package ai talks to the hosted text-completion providers used by the
// assistant features. Every call is a single stateless system+user exchange.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

const maxTokens = 4096

// Provider builds requests for, and parses responses from, one vendor API.
// The set of providers is closed.
type Provider interface {
	Name() string
	DefaultModel() string
	newRequest(ctx context.Context, apiKey, model, system, user string) (*http.Request, error)
	parse(body []byte) (string, error)
}

// ParseProvider maps a provider name to its implementation.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic":
		return Anthropic{}, nil
	case "openai":
		return OpenAI{}, nil
	case "google":
		return Google{}, nil
	default:
		return nil, apperr.New(apperr.InvalidInput, "Invalid provider. Use 'anthropic', 'openai', or 'google'.")
	}
}

func jsonRequest(ctx context.Context, endpoint string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func baseOr(base, fallback string) string {
	if base == "" {
		return fallback
	}
	return strings.TrimRight(base, "/")
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Anthropic speaks the Messages API.
type Anthropic struct {
	BaseURL string
}

func (Anthropic) Name() string         { return "Anthropic" }
func (Anthropic) DefaultModel() string { return "claude-sonnet-4-6" }

func (p Anthropic) newRequest(ctx context.Context, apiKey, model, system, user string) (*http.Request, error) {
	req, err := jsonRequest(ctx, baseOr(p.BaseURL, "https://api.anthropic.com")+"/v1/messages", map[string]any{
		"model":      model,
		"max_tokens": maxTokens,
		"system":     system,
		"messages":   []message{{Role: "user", Content: user}},
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (Anthropic) parse(body []byte) (string, error) {
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", nil
	}
	return resp.Content[0].Text, nil
}

// OpenAI speaks the Chat Completions API.
type OpenAI struct {
	BaseURL string
}

func (OpenAI) Name() string         { return "OpenAI" }
func (OpenAI) DefaultModel() string { return "gpt-4.1" }

func (p OpenAI) newRequest(ctx context.Context, apiKey, model, system, user string) (*http.Request, error) {
	req, err := jsonRequest(ctx, baseOr(p.BaseURL, "https://api.openai.com")+"/v1/chat/completions", map[string]any{
		"model":      model,
		"max_tokens": maxTokens,
		"messages": []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	return req, nil
}

func (OpenAI) parse(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Google speaks the Gemini generateContent API.
type Google struct {
	BaseURL string
}

func (Google) Name() string         { return "Google" }
func (Google) DefaultModel() string { return "gemini-2.5-flash-lite" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

func (p Google) newRequest(ctx context.Context, apiKey, model, system, user string) (*http.Request, error) {
	endpoint := baseOr(p.BaseURL, "https://generativelanguage.googleapis.com") +
		"/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	req, err := jsonRequest(ctx, endpoint, map[string]any{
		"systemInstruction": geminiContent{Parts: []geminiPart{{Text: system}}},
		"contents":          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
		"generationConfig":  map[string]any{"maxOutputTokens": maxTokens},
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", apiKey)
	return req, nil
}

func (Google) parse(body []byte) (string, error) {
	var resp struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
