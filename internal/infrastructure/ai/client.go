package ai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

// NotConfiguredMessage is returned by Chat before Configure has been called.
const NotConfiguredMessage = "AI not configured. Set your API key in Settings."

const defaultTimeout = 60 * time.Second

// Config selects the provider and credentials for subsequent calls.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
}

// Client holds the active provider configuration. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client

	mu  sync.RWMutex
	cfg *Config
}

// NewClient creates an unconfigured client. A zero timeout uses the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Configure replaces the active configuration. An empty model selects the
// provider default.
func (c *Client) Configure(cfg Config) {
	if cfg.Model == "" && cfg.Provider != nil {
		cfg.Model = cfg.Provider.DefaultModel()
	}
	c.mu.Lock()
	c.cfg = &cfg
	c.mu.Unlock()
}

// Configured reports whether Chat can be called.
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg != nil
}

// Active returns the current provider and model.
func (c *Client) Active() (Provider, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cfg == nil {
		return nil, "", false
	}
	return c.cfg.Provider, c.cfg.Model, true
}

// Chat sends one system prompt and one user message and returns the reply text.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	c.mu.RLock()
	var cfg Config
	configured := c.cfg != nil
	if configured {
		cfg = *c.cfg
	}
	c.mu.RUnlock()
	if !configured || cfg.Provider == nil {
		return "", apperr.New(apperr.AI, NotConfiguredMessage)
	}

	req, err := cfg.Provider.newRequest(ctx, cfg.APIKey, cfg.Model, system, user)
	if err != nil {
		return "", apperr.Wrap(apperr.AI, "failed to build AI request", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.AI, cfg.Provider.Name()+" request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.AI, "failed to read AI response", err)
	}

	slog.DebugContext(ctx, "ai call finished",
		slog.String("provider", cfg.Provider.Name()),
		slog.String("model", cfg.Model),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.Newf(apperr.AI, "%s API error (%d %s): %s",
			cfg.Provider.Name(), resp.StatusCode, http.StatusText(resp.StatusCode), body)
	}

	text, err := cfg.Provider.parse(body)
	if err != nil {
		return "", apperr.Wrap(apperr.AI, fmt.Sprintf("failed to decode %s response", cfg.Provider.Name()), err)
	}
	return text, nil
}
