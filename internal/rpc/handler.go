package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/exp/jsonrpc2"

	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
	"github.com/marcogbarcellos/pgstudio/internal/rpc/handlers"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

// Handler dispatches JSON-RPC requests to the domain services.
type Handler struct {
	services service.Services
	methods  map[string]handlers.Method
}

func NewHandler(svc service.Services) *Handler {
	return &Handler{services: svc, methods: handlers.Methods()}
}

// Handle implements the jsonrpc2 handler contract.
func (h *Handler) Handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	method, ok := h.methods[req.Method]
	if !ok {
		slog.WarnContext(ctx, "rpc method not found", slog.String("method", req.Method))
		return nil, fmt.Errorf("%w: %s", jsonrpc2.ErrMethodNotFound, req.Method)
	}

	ctx = logctx.WithField(ctx, "method", req.Method)
	start := time.Now()
	result, err := method(ctx, h.services, req.Params)
	if err != nil {
		slog.DebugContext(ctx, "rpc call failed", slog.Duration("duration", time.Since(start)), slog.Any("err", err))
		return nil, err
	}
	slog.DebugContext(ctx, "rpc call finished", slog.Duration("duration", time.Since(start)))
	return result, nil
}
