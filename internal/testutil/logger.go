// Package testutil provides shared helpers for package tests.
package testutil

import (
	"log/slog"
	"testing"

	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

// NewTestLogger returns a context-aware logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return logctx.WrapLogger(slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
