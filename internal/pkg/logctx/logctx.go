package logctx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithAttrs returns a context whose log records carry attrs in addition to
// whatever the parent context already carries.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	existing := Attrs(ctx)
	combined := make([]slog.Attr, 0, len(existing)+len(attrs))
	combined = append(combined, existing...)
	combined = append(combined, attrs...)
	return context.WithValue(ctx, ctxKey{}, combined)
}

// WithField adds a single key/value attribute to the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithAttrs(ctx, slog.Any(key, value))
}

// WithFields adds a set of key/value attributes to the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}
	return WithAttrs(ctx, attrs...)
}

func WithConnectionID(ctx context.Context, connectionID string) context.Context {
	return WithAttrs(ctx, slog.String("connectionId", connectionID))
}

// WithOperation tags records with the operation name and, when set, its id.
func WithOperation(ctx context.Context, operation, operationID string) context.Context {
	if operationID == "" {
		return WithAttrs(ctx, slog.String("operation", operation))
	}
	return WithAttrs(ctx, slog.String("operation", operation), slog.String("operationId", operationID))
}

// Attrs returns the attributes stored in the context.
func Attrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	return attrs
}

// WrapLogger returns a logger that injects context attributes on every record.
func WrapLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return nil
	}
	if _, ok := logger.Handler().(*ContextHandler); ok {
		return logger
	}
	return slog.New(NewContextHandler(logger.Handler()))
}
