package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrsReachRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := WrapLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithConnectionID(context.Background(), "local")
	ctx = WithOperation(ctx, "dump", "op-1")
	logger.InfoContext(ctx, "dump finished")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "local", record["connectionId"])
	assert.Equal(t, "dump", record["operation"])
	assert.Equal(t, "op-1", record["operationId"])
}

func TestWithAttrsDoesNotMutateParent(t *testing.T) {
	parent := WithField(context.Background(), "a", 1)
	child := WithField(parent, "b", 2)

	assert.Len(t, Attrs(parent), 1)
	assert.Len(t, Attrs(child), 2)
}

func TestWrapLoggerIsIdempotent(t *testing.T) {
	logger := WrapLogger(slog.Default())
	assert.Same(t, logger, WrapLogger(logger))
	assert.Nil(t, WrapLogger(nil))
}
