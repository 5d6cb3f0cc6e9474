package ctxlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"fieldbind/internal/ctxlog"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := ctxlog.WithLogger(context.Background(), logger)
	assert.Same(t, logger, ctxlog.FromContext(ctx))

	ctxlog.FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestFallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), ctxlog.FromContext(context.Background()))
	assert.NotNil(t, ctxlog.Discard())
}
