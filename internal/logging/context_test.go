package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, Origin(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithOrigin(ctx, "10.0.0.1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", Origin(ctx))
}

func TestCorrelationHandler_InjectsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewTextHandler(&buf, nil)))

	ctx := WithOrigin(WithRequestID(context.Background(), "req-42"), "192.168.1.9")
	logger.InfoContext(ctx, "created")

	out := buf.String()
	assert.True(t, strings.Contains(out, "request_id=req-42"), out)
	assert.True(t, strings.Contains(out, "origin=192.168.1.9"), out)
}

func TestCorrelationHandler_NoAttrsWithoutContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewTextHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "plain")

	out := buf.String()
	assert.False(t, strings.Contains(out, "request_id"), out)
	assert.False(t, strings.Contains(out, "origin"), out)
}
