package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "snippet", "trace-1")
	childCtx, child := StartChildSpan(ctx, "rank")
	child.SetAttr("candidates", 4)
	_, grandchild := StartChildSpan(childCtx, "score")
	grandchild.End()
	child.End()
	root.End()

	assert.Same(t, root, SpanFromContext(ctx))
	assert.Equal(t, "trace-1", child.TraceID)
	assert.Equal(t, "trace-1", grandchild.TraceID)

	sum := root.Summary()
	assert.Equal(t, "snippet", sum.Name)
	require.Len(t, sum.Children, 1)
	assert.Equal(t, "rank", sum.Children[0].Name)
	assert.Equal(t, 4, sum.Children[0].Attrs["candidates"])
	require.Len(t, sum.Children[0].Children, 1)
	assert.Equal(t, "score", sum.Children[0].Children[0].Name)
}

func TestChildWithoutParent(t *testing.T) {
	ctx, span := StartChildSpan(context.Background(), "orphan")
	assert.Empty(t, span.TraceID)
	assert.Same(t, span, SpanFromContext(ctx))
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestEndIsIdempotent(t *testing.T) {
	_, span := StartSpan(context.Background(), "x", "t")
	span.End()
	first := span.EndTime
	span.End()
	assert.Equal(t, first, span.EndTime)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "root", "abc")
	_, child := StartChildSpan(ctx, "child")
	child.End()
	root.End()
	root.Log(logger)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=span"))
	assert.Contains(t, out, "span=child")
	assert.Contains(t, out, "depth=1")
}

func TestNewTraceID(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestSampler(t *testing.T) {
	assert.False(t, NewSampler(false, 1).Sample())
	assert.False(t, NewSampler(true, 0).Sample())
	assert.True(t, NewSampler(true, 1).Sample())
}
