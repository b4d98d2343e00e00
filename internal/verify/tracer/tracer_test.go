package tracer_test

import (
	"context"
	"errors"
	"testing"

	"dossard/internal/verify/tracer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, "test.span",
		tracer.String("key", "value"),
		tracer.Bool("flag", true),
	)

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.String("another", "attr"))
	span.AddEvent("test.event", tracer.Int64("count", 42))
	span.End(nil)
}

func TestNoopTracer_SpanEndWithError(t *testing.T) {
	tr := tracer.NewNoop()

	_, span := tr.Start(context.Background(), "test.span")
	require.NotNil(t, span)

	span.End(errors.New("test error"))
}

func TestHashIdentifier(t *testing.T) {
	assert.Empty(t, tracer.HashIdentifier(""))
	assert.Len(t, tracer.HashIdentifier("1756134"), 16)

	// deterministic, and distinct inputs do not collide
	assert.Equal(t, tracer.HashIdentifier("1756134"), tracer.HashIdentifier("1756134"))
	assert.NotEqual(t, tracer.HashIdentifier("1756134"), tracer.HashIdentifier("1756135"))

	// hash never contains the raw identifier
	assert.NotContains(t, tracer.HashIdentifier("1756134"), "1756134")
}
