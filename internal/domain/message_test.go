package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_PopulatesDefaultHeaders(t *testing.T) {
	msg := NewMessage(DataKind, 42, nil)

	assert.True(t, msg.IsData())
	assert.Equal(t, 42, msg.Payload())
	assert.NotEmpty(t, msg.TraceID())
	assert.Greater(t, msg.Timestamp(), 0.0)
}

func TestNewMessage_PreservesSuppliedHeaders(t *testing.T) {
	msg := NewMessage(ControlKind, "shutdown", map[string]any{
		HeaderTraceID: "custom-trace",
		"source":      "test",
	})

	assert.True(t, msg.IsControl())
	assert.Equal(t, "custom-trace", msg.TraceID())

	source, ok := msg.Header("source")
	require.True(t, ok)
	assert.Equal(t, "test", source)
}

func TestMessage_WithHeaders_DoesNotMutateOriginal(t *testing.T) {
	original := NewMessage(DataKind, "payload", map[string]any{"a": 1})
	enriched := original.WithHeaders(map[string]any{"b": 2})

	_, hasB := original.Header("b")
	assert.False(t, hasB)

	b, ok := enriched.Header("b")
	require.True(t, ok)
	assert.Equal(t, 2, b)

	a, ok := enriched.Header("a")
	require.True(t, ok)
	assert.Equal(t, 1, a)
}

func TestMessage_WithHeaders_OverridesOnCollision(t *testing.T) {
	original := NewMessage(DataKind, "payload", map[string]any{"a": 1})
	enriched := original.WithHeaders(map[string]any{"a": 2})

	a, ok := enriched.Header("a")
	require.True(t, ok)
	assert.Equal(t, 2, a)

	origA, _ := original.Header("a")
	assert.Equal(t, 1, origA)
}

func TestMessage_Headers_ReturnsIndependentCopy(t *testing.T) {
	msg := NewMessage(DataKind, "payload", map[string]any{"a": 1})
	h := msg.Headers()
	h["a"] = "mutated"

	a, _ := msg.Header("a")
	assert.Equal(t, 1, a)
}

func TestKind_String(t *testing.T) {
	cases := map[Kind]string{
		DataKind:    "DATA",
		ControlKind: "CONTROL",
		ErrorKind:   "ERROR",
		Kind(99):    "UNKNOWN",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
