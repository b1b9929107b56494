package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogifaceLogger_InfoWritesEvent(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	logger := NewLogifaceLogger(w, logiface.LevelDebug)

	logger.Info("scheduler_state_change", map[string]any{"from": "Starting", "to": "Running"})
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Starting", decoded["from"])
	assert.Equal(t, "Running", decoded["to"])
}

func TestLogifaceLogger_WithMergesFieldsAcrossCalls(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	logger := NewLogifaceLogger(w, logiface.LevelDebug)
	scoped := logger.With(map[string]any{"node": "gen"})

	scoped.Warn("edge_blocked", map[string]any{"edge": "gen:out->sink:in"})
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "gen", decoded["node"])
	assert.Equal(t, "gen:out->sink:in", decoded["edge"])
}

func TestLogifaceLogger_DebugSuppressedBelowConfiguredLevel(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	logger := NewLogifaceLogger(w, logiface.LevelInformational)

	logger.Debug("node_visit", map[string]any{"node": "gen"})
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	assert.Empty(t, buf.Bytes())
}

func TestApplyField_RoutesErrorValuesThroughErr(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	logger := NewLogifaceLogger(w, logiface.LevelDebug)

	logger.Error("node_error", map[string]any{"error": errors.New("boom")})
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "error")
}
