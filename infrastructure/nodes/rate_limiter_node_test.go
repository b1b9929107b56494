package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian-runtime/internal/domain"
)

func TestRateLimiterNode_OnMessage_DropsBeyondBurst(t *testing.T) {
	n, err := NewRateLimiterNode("throttle", RateLimiterNodeConfig{RatePerSecond: 1, Burst: 1})
	require.NoError(t, err)

	emitter := newRecordingEmitter()
	require.NoError(t, n.OnMessage(context.Background(), "in", domain.NewMessage(domain.DataKind, 1, nil), emitter))
	require.NoError(t, n.OnMessage(context.Background(), "in", domain.NewMessage(domain.DataKind, 2, nil), emitter))

	out := emitter.messages("out")
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Payload())
}

func TestNewRateLimiterNode_RejectsNonPositiveRate(t *testing.T) {
	_, err := NewRateLimiterNode("throttle", RateLimiterNodeConfig{RatePerSecond: 0})
	assert.Error(t, err)
}

func TestRateLimiterNode_OnMessage_RejectsUnknownPort(t *testing.T) {
	n, err := NewRateLimiterNode("throttle", RateLimiterNodeConfig{RatePerSecond: 100})
	require.NoError(t, err)

	err = n.OnMessage(context.Background(), "other", domain.NewMessage(domain.DataKind, 1, nil), newRecordingEmitter())
	assert.Error(t, err)
}
