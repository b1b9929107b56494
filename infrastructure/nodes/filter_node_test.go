package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian-runtime/internal/domain"
)

func TestFilterNode_OnMessage_ForwardsOnlyMatching(t *testing.T) {
	f, err := NewFilterNode("evens", FilterNodeConfig{}, func(payload any) bool {
		n, _ := payload.(int)
		return n%2 == 0
	})
	require.NoError(t, err)

	emitter := newRecordingEmitter()
	for i := 0; i < 4; i++ {
		require.NoError(t, f.OnMessage(context.Background(), "in", domain.NewMessage(domain.DataKind, i, nil), emitter))
	}

	out := emitter.messages("out")
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Payload())
	assert.Equal(t, 2, out[1].Payload())
}

func TestFilterNode_OnMessage_RejectsUnknownPort(t *testing.T) {
	f, err := NewFilterNode("any", FilterNodeConfig{}, func(any) bool { return true })
	require.NoError(t, err)

	err = f.OnMessage(context.Background(), "other", domain.NewMessage(domain.DataKind, 1, nil), newRecordingEmitter())
	assert.Error(t, err)
}
