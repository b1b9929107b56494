package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_WeightedRoundRobin(t *testing.T) {
	pq := NewPriorityQueue(FairnessRatio{Control: 2, High: 1, Normal: 1})
	pq.SetBand("ctrl", ControlBand)
	pq.SetBand("high", HighBand)
	pq.SetBand("norm", NormalBand)

	var order []string
	for i := 0; i < 8; i++ {
		node, ok := pq.Next()
		require.True(t, ok)
		order = append(order, node)
	}

	// One full round should visit control twice before moving to high then
	// normal, then repeat.
	assert.Equal(t, []string{"ctrl", "ctrl", "high", "norm", "ctrl", "ctrl", "high", "norm"}, order)
}

func TestPriorityQueue_RoundRobinWithinBand(t *testing.T) {
	pq := NewPriorityQueue(FairnessRatio{Control: 1, High: 1, Normal: 3})
	pq.SetBand("n1", NormalBand)
	pq.SetBand("n2", NormalBand)
	pq.SetBand("n3", NormalBand)

	var order []string
	for i := 0; i < 3; i++ {
		node, _ := pq.Next()
		order = append(order, node)
	}
	assert.Equal(t, []string{"n1", "n2", "n3"}, order)
}

func TestPriorityQueue_EmptyQueueReturnsNotOk(t *testing.T) {
	pq := NewPriorityQueue(DefaultFairnessRatio())
	_, ok := pq.Next()
	assert.False(t, ok)
}

func TestPriorityQueue_SetBand_MovesNodeBetweenBands(t *testing.T) {
	pq := NewPriorityQueue(DefaultFairnessRatio())
	pq.SetBand("n1", NormalBand)
	pq.SetBand("n1", ControlBand)

	band, ok := pq.BandOf("n1")
	require.True(t, ok)
	assert.Equal(t, ControlBand, band)
	assert.Empty(t, pq.Members(NormalBand))
	assert.Equal(t, []string{"n1"}, pq.Members(ControlBand))
}

func TestPriorityQueue_RemoveNode(t *testing.T) {
	pq := NewPriorityQueue(DefaultFairnessRatio())
	pq.SetBand("n1", NormalBand)
	pq.RemoveNode("n1")

	_, ok := pq.BandOf("n1")
	assert.False(t, ok)
	_, ok = pq.Next()
	assert.False(t, ok)
}
