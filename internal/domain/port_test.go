package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortSpec_Accepts(t *testing.T) {
	noSchema := NewInPort("in", nil)
	assert.True(t, noSchema.Accepts("anything"))

	onlyInts := NewInPort("in", func(payload any) bool {
		_, ok := payload.(int)
		return ok
	})
	assert.True(t, onlyInts.Accepts(5))
	assert.False(t, onlyInts.Accepts("not an int"))
}

func TestPortSpec_WithDefaultPolicy(t *testing.T) {
	port := NewOutPort("out", nil).WithDefaultPolicy(Drop())
	assert.Equal(t, DropPolicy, port.DefaultPolicy.Kind)
}
