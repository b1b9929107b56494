package application

import (
	"context"
	"sync"
	"time"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// stubNode is a minimal ports.Node used across application package tests.
// Every lifecycle hook is optional; nil funcs are treated as no-ops.
type stubNode struct {
	name         string
	portSpecs    []domain.PortSpec
	onStart      func(ctx context.Context, emit ports.Emitter) error
	onMessage    func(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error
	onTick       func(ctx context.Context, emit ports.Emitter) error
	onStop       func(ctx context.Context) error
	tickInterval time.Duration

	mu       sync.Mutex
	received []domain.Message
	started  bool
	stopped  bool
}

func (n *stubNode) Name() string               { return n.name }
func (n *stubNode) Ports() []domain.PortSpec    { return n.portSpecs }
func (n *stubNode) TickInterval() time.Duration { return n.tickInterval }

func (n *stubNode) OnStart(ctx context.Context, emit ports.Emitter) error {
	n.mu.Lock()
	n.started = true
	n.mu.Unlock()
	if n.onStart != nil {
		return n.onStart(ctx, emit)
	}
	return nil
}

func (n *stubNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	n.mu.Lock()
	n.received = append(n.received, msg)
	n.mu.Unlock()
	if n.onMessage != nil {
		return n.onMessage(ctx, port, msg, emit)
	}
	return nil
}

func (n *stubNode) OnTick(ctx context.Context, emit ports.Emitter) error {
	if n.onTick != nil {
		return n.onTick(ctx, emit)
	}
	return nil
}

func (n *stubNode) OnStop(ctx context.Context) error {
	n.mu.Lock()
	n.stopped = true
	n.mu.Unlock()
	if n.onStop != nil {
		return n.onStop(ctx)
	}
	return nil
}

func (n *stubNode) receivedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.received)
}

func (n *stubNode) wasStarted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.started
}

func (n *stubNode) wasStopped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stopped
}

func newSourceNode(name, outPort string) *stubNode {
	return &stubNode{name: name, portSpecs: []domain.PortSpec{domain.NewOutPort(outPort, nil)}}
}

func newSinkNode(name, inPort string) *stubNode {
	return &stubNode{name: name, portSpecs: []domain.PortSpec{domain.NewInPort(inPort, nil)}}
}
