// Package nodes provides ready-to-wire ports.Node implementations: sources,
// transforms, fan-out/fan-in shapes, a self-throttling node, and an
// I/O-bound node that offloads blocking work to its own goroutine. They
// exist the way the teacher's infrastructure/units package ships concrete
// evaluation units alongside the core engine: usable directly, and a
// reference for writing further nodes.
package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var (
	_ ports.Node         = (*GeneratorNode)(nil)
	_ ports.TickInterval = (*GeneratorNode)(nil)
)

// GenerateFunc produces the next payload for a GeneratorNode. A false second
// return value signals the generator is exhausted; the node stops calling it
// again (but the scheduler keeps it registered until Stop).
type GenerateFunc func(ctx context.Context) (payload any, ok bool, err error)

// GeneratorNodeConfig controls a GeneratorNode's port name and tick cadence.
type GeneratorNodeConfig struct {
	// OutPort names the node's single output port. Defaults to "out".
	OutPort string
	// Interval must be positive; it opts the node in to scheduler ticks,
	// which arrive at the scheduler's tick cadence rather than at Interval.
	Interval time.Duration
}

// GeneratorNode is a source node with no input ports: on every scheduler
// tick it calls Generate and emits the result on OutPort, stopping once
// Generate reports exhaustion.
type GeneratorNode struct {
	name     string
	cfg      GeneratorNodeConfig
	generate GenerateFunc
	done     bool
}

// NewGeneratorNode constructs a GeneratorNode. cfg.OutPort defaults to "out"
// and cfg.Interval must be positive.
func NewGeneratorNode(name string, cfg GeneratorNodeConfig, generate GenerateFunc) (*GeneratorNode, error) {
	if name == "" {
		return nil, domain.NewInvalidArgumentError("name", "must not be empty")
	}
	if cfg.Interval <= 0 {
		return nil, domain.NewInvalidArgumentError("Interval", "must be positive")
	}
	if cfg.OutPort == "" {
		cfg.OutPort = "out"
	}
	if generate == nil {
		return nil, domain.NewInvalidArgumentError("generate", "must not be nil")
	}
	return &GeneratorNode{name: name, cfg: cfg, generate: generate}, nil
}

func (n *GeneratorNode) Name() string { return n.name }

func (n *GeneratorNode) Ports() []domain.PortSpec {
	return []domain.PortSpec{domain.NewOutPort(n.cfg.OutPort, nil)}
}

func (n *GeneratorNode) TickInterval() time.Duration { return n.cfg.Interval }

func (n *GeneratorNode) OnStart(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *GeneratorNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	return fmt.Errorf("%s: generator node has no input ports", n.name)
}

func (n *GeneratorNode) OnTick(ctx context.Context, emit ports.Emitter) error {
	if n.done {
		return nil
	}
	payload, ok, err := n.generate(ctx)
	if err != nil {
		return err
	}
	if !ok {
		n.done = true
		return nil
	}
	emit.Emit(n.cfg.OutPort, domain.NewMessage(domain.DataKind, payload, nil))
	return nil
}

func (n *GeneratorNode) OnStop(ctx context.Context) error { return nil }
