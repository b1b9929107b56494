package nodes

import (
	"context"
	"fmt"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Node = (*FilterNode)(nil)

// PredicateFunc reports whether a payload should continue downstream.
type PredicateFunc func(payload any) bool

// FilterNodeConfig names a FilterNode's single input and output port.
type FilterNodeConfig struct {
	// InPort names the node's input port. Defaults to "in".
	InPort string
	// OutPort names the node's output port. Defaults to "out".
	OutPort string
}

// FilterNode forwards messages from InPort to OutPort only when Predicate
// returns true, silently dropping the rest.
type FilterNode struct {
	name      string
	cfg       FilterNodeConfig
	predicate PredicateFunc
}

// NewFilterNode constructs a FilterNode. cfg fields default to "in"/"out".
func NewFilterNode(name string, cfg FilterNodeConfig, predicate PredicateFunc) (*FilterNode, error) {
	if name == "" {
		return nil, domain.NewInvalidArgumentError("name", "must not be empty")
	}
	if predicate == nil {
		return nil, domain.NewInvalidArgumentError("predicate", "must not be nil")
	}
	if cfg.InPort == "" {
		cfg.InPort = "in"
	}
	if cfg.OutPort == "" {
		cfg.OutPort = "out"
	}
	return &FilterNode{name: name, cfg: cfg, predicate: predicate}, nil
}

func (n *FilterNode) Name() string { return n.name }

func (n *FilterNode) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.NewInPort(n.cfg.InPort, nil),
		domain.NewOutPort(n.cfg.OutPort, nil),
	}
}

func (n *FilterNode) OnStart(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *FilterNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	if port != n.cfg.InPort {
		return fmt.Errorf("%s: unexpected input port %q", n.name, port)
	}
	if n.predicate(msg.Payload()) {
		emit.Emit(n.cfg.OutPort, msg)
	}
	return nil
}

func (n *FilterNode) OnTick(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *FilterNode) OnStop(ctx context.Context) error { return nil }
