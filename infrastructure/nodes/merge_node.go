package nodes

import (
	"context"
	"fmt"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Node = (*MergeNode)(nil)

// MergeNodeConfig lists a MergeNode's input ports and names its single
// output port.
type MergeNodeConfig struct {
	// InPorts names every input port the node accepts. Must be non-empty.
	InPorts []string
	// OutPort names the node's output port. Defaults to "out".
	OutPort string
}

// MergeNode passes every message received on any of its input ports
// straight through to OutPort, fanning several producers into one consumer.
// Fairness across the InPorts is the scheduler's concern (each arrives as a
// distinct edge drained by the node's own batch quota), not the node's.
type MergeNode struct {
	name string
	cfg  MergeNodeConfig
	in   map[string]struct{}
}

// NewMergeNode constructs a MergeNode. cfg.OutPort defaults to "out".
func NewMergeNode(name string, cfg MergeNodeConfig) (*MergeNode, error) {
	if name == "" {
		return nil, domain.NewInvalidArgumentError("name", "must not be empty")
	}
	if len(cfg.InPorts) == 0 {
		return nil, domain.NewInvalidArgumentError("InPorts", "must list at least one input port")
	}
	if cfg.OutPort == "" {
		cfg.OutPort = "out"
	}
	in := make(map[string]struct{}, len(cfg.InPorts))
	for _, p := range cfg.InPorts {
		in[p] = struct{}{}
	}
	return &MergeNode{name: name, cfg: cfg, in: in}, nil
}

func (n *MergeNode) Name() string { return n.name }

func (n *MergeNode) Ports() []domain.PortSpec {
	specs := make([]domain.PortSpec, 0, len(n.cfg.InPorts)+1)
	for _, p := range n.cfg.InPorts {
		specs = append(specs, domain.NewInPort(p, nil))
	}
	specs = append(specs, domain.NewOutPort(n.cfg.OutPort, nil))
	return specs
}

func (n *MergeNode) OnStart(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *MergeNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	if _, ok := n.in[port]; !ok {
		return fmt.Errorf("%s: unexpected input port %q", n.name, port)
	}
	emit.Emit(n.cfg.OutPort, msg)
	return nil
}

func (n *MergeNode) OnTick(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *MergeNode) OnStop(ctx context.Context) error { return nil }
