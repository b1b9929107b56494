package nodes

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Node = (*FanoutNode)(nil)

// FanoutNodeConfig names a FanoutNode's single input port and every output
// port it broadcasts to.
type FanoutNodeConfig struct {
	// InPort names the node's input port. Defaults to "in".
	InPort string
	// OutPorts lists every output port a received message is broadcast to.
	// Must be non-empty.
	OutPorts []string
}

// FanoutNode broadcasts every message received on InPort to all of
// OutPorts concurrently, the same structured-concurrency shape the teacher
// used to run independent judge calls side by side (errgroup.WithContext),
// here applied to dispatching to independent downstream edges instead of
// independent LLM calls. Dispatch uses the non-blocking Emit, never
// EmitBlocking: a fan-out node runs inline in the scheduler loop and must
// not wait on backpressure from one output while the others sit idle.
type FanoutNode struct {
	name string
	cfg  FanoutNodeConfig
}

// NewFanoutNode constructs a FanoutNode. cfg.InPort defaults to "in".
func NewFanoutNode(name string, cfg FanoutNodeConfig) (*FanoutNode, error) {
	if name == "" {
		return nil, domain.NewInvalidArgumentError("name", "must not be empty")
	}
	if len(cfg.OutPorts) == 0 {
		return nil, domain.NewInvalidArgumentError("OutPorts", "must list at least one output port")
	}
	if cfg.InPort == "" {
		cfg.InPort = "in"
	}
	return &FanoutNode{name: name, cfg: cfg}, nil
}

func (n *FanoutNode) Name() string { return n.name }

func (n *FanoutNode) Ports() []domain.PortSpec {
	specs := make([]domain.PortSpec, 0, len(n.cfg.OutPorts)+1)
	specs = append(specs, domain.NewInPort(n.cfg.InPort, nil))
	for _, p := range n.cfg.OutPorts {
		specs = append(specs, domain.NewOutPort(p, nil))
	}
	return specs
}

func (n *FanoutNode) OnStart(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *FanoutNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	if port != n.cfg.InPort {
		return fmt.Errorf("%s: unexpected input port %q", n.name, port)
	}

	var g errgroup.Group
	for _, out := range n.cfg.OutPorts {
		out := out
		g.Go(func() error {
			result := emit.Emit(out, msg)
			if result.Err != nil {
				return fmt.Errorf("emit on %q: %w", out, result.Err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (n *FanoutNode) OnTick(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *FanoutNode) OnStop(ctx context.Context) error { return nil }
