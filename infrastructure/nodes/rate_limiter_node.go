package nodes

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Node = (*RateLimiterNode)(nil)

// RateLimiterNodeConfig configures a RateLimiterNode's ports and token
// bucket.
type RateLimiterNodeConfig struct {
	// InPort names the node's input port. Defaults to "in".
	InPort string
	// OutPort names the node's output port. Defaults to "out".
	OutPort string
	// RatePerSecond is the token bucket's steady-state refill rate.
	RatePerSecond float64
	// Burst is the token bucket's maximum burst size. Defaults to 1.
	Burst int
}

// RateLimiterNode throttles its own emit rate with a token bucket
// (golang.org/x/time/rate), dropping messages that arrive faster than the
// configured rate rather than queuing them — a node-level complement to
// edge-level backpressure, for producers the graph cannot otherwise slow
// down (e.g. an external webhook source).
type RateLimiterNode struct {
	name    string
	cfg     RateLimiterNodeConfig
	limiter *rate.Limiter
}

// NewRateLimiterNode constructs a RateLimiterNode. cfg.InPort/OutPort
// default to "in"/"out"; cfg.Burst defaults to 1.
func NewRateLimiterNode(name string, cfg RateLimiterNodeConfig) (*RateLimiterNode, error) {
	if name == "" {
		return nil, domain.NewInvalidArgumentError("name", "must not be empty")
	}
	if cfg.RatePerSecond <= 0 {
		return nil, domain.NewInvalidArgumentError("RatePerSecond", "must be positive")
	}
	if cfg.InPort == "" {
		cfg.InPort = "in"
	}
	if cfg.OutPort == "" {
		cfg.OutPort = "out"
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiterNode{
		name:    name,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}, nil
}

func (n *RateLimiterNode) Name() string { return n.name }

func (n *RateLimiterNode) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.NewInPort(n.cfg.InPort, nil),
		domain.NewOutPort(n.cfg.OutPort, nil),
	}
}

func (n *RateLimiterNode) OnStart(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *RateLimiterNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	if port != n.cfg.InPort {
		return fmt.Errorf("%s: unexpected input port %q", n.name, port)
	}
	if !n.limiter.Allow() {
		return nil
	}
	emit.Emit(n.cfg.OutPort, msg)
	return nil
}

func (n *RateLimiterNode) OnTick(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *RateLimiterNode) OnStop(ctx context.Context) error { return nil }
