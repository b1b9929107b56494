package nodes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Node = (*LLMFetchNode)(nil)

// LLMFetchNodeConfig configures an LLMFetchNode's ports and request shape.
type LLMFetchNodeConfig struct {
	// InPort names the port carrying prompt strings. Defaults to "request".
	InPort string
	// OutPort names the port the LLM's response (or a failure) is emitted
	// on. Defaults to "response".
	OutPort string
	// Options is passed through to the client's Complete call unchanged
	// (temperature, max tokens, and other provider-specific parameters).
	Options map[string]any
	// Timeout bounds a single Complete call. Zero means no per-request
	// timeout beyond the node's own shutdown deadline.
	Timeout time.Duration
}

// LLMFetchNode calls an LLM provider from a goroutine per request rather
// than inline in OnMessage, the "offload blocking I/O, never block the
// loop" pattern: OnMessage returns immediately after spawning the call, and
// the goroutine delivers the result with EmitBlocking once it completes.
// Grounded on the teacher's ScoreJudgeUnit, which calls out to an LLMClient
// per evaluation and propagates context cancellation and timeouts the same
// way.
type LLMFetchNode struct {
	name   string
	cfg    LLMFetchNodeConfig
	client ports.LLMClient

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLLMFetchNode constructs an LLMFetchNode calling client for every
// request received on InPort. cfg.InPort/OutPort default to
// "request"/"response".
func NewLLMFetchNode(name string, cfg LLMFetchNodeConfig, client ports.LLMClient) (*LLMFetchNode, error) {
	if name == "" {
		return nil, domain.NewInvalidArgumentError("name", "must not be empty")
	}
	if client == nil {
		return nil, domain.NewInvalidArgumentError("client", "must not be nil")
	}
	if cfg.InPort == "" {
		cfg.InPort = "request"
	}
	if cfg.OutPort == "" {
		cfg.OutPort = "response"
	}
	return &LLMFetchNode{name: name, cfg: cfg, client: client}, nil
}

func (n *LLMFetchNode) Name() string { return n.name }

func (n *LLMFetchNode) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.NewInPort(n.cfg.InPort, func(payload any) bool {
			_, ok := payload.(string)
			return ok
		}),
		domain.NewOutPort(n.cfg.OutPort, nil),
	}
}

// OnStart establishes the node-scoped context background requests run
// under, canceled at OnStop.
func (n *LLMFetchNode) OnStart(ctx context.Context, emit ports.Emitter) error {
	n.ctx, n.cancel = context.WithCancel(context.Background())
	return nil
}

// OnMessage spawns a goroutine to call the LLM client and returns without
// waiting for it, so a slow provider never stalls the scheduler loop or
// other nodes' visits.
func (n *LLMFetchNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	if port != n.cfg.InPort {
		return fmt.Errorf("%s: unexpected input port %q", n.name, port)
	}
	prompt, ok := msg.Payload().(string)
	if !ok {
		return domain.NewTypeMismatchError(port, msg.Payload())
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.fetch(prompt, msg, emit)
	}()
	return nil
}

func (n *LLMFetchNode) fetch(prompt string, msg domain.Message, emit ports.Emitter) {
	reqCtx := n.ctx
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, n.cfg.Timeout)
		defer cancel()
	}

	response, err := n.client.Complete(reqCtx, prompt, n.cfg.Options)
	var out domain.Message
	if err != nil {
		out = domain.NewMessage(domain.ErrorKind, err.Error(), msg.Headers())
	} else {
		out = domain.NewMessage(domain.DataKind, response, msg.Headers())
	}
	emit.EmitBlocking(reqCtx, n.cfg.OutPort, out)
}

func (n *LLMFetchNode) OnTick(ctx context.Context, emit ports.Emitter) error { return nil }

// OnStop cancels any in-flight requests and waits for their goroutines to
// return, bounded by ctx's deadline.
func (n *LLMFetchNode) OnStop(ctx context.Context) error {
	n.cancel()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
