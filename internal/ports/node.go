// Package ports declares the narrow interfaces nodes, the scheduler, and
// observability adapters are built against, keeping the dataflow engine
// decoupled from any one node or backend implementation.
package ports

import (
	"context"
	"time"

	"github.com/meridianhq/meridian-runtime/internal/domain"
)

// Emitter is the capability a Node uses to publish Messages from one of its
// output ports. The scheduler supplies an Emitter scoped to a single node
// for the duration of each lifecycle call; a node must not retain it past
// that call's return.
type Emitter interface {
	// Emit attempts a non-blocking send of msg on the named output port,
	// applying that port's edge overflow Policy. The zero value for port
	// names matching none of the node's declared out ports is a
	// programming error and yields PutResult{Outcome: domain.PutDropped}.
	Emit(port string, msg domain.Message) domain.PutResult

	// EmitBlocking sends msg on the named output port, honoring
	// BlockPolicy's wait semantics up to ctx's deadline. Nodes running
	// inside the cooperative scheduler loop should prefer Emit; EmitBlocking
	// exists for nodes that offload blocking work to their own goroutines
	// (see LLMFetchNode) and must not be called from on_message/on_tick.
	EmitBlocking(ctx context.Context, port string, msg domain.Message) domain.PutResult
}

// Node is the unit of computation in a dataflow graph. Every lifecycle
// method may be called concurrently with itself only for distinct nodes;
// the scheduler guarantees a single node's lifecycle methods never overlap
// with each other in time, so implementations do not need their own
// synchronization for state touched only from these hooks.
type Node interface {
	// Name returns the node's unique identifier within its owning Subgraph.
	Name() string

	// Ports returns the node's declared input and output ports. The
	// scheduler and Subgraph validation use this to check edges against
	// the node's actual surface; it is called once during planning, not on
	// every tick.
	Ports() []domain.PortSpec

	// OnStart is called exactly once before the first OnMessage/OnTick
	// call, after the node has been wired into a running Subgraph. An error
	// here aborts the scheduler's Starting transition for the whole graph.
	OnStart(ctx context.Context, emit Emitter) error

	// OnMessage is called when a message is available on one of the node's
	// input ports. port names which input port it arrived on. Returning an
	// error does not stop the scheduler; it is wrapped in a NodeError and
	// surfaced through the configured Logger/MetricsCollector, and the node
	// continues receiving subsequent messages.
	OnMessage(ctx context.Context, port string, msg domain.Message, emit Emitter) error

	// OnTick is called on the scheduler's tick cadence for nodes that
	// declare a non-zero tick interval, regardless of whether any message
	// arrived. Source nodes with no input ports typically do their work
	// here.
	OnTick(ctx context.Context, emit Emitter) error

	// OnStop is called exactly once during the Draining phase after the
	// node's input edges have been closed and drained. Implementations
	// should release any resources acquired in OnStart.
	OnStop(ctx context.Context) error
}

// TickInterval is implemented by nodes that want OnTick invoked on a
// periodic cadence rather than (or in addition to) message arrival. Nodes
// that do not implement this interface are never ticked.
type TickInterval interface {
	// TickInterval returns a positive duration to opt the node in to
	// OnTick; a non-positive return value disables ticking for that node.
	// The scheduler ticks every opted-in node once per its own tick
	// cadence; the returned value does not set the spacing of OnTick calls.
	TickInterval() time.Duration
}
