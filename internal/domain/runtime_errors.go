package domain

import "fmt"

// InvalidArgumentError reports a caller-supplied argument that violates a
// documented precondition, such as a negative edge capacity or an empty
// node name.
type InvalidArgumentError struct {
	// Argument names the offending parameter.
	Argument string
	// Reason describes why the value was rejected.
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Reason)
}

// NewInvalidArgumentError constructs an InvalidArgumentError.
func NewInvalidArgumentError(argument, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Argument: argument, Reason: reason}
}

// TypeMismatchError reports that a Message payload failed a PortSpec's
// schema predicate.
type TypeMismatchError struct {
	// Port identifies the port whose schema rejected the payload.
	Port string
	// Payload is the rejected value, retained for diagnostics.
	Payload any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on port %q: payload %#v rejected by schema", e.Port, e.Payload)
}

// NewTypeMismatchError constructs a TypeMismatchError.
func NewTypeMismatchError(port string, payload any) *TypeMismatchError {
	return &TypeMismatchError{Port: port, Payload: payload}
}

// NodeError wraps a panic or returned error surfaced from a node's
// lifecycle method, tagging it with the node name and the method that
// failed so the scheduler and logs can attribute it precisely.
type NodeError struct {
	// Node is the failing node's name.
	Node string
	// Method names the lifecycle hook that failed (on_start, on_message,
	// on_tick, on_stop).
	Method string
	// Err is the underlying cause; for a recovered panic this wraps a
	// synthesized error carrying the panic value.
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %s: %v", e.Node, e.Method, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// NewNodeError constructs a NodeError.
func NewNodeError(node, method string, err error) *NodeError {
	return &NodeError{Node: node, Method: method, Err: err}
}

// PolicyError reports a malformed or unsatisfiable overflow policy, such as
// a Coalesce policy configured without a merge function.
type PolicyError struct {
	// Policy names the offending policy kind.
	Policy string
	// Reason describes the defect.
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy %q: %s", e.Policy, e.Reason)
}

// NewPolicyError constructs a PolicyError.
func NewPolicyError(policy, reason string) *PolicyError {
	return &PolicyError{Policy: policy, Reason: reason}
}

// ShutdownTimeoutError reports that the scheduler's Drain phase did not
// reach Stopped within the configured deadline.
type ShutdownTimeoutError struct {
	// Deadline is the configured drain timeout, rendered for diagnostics.
	Deadline string
	// Pending lists nodes that had not yet quiesced when the deadline hit.
	Pending []string
}

func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("shutdown timed out after %s, pending nodes: %v", e.Deadline, e.Pending)
}

// NewShutdownTimeoutError constructs a ShutdownTimeoutError.
func NewShutdownTimeoutError(deadline string, pending []string) *ShutdownTimeoutError {
	return &ShutdownTimeoutError{Deadline: deadline, Pending: pending}
}
