package domain

// Direction distinguishes input from output ports on a node.
type Direction int

const (
	// InPort marks a port that receives messages.
	InPort Direction = iota
	// OutPort marks a port that emits messages.
	OutPort
)

// SchemaFunc validates a Message payload before it is admitted to an edge.
// A nil SchemaFunc accepts every payload.
type SchemaFunc func(payload any) bool

// PortSpec describes one named port on a node: its direction, an optional
// schema predicate applied to outgoing or incoming payloads, and an
// optional default overflow Policy used when an edge attached to this port
// does not specify its own.
type PortSpec struct {
	// Name uniquely identifies the port within its owning node.
	Name string
	// Direction is InPort or OutPort.
	Direction Direction
	// Schema, if non-nil, is applied to every Message payload flowing
	// through this port; a false result yields a TypeMismatchError.
	Schema SchemaFunc
	// DefaultPolicy is used for edges attached to this port when the edge
	// itself specifies no Policy. A zero Policy (BlockPolicy) is used when
	// both are unset.
	DefaultPolicy Policy
}

// NewInPort constructs an input PortSpec with an optional schema.
func NewInPort(name string, schema SchemaFunc) PortSpec {
	return PortSpec{Name: name, Direction: InPort, Schema: schema}
}

// NewOutPort constructs an output PortSpec with an optional schema.
func NewOutPort(name string, schema SchemaFunc) PortSpec {
	return PortSpec{Name: name, Direction: OutPort, Schema: schema}
}

// WithDefaultPolicy returns a copy of the PortSpec with DefaultPolicy set.
func (p PortSpec) WithDefaultPolicy(policy Policy) PortSpec {
	p.DefaultPolicy = policy
	return p
}

// Accepts reports whether payload satisfies the port's schema. A port
// without a schema accepts every payload.
func (p PortSpec) Accepts(payload any) bool {
	if p.Schema == nil {
		return true
	}
	return p.Schema(payload)
}
