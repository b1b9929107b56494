// Package domain contains pure, dependency-free types for the Meridian
// Runtime dataflow engine: messages, ports, policies, and edges. Nothing in
// this package performs I/O or depends on the scheduler.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"maps"
	"time"
)

// Kind classifies a Message for scheduling and shutdown purposes.
type Kind int

const (
	// DataKind carries ordinary application payloads.
	DataKind Kind = iota
	// ControlKind carries coordination messages (e.g. shutdown, reconfigure)
	// and is eligible for preferential scheduling.
	ControlKind
	// ErrorKind carries a reported failure for downstream handling.
	ErrorKind
)

// String renders the Kind for logging and error messages.
func (k Kind) String() string {
	switch k {
	case DataKind:
		return "DATA"
	case ControlKind:
		return "CONTROL"
	case ErrorKind:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Header keys populated automatically by NewMessage when absent.
const (
	HeaderTraceID   = "trace_id"
	HeaderTimestamp = "timestamp"
)

// Message is an immutable envelope carrying a payload across edges. Once
// constructed, a Message is never mutated in place; header enrichment
// (WithHeaders) returns a new instance sharing no mutable state with the
// original.
type Message struct {
	kind    Kind
	payload any
	headers map[string]any
}

// NewMessage constructs a Message of the given kind carrying payload. If
// headers omits "trace_id" a fresh opaque identifier is generated; if it
// omits "timestamp" the current wall-clock time (seconds, float64) is
// supplied. Construction never fails for well-formed inputs; a nil headers
// map is treated as empty.
func NewMessage(kind Kind, payload any, headers map[string]any) Message {
	merged := make(map[string]any, len(headers)+2)
	maps.Copy(merged, headers)

	if _, ok := merged[HeaderTraceID]; !ok {
		merged[HeaderTraceID] = newTraceID()
	}
	if _, ok := merged[HeaderTimestamp]; !ok {
		merged[HeaderTimestamp] = float64(time.Now().UnixNano()) / 1e9
	}

	return Message{kind: kind, payload: payload, headers: merged}
}

// Kind returns the message's delivery classification.
func (m Message) Kind() Kind { return m.kind }

// Payload returns the carried value. Callers that know the concrete type
// should use a type assertion; Meridian does not impose a generic payload
// type so that PortSpec schemas remain the single validation point.
func (m Message) Payload() any { return m.payload }

// Headers returns a copy of the header map. The returned map is safe to
// mutate without affecting the Message.
func (m Message) Headers() map[string]any {
	return maps.Clone(m.headers)
}

// Header returns a single header value and whether it was present.
func (m Message) Header(key string) (any, bool) {
	v, ok := m.headers[key]
	return v, ok
}

// TraceID returns the message's trace identifier, guaranteed non-empty for
// any Message produced by NewMessage.
func (m Message) TraceID() string {
	if v, ok := m.headers[HeaderTraceID].(string); ok {
		return v
	}
	return ""
}

// Timestamp returns the message's creation time as seconds since the Unix
// epoch, guaranteed > 0 for any Message produced by NewMessage.
func (m Message) Timestamp() float64 {
	if v, ok := m.headers[HeaderTimestamp].(float64); ok {
		return v
	}
	return 0
}

// WithHeaders returns a new Message with extra merged over the existing
// headers (extra wins on key collision). The receiver is left unchanged.
func (m Message) WithHeaders(extra map[string]any) Message {
	merged := maps.Clone(m.headers)
	maps.Copy(merged, extra)
	return Message{kind: m.kind, payload: m.payload, headers: merged}
}

// WithPayload returns a new Message carrying payload in place of the
// receiver's, preserving kind and headers (including trace_id and
// timestamp) unchanged. Used by transform nodes and coalesce merge
// functions that derive one message from another.
func (m Message) WithPayload(payload any) Message {
	return Message{kind: m.kind, payload: payload, headers: m.headers}
}

// IsData reports whether the message is classified as DATA.
func (m Message) IsData() bool { return m.kind == DataKind }

// IsControl reports whether the message is classified as CONTROL.
func (m Message) IsControl() bool { return m.kind == ControlKind }

// IsError reports whether the message is classified as ERROR.
func (m Message) IsError() bool { return m.kind == ErrorKind }

// String renders a compact description for logging.
func (m Message) String() string {
	return fmt.Sprintf("Message{kind=%s, trace_id=%s}", m.kind, m.TraceID())
}

// newTraceID generates an opaque identifier unique with high probability,
// matching the "opaque, unique with high probability" contract of spec §4.1
// without pulling in a UUID dependency for a value that is only ever
// compared for equality, never parsed.
func newTraceID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failure is effectively unrecoverable on any supported
		// platform; fall back to a timestamp-derived value rather than
		// panicking out of a constructor that spec guarantees never fails.
		return fmt.Sprintf("trace-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
