package application

import "fmt"

// Severity classifies an Issue found during Subgraph validation.
type Severity int

const (
	// SeverityError marks an Issue that prevents a Subgraph from being
	// built into a RuntimePlan.
	SeverityError Severity = iota
	// SeverityWarning marks an Issue that is surfaced to the caller but
	// does not block building the plan.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Code identifies the specific rule an Issue violates.
type Code string

// Validation codes of Subgraph.Validate. Validate does not compare port
// schemas, so it never reports CodeTypeMismatch.
const (
	CodeDupNode      Code = "DUP_NODE"
	CodeUnknownNode  Code = "UNKNOWN_NODE"
	CodeNoSrcPort    Code = "NO_SRC_PORT"
	CodeNoDstPort    Code = "NO_DST_PORT"
	CodeBadCapacity  Code = "BAD_CAP"
	CodeDupEdge      Code = "DUP_EDGE"
	CodeTypeMismatch Code = "TYPE_MISMATCH"
	CodeDupExposeIn  Code = "DUP_EXPOSE_IN"
	CodeDupExposeOut Code = "DUP_EXPOSE_OUT"
	CodeBadExposeIn  Code = "BAD_EXPOSE_IN"
	CodeBadExposeOut Code = "BAD_EXPOSE_OUT"
	CodeCycleWarn    Code = "CYCLE_WARN"
)

// Issue is a single finding from Subgraph.Validate, carrying enough context
// to locate and explain the problem without needing to re-walk the graph.
type Issue struct {
	Severity Severity
	Code     Code
	Node     string
	Port     string
	Message  string
}

func (i Issue) String() string {
	loc := i.Node
	if i.Port != "" {
		loc = fmt.Sprintf("%s:%s", i.Node, i.Port)
	}
	return fmt.Sprintf("[%s] %s %s: %s", i.Severity, i.Code, loc, i.Message)
}

// newIssue is a small constructor to keep call sites in subgraph.go terse.
func newIssue(sev Severity, code Code, node, port, msg string) Issue {
	return Issue{Severity: sev, Code: code, Node: node, Port: port, Message: msg}
}

// HasErrors reports whether any Issue in issues is an error (as opposed to
// a warning); Subgraph.Build refuses to proceed when this is true.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
