package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// edgeConfig captures one AddEdge call's arguments for later validation and
// flattening into a RuntimePlan; it is kept separate from domain.Edge since
// the Edge itself is only constructed once validation succeeds.
type edgeConfig struct {
	srcNode, srcPort string
	dstNode, dstPort string
	capacity         int
	policy           domain.Policy
}

// exposedPort maps an externally visible name on a Subgraph boundary to the
// inner node/port it refers to.
type exposedPort struct {
	outer string
	node  string
	port  string
}

// Subgraph is a mutable builder for a dataflow graph: a set of named nodes,
// the edges connecting their ports, and optionally a set of ports exposed
// under outer names at the Subgraph's own boundary. Exposed ports are
// checked by Validate and used nowhere else: AddNode accepts only
// ports.Node, so a Subgraph cannot be added to another Subgraph, and Build
// does not carry the exposed names into the RuntimePlan. Validate (and the
// Build it gates) is the only place
// structural correctness is checked; adding nodes/edges never fails
// eagerly, mirroring the teacher graph's "validate at build time" shape
// generalized from single-shot cycle rejection to a full Issue report.
type Subgraph struct {
	mu sync.RWMutex

	name  string
	nodes map[string]ports.Node
	// nodeOrder preserves insertion order so Validate/Build produce
	// deterministic Issue and RuntimePlan ordering independent of map
	// iteration.
	nodeOrder []string

	edges    []edgeConfig
	edgeKeys map[string]struct{}

	exposedIn  map[string]exposedPort
	exposedOut map[string]exposedPort
}

// NewSubgraph constructs an empty Subgraph identified by name for
// diagnostics.
func NewSubgraph(name string) *Subgraph {
	return &Subgraph{
		name:       name,
		nodes:      make(map[string]ports.Node),
		edgeKeys:   make(map[string]struct{}),
		exposedIn:  make(map[string]exposedPort),
		exposedOut: make(map[string]exposedPort),
	}
}

// Name returns the Subgraph's identifier.
func (sg *Subgraph) Name() string { return sg.name }

// AddNode registers a node under its own Name(). Duplicate names are not
// rejected here; they surface as a DUP_NODE error from Validate so that all
// structural problems are reported together rather than failing fast on
// the first one encountered.
func (sg *Subgraph) AddNode(node ports.Node) {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	name := node.Name()
	sg.nodeOrder = append(sg.nodeOrder, name)
	sg.nodes[name] = node
}

// AddEdge records a connection from srcNode's srcPort to dstNode's dstPort
// with the given capacity and overflow policy. Like AddNode, structural
// problems (unknown nodes/ports, duplicate edges, bad capacity) are deferred
// to Validate.
func (sg *Subgraph) AddEdge(srcNode, srcPort, dstNode, dstPort string, capacity int, policy domain.Policy) {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	sg.edges = append(sg.edges, edgeConfig{
		srcNode: srcNode, srcPort: srcPort,
		dstNode: dstNode, dstPort: dstPort,
		capacity: capacity, policy: policy,
	})
}

// ExposeIn records innerNode's innerPort as an input exposed under
// outerName. Validate checks that the target exists; no other API reads
// the mapping.
func (sg *Subgraph) ExposeIn(outerName, innerNode, innerPort string) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.exposedIn[outerName] = exposedPort{outer: outerName, node: innerNode, port: innerPort}
}

// ExposeOut records innerNode's innerPort as an output exposed under
// outerName, with the same limits as ExposeIn.
func (sg *Subgraph) ExposeOut(outerName, innerNode, innerPort string) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.exposedOut[outerName] = exposedPort{outer: outerName, node: innerNode, port: innerPort}
}

// findPort looks up the PortSpec named portName among node's declared
// ports with the given direction.
func findPort(node ports.Node, portName string, dir domain.Direction) (domain.PortSpec, bool) {
	for _, p := range node.Ports() {
		if p.Name == portName && p.Direction == dir {
			return p, true
		}
	}
	return domain.PortSpec{}, false
}

// Validate checks every node, edge, and exposed port for structural
// correctness, returning the full list of findings rather than stopping at
// the first problem. An empty return means the Subgraph is ready for
// Build. Validate never mutates the Subgraph and is safe to call
// repeatedly, e.g. from a config-reload path.
func (sg *Subgraph) Validate() []Issue {
	sg.mu.RLock()
	defer sg.mu.RUnlock()

	var issues []Issue

	seenNames := make(map[string]int)
	for _, name := range sg.nodeOrder {
		seenNames[name]++
		if seenNames[name] == 2 {
			issues = append(issues, newIssue(SeverityError, CodeDupNode, name, "", "node name registered more than once"))
		}
	}

	edgeSeen := make(map[string]struct{})
	adjacency := make(map[string][]string)

	for _, e := range sg.edges {
		srcNode, srcOK := sg.nodes[e.srcNode]
		if !srcOK {
			issues = append(issues, newIssue(SeverityError, CodeUnknownNode, e.srcNode, "", "edge references unknown source node"))
		}
		dstNode, dstOK := sg.nodes[e.dstNode]
		if !dstOK {
			issues = append(issues, newIssue(SeverityError, CodeUnknownNode, e.dstNode, "", "edge references unknown destination node"))
		}

		if srcOK {
			if _, ok := findPort(srcNode, e.srcPort, domain.OutPort); !ok {
				issues = append(issues, newIssue(SeverityError, CodeNoSrcPort, e.srcNode, e.srcPort, "source node has no such output port"))
			}
		}
		if dstOK {
			if _, ok := findPort(dstNode, e.dstPort, domain.InPort); !ok {
				issues = append(issues, newIssue(SeverityError, CodeNoDstPort, e.dstNode, e.dstPort, "destination node has no such input port"))
			}
		}

		if e.capacity <= 0 {
			issues = append(issues, newIssue(SeverityError, CodeBadCapacity, e.srcNode, e.srcPort,
				fmt.Sprintf("edge capacity must be positive, got %d", e.capacity)))
		}
		if err := e.policy.Validate(); err != nil {
			issues = append(issues, newIssue(SeverityError, CodeBadCapacity, e.srcNode, e.srcPort, err.Error()))
		}

		key := e.srcNode + ":" + e.srcPort + "->" + e.dstNode + ":" + e.dstPort
		if _, dup := edgeSeen[key]; dup {
			issues = append(issues, newIssue(SeverityError, CodeDupEdge, e.srcNode, e.srcPort, "duplicate edge: "+key))
		}
		edgeSeen[key] = struct{}{}

		if srcOK && dstOK {
			adjacency[e.srcNode] = append(adjacency[e.srcNode], e.dstNode)
		}
	}

	issues = append(issues, sg.validateExposed(sg.exposedIn, domain.InPort, CodeDupExposeIn, CodeBadExposeIn)...)
	issues = append(issues, sg.validateExposed(sg.exposedOut, domain.OutPort, CodeDupExposeOut, CodeBadExposeOut)...)

	if cyclePath, found := detectCycle(sg.nodeOrder, adjacency); found {
		issues = append(issues, newIssue(SeverityWarning, CodeCycleWarn, "", "",
			fmt.Sprintf("cycle detected: %v (safe only if every edge in the cycle uses a non-blocking policy, or at least one starts with spare capacity)", cyclePath)))
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity < issues[j].Severity
	})

	return issues
}

func (sg *Subgraph) validateExposed(exposed map[string]exposedPort, dir domain.Direction, dupCode, badCode Code) []Issue {
	var issues []Issue
	seen := make(map[string]int)
	for outer := range exposed {
		seen[outer]++
	}
	for outer, count := range seen {
		if count > 1 {
			issues = append(issues, newIssue(SeverityError, dupCode, "", outer, "exposed port name registered more than once"))
		}
	}
	outers := make([]string, 0, len(exposed))
	for outer := range exposed {
		outers = append(outers, outer)
	}
	sort.Strings(outers)
	for _, outer := range outers {
		ep := exposed[outer]
		node, ok := sg.nodes[ep.node]
		if !ok {
			issues = append(issues, newIssue(SeverityError, badCode, ep.node, outer, "exposed port references unknown node"))
			continue
		}
		if _, ok := findPort(node, ep.port, dir); !ok {
			issues = append(issues, newIssue(SeverityError, badCode, ep.node, outer, "exposed port references a port the node does not declare"))
		}
	}
	return issues
}

// detectCycle runs DFS with three-color node marking over adjacency,
// returning the first back-edge cycle found, if any. order fixes the
// iteration order for deterministic results across calls.
func detectCycle(order []string, adjacency map[string][]string) ([]string, bool) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(order))
	for _, n := range order {
		color[n] = white
	}

	var path []string
	var cycle []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		color[node] = gray
		path = append(path, node)

		for _, next := range adjacency[node] {
			switch color[next] {
			case gray:
				cycle = append(append([]string{}, path...), next)
				return true
			case white:
				if dfs(next) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		color[node] = black
		return false
	}

	for _, n := range order {
		if color[n] == white {
			if dfs(n) {
				return cycle, true
			}
		}
	}
	return nil, false
}
