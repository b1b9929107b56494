package application

import (
	"fmt"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// PlannedEdge is one row of a RuntimePlan's flattened edge table: a
// constructed domain.Edge plus the node names it connects, resolved from a
// Subgraph's edgeConfig entries.
type PlannedEdge struct {
	Edge    *domain.Edge
	SrcNode string
	SrcPort string
	DstNode string
	DstPort string

	// DstSchema is the destination port's schema predicate, resolved once
	// at Build time so the scheduler's emit path can validate a payload
	// before admitting it to Edge, rather than discovering a mismatch only
	// when the destination node tries to use it. Nil means the destination
	// port declared no schema and accepts anything.
	DstSchema domain.SchemaFunc
}

// RuntimePlan is the flattened, immutable result of building a validated
// Subgraph: every node in a single table, every edge constructed and keyed
// by its deterministic ID, and the reverse index the scheduler needs to
// find a node's inbound/outbound edges in O(1). The scheduler never sees
// Subgraph boundaries, only flat nodes and edges; a Subgraph's exposed
// ports are not carried into the plan.
type RuntimePlan struct {
	Nodes []ports.Node
	Edges []*PlannedEdge

	nodeByName     map[string]ports.Node
	edgeByID       map[string]*PlannedEdge
	inEdgesByNode  map[string][]*PlannedEdge
	outEdgesByNode map[string][]*PlannedEdge
}

// Build validates the Subgraph and, if no error-severity Issue is found,
// flattens it into a RuntimePlan. Build returns the validation issues
// either way so a caller can inspect warnings (e.g. CYCLE_WARN) even on
// success; when HasErrors(issues) is true the returned *RuntimePlan is nil.
func (sg *Subgraph) Build() (*RuntimePlan, []Issue) {
	issues := sg.Validate()
	if HasErrors(issues) {
		return nil, issues
	}

	sg.mu.RLock()
	defer sg.mu.RUnlock()

	plan := &RuntimePlan{
		nodeByName:     make(map[string]ports.Node, len(sg.nodeOrder)),
		edgeByID:       make(map[string]*PlannedEdge, len(sg.edges)),
		inEdgesByNode:  make(map[string][]*PlannedEdge),
		outEdgesByNode: make(map[string][]*PlannedEdge),
	}

	for _, name := range sg.nodeOrder {
		node := sg.nodes[name]
		plan.Nodes = append(plan.Nodes, node)
		plan.nodeByName[name] = node
	}

	for _, e := range sg.edges {
		edge := domain.NewEdge(e.srcNode, e.srcPort, e.dstNode, e.dstPort, e.capacity, e.policy)

		var schema domain.SchemaFunc
		if dstNode, ok := sg.nodes[e.dstNode]; ok {
			if spec, ok := findPort(dstNode, e.dstPort, domain.InPort); ok {
				schema = spec.Schema
			}
		}

		pe := &PlannedEdge{
			Edge:      edge,
			SrcNode:   e.srcNode,
			SrcPort:   e.srcPort,
			DstNode:   e.dstNode,
			DstPort:   e.dstPort,
			DstSchema: schema,
		}
		plan.Edges = append(plan.Edges, pe)
		plan.edgeByID[edge.ID()] = pe
		plan.outEdgesByNode[e.srcNode] = append(plan.outEdgesByNode[e.srcNode], pe)
		plan.inEdgesByNode[e.dstNode] = append(plan.inEdgesByNode[e.dstNode], pe)
	}

	return plan, issues
}

// Node looks up a planned node by name.
func (p *RuntimePlan) Node(name string) (ports.Node, bool) {
	n, ok := p.nodeByName[name]
	return n, ok
}

// Edge looks up a planned edge by its deterministic ID
// ("<src_node>:<src_port>-><dst_node>:<dst_port>").
func (p *RuntimePlan) Edge(id string) (*PlannedEdge, bool) {
	e, ok := p.edgeByID[id]
	return e, ok
}

// InEdges returns the edges delivering into nodeName, in the order they
// were added to the originating Subgraph.
func (p *RuntimePlan) InEdges(nodeName string) []*PlannedEdge {
	return p.inEdgesByNode[nodeName]
}

// OutEdges returns the edges originating from nodeName, in the order they
// were added to the originating Subgraph.
func (p *RuntimePlan) OutEdges(nodeName string) []*PlannedEdge {
	return p.outEdgesByNode[nodeName]
}

// String renders a compact multi-line summary useful for debugging a
// loaded graph before starting the scheduler.
func (p *RuntimePlan) String() string {
	s := fmt.Sprintf("RuntimePlan{%d nodes, %d edges}\n", len(p.Nodes), len(p.Edges))
	for _, n := range p.Nodes {
		s += fmt.Sprintf("  node %s\n", n.Name())
	}
	for _, e := range p.Edges {
		s += fmt.Sprintf("  edge %s [cap=%d policy=%s]\n", e.Edge.ID(), e.Edge.Capacity(), e.Edge.Policy().Kind)
	}
	return s
}
