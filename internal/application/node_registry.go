package application

import (
	"fmt"
	"sync"

	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// NodeFactory creates a Node from its raw YAML/JSON parameters and an
// optional LLM client (nil for nodes that don't call one).
type NodeFactory func(name string, params map[string]any, llm ports.LLMClient) (ports.Node, error)

// NodeRegistry manages node-type factories and the shared dependencies
// (currently just an LLMClient) handed to them. Thread-safe; the zero value
// is not usable, use NewNodeRegistry.
type NodeRegistry struct {
	mu        sync.RWMutex
	factories map[string]NodeFactory
	llmClient ports.LLMClient
}

// NewNodeRegistry constructs an empty NodeRegistry. Pass nil for llmClient
// if no registered node type needs one.
func NewNodeRegistry(llmClient ports.LLMClient) *NodeRegistry {
	return &NodeRegistry{
		factories: make(map[string]NodeFactory),
		llmClient: llmClient,
	}
}

// Register adds factory under nodeType. Panics on a duplicate nodeType: a
// second registration under the same name is a programming error that
// should fail fast at init time, not surface as a runtime graph-load error.
func (r *NodeRegistry) Register(nodeType string, factory NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[nodeType]; exists {
		panic(fmt.Sprintf("node type %q already registered", nodeType))
	}
	r.factories[nodeType] = factory
}

// CreateNode builds a Node of nodeType named name from params, using the
// registry's shared LLM client.
func (r *NodeRegistry) CreateNode(nodeType, name string, params map[string]any) (ports.Node, error) {
	if name == "" {
		return nil, fmt.Errorf("node name cannot be empty")
	}

	r.mu.RLock()
	factory, exists := r.factories[nodeType]
	llm := r.llmClient
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	return factory(name, params, llm)
}

// SupportedTypes returns every registered node type, safe to mutate.
func (r *NodeRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}
