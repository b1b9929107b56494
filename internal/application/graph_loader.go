package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/meridianhq/meridian-runtime/internal/domain"
)

// LoadedGraph is the fully resolved result of loading a GraphConfig
// document: a buildable RuntimePlan, the scheduler tuning it requested, and
// the priority band each node asked for (applied via Scheduler.SetPriority
// after New, since a Subgraph itself has no notion of bands).
type LoadedGraph struct {
	Plan      *RuntimePlan
	Scheduler Config
	Bands     map[string]Band
}

// GraphLoader parses GraphConfig YAML documents into built LoadedGraphs,
// validating structure and caching the result by content hash so repeated
// loads of an unchanged file are free.
type GraphLoader struct {
	validator *validator.Validate
	registry  *NodeRegistry

	cacheMu sync.RWMutex
	cache   map[string]*LoadedGraph

	sf singleflight.Group
}

// NewGraphLoader constructs a GraphLoader that instantiates nodes through
// registry.
func NewGraphLoader(registry *NodeRegistry) (*GraphLoader, error) {
	v := validator.New()
	if err := RegisterGraphValidators(v); err != nil {
		return nil, fmt.Errorf("registering graph validators: %w", err)
	}
	return &GraphLoader{
		validator: v,
		registry:  registry,
		cache:     make(map[string]*LoadedGraph),
	}, nil
}

// LoadFromFile reads, parses, validates, and builds the graph at path.
func (gl *GraphLoader) LoadFromFile(path string) (*LoadedGraph, []Issue, error) {
	clean := filepath.Clean(path)
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, nil, fmt.Errorf("reading graph file %s: %w", clean, err)
	}
	return gl.load(data)
}

// LoadFromReader reads, parses, validates, and builds the graph from r.
func (gl *GraphLoader) LoadFromReader(r io.Reader) (*LoadedGraph, []Issue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading graph: %w", err)
	}
	return gl.load(data)
}

// ClearCache discards every cached LoadedGraph, forcing the next load of
// any content hash to rebuild from scratch.
func (gl *GraphLoader) ClearCache() {
	gl.cacheMu.Lock()
	defer gl.cacheMu.Unlock()
	gl.cache = make(map[string]*LoadedGraph)
}

// load runs the full parse -> validate -> build pipeline, deduping
// concurrent loads of identical content via singleflight and caching the
// resulting LoadedGraph by its content hash.
func (gl *GraphLoader) load(data []byte) (*LoadedGraph, []Issue, error) {
	hash := contentHash(data)

	if lg, ok := gl.getCached(hash); ok {
		return lg, nil, nil
	}

	type result struct {
		graph  *LoadedGraph
		issues []Issue
	}

	v, err, _ := gl.sf.Do(hash, func() (any, error) {
		if lg, ok := gl.getCached(hash); ok {
			return result{graph: lg}, nil
		}

		cfg, err := parseGraphYAML(data)
		if err != nil {
			return nil, err
		}
		if err := gl.validator.Struct(cfg); err != nil {
			return nil, fmt.Errorf("graph config validation: %w", err)
		}

		sg, bands, err := gl.buildSubgraph(cfg)
		if err != nil {
			return nil, err
		}

		plan, issues := sg.Build()
		if HasErrors(issues) {
			return result{issues: issues}, nil
		}

		lg := &LoadedGraph{Plan: plan, Scheduler: cfg.Scheduler.ToConfig(), Bands: bands}
		gl.cacheGraph(hash, lg)
		return result{graph: lg, issues: issues}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	r := v.(result)
	return r.graph, r.issues, nil
}

// parseGraphYAML strictly decodes data into a GraphConfig, rejecting any
// field not present in the schema rather than silently ignoring it.
func parseGraphYAML(data []byte) (*GraphConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg GraphConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing graph YAML: %w", err)
	}
	return &cfg, nil
}

// buildSubgraph instantiates every NodeConfig through the registry, assigns
// priority bands, decodes edge policies, and wires the resulting Subgraph.
// Structural correctness (duplicate IDs, dangling edges, bad capacities) is
// left to the caller's subsequent Subgraph.Build call rather than
// duplicated here.
func (gl *GraphLoader) buildSubgraph(cfg *GraphConfig) (*Subgraph, map[string]Band, error) {
	sg := NewSubgraph(cfg.Metadata.Name)

	bands := make(map[string]Band, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		params, err := decodeParameters(nc.Parameters)
		if err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", nc.ID, err)
		}

		node, err := gl.registry.CreateNode(nc.Type, nc.ID, params)
		if err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", nc.ID, err)
		}

		sg.AddNode(node)
		bands[nc.ID] = parseBand(nc.Band)
	}

	for _, ec := range cfg.Edges {
		policy, err := gl.resolvePolicy(ec.Policy)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %s:%s -> %s:%s: %w", ec.From, ec.FromPort, ec.To, ec.ToPort, err)
		}
		sg.AddEdge(ec.From, ec.FromPort, ec.To, ec.ToPort, ec.Capacity, policy)
	}

	return sg, bands, nil
}

// resolvePolicy converts a PolicyConfig into a domain.Policy, looking up a
// named MergeFunc for a coalesce policy in the package-level merge
// registry.
func (gl *GraphLoader) resolvePolicy(pc PolicyConfig) (domain.Policy, error) {
	switch pc.Kind {
	case "block":
		return domain.Block(), nil
	case "drop":
		return domain.Drop(), nil
	case "latest":
		return domain.Latest(), nil
	case "coalesce":
		merge, ok := lookupMergeFunc(pc.Merge)
		if !ok {
			return domain.Policy{}, fmt.Errorf("unknown merge function %q", pc.Merge)
		}
		return domain.Coalesce(merge), nil
	default:
		return domain.Policy{}, fmt.Errorf("unknown policy kind %q", pc.Kind)
	}
}

// decodeParameters converts a node's raw yaml.Node parameters into a loose
// map, the shape every NodeFactory expects.
func decodeParameters(params yaml.Node) (map[string]any, error) {
	if params.Kind == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := params.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding parameters: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func (gl *GraphLoader) getCached(hash string) (*LoadedGraph, bool) {
	gl.cacheMu.RLock()
	defer gl.cacheMu.RUnlock()
	lg, ok := gl.cache[hash]
	return lg, ok
}

func (gl *GraphLoader) cacheGraph(hash string, lg *LoadedGraph) {
	gl.cacheMu.Lock()
	defer gl.cacheMu.Unlock()
	gl.cache[hash] = lg
}

// contentHash returns the canonical hash GraphLoader uses as a cache key.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
