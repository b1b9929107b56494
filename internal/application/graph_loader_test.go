package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

func newTestNodeRegistry() *NodeRegistry {
	r := NewNodeRegistry(nil)
	r.Register("stub_source", func(name string, params map[string]any, llm ports.LLMClient) (ports.Node, error) {
		return &stubNode{name: name, portSpecs: []domain.PortSpec{domain.NewOutPort("out", nil)}}, nil
	})
	r.Register("stub_sink", func(name string, params map[string]any, llm ports.LLMClient) (ports.Node, error) {
		return &stubNode{name: name, portSpecs: []domain.PortSpec{domain.NewInPort("in", nil)}}, nil
	})
	return r
}

const validGraphYAML = `
version: "1.0.0"
metadata:
  name: demo
nodes:
  - id: source
    type: stub_source
  - id: sink
    type: stub_sink
edges:
  - from: source
    from_port: out
    to: sink
    to_port: in
    capacity: 8
    policy:
      kind: block
`

func TestGraphLoader_LoadFromReader_BuildsRuntimePlan(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	lg, issues, err := gl.LoadFromReader(strings.NewReader(validGraphYAML))
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.NotNil(t, lg)

	_, ok := lg.Plan.Node("source")
	assert.True(t, ok)
	_, ok = lg.Plan.Node("sink")
	assert.True(t, ok)
	assert.Len(t, lg.Plan.Edges, 1)
}

func TestGraphLoader_LoadFromReader_CachesByContentHash(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	lg1, _, err := gl.LoadFromReader(strings.NewReader(validGraphYAML))
	require.NoError(t, err)

	lg2, _, err := gl.LoadFromReader(strings.NewReader(validGraphYAML))
	require.NoError(t, err)

	assert.Same(t, lg1, lg2)
}

func TestGraphLoader_ClearCache_ForcesRebuild(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	lg1, _, err := gl.LoadFromReader(strings.NewReader(validGraphYAML))
	require.NoError(t, err)

	gl.ClearCache()

	lg2, _, err := gl.LoadFromReader(strings.NewReader(validGraphYAML))
	require.NoError(t, err)

	assert.NotSame(t, lg1, lg2)
}

func TestGraphLoader_LoadFromReader_ResolvesNodeBands(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	doc := `
version: "1.0.0"
metadata:
  name: demo
nodes:
  - id: source
    type: stub_source
    band: control
  - id: sink
    type: stub_sink
edges:
  - from: source
    from_port: out
    to: sink
    to_port: in
    capacity: 4
    policy:
      kind: block
`
	lg, issues, err := gl.LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, ControlBand, lg.Bands["source"])
	assert.Equal(t, NormalBand, lg.Bands["sink"])
}

func TestGraphLoader_LoadFromReader_RejectsUnknownYAMLFields(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	doc := validGraphYAML + "\nbogus_field: true\n"
	_, _, err = gl.LoadFromReader(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestGraphLoader_LoadFromReader_RejectsUnknownNodeType(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	doc := `
version: "1.0.0"
metadata:
  name: demo
nodes:
  - id: source
    type: does_not_exist
`
	_, _, err = gl.LoadFromReader(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestGraphLoader_LoadFromReader_ReportsIssuesOnDanglingEdge(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	doc := `
version: "1.0.0"
metadata:
  name: demo
nodes:
  - id: source
    type: stub_source
edges:
  - from: source
    from_port: out
    to: missing
    to_port: in
    capacity: 4
    policy:
      kind: block
`
	lg, issues, err := gl.LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Nil(t, lg)
	require.NotEmpty(t, issues)
	assert.Equal(t, CodeUnknownNode, issues[0].Code)
}

func TestGraphLoader_LoadFromReader_ResolvesCoalesceMergeFunc(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	doc := `
version: "1.0.0"
metadata:
  name: demo
nodes:
  - id: source
    type: stub_source
  - id: sink
    type: stub_sink
edges:
  - from: source
    from_port: out
    to: sink
    to_port: in
    capacity: 4
    policy:
      kind: coalesce
      merge: sum
`
	lg, issues, err := gl.LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, lg.Plan.Edges, 1)
	assert.Equal(t, domain.CoalescePolicy, lg.Plan.Edges[0].Edge.Policy().Kind)
}

func TestGraphLoader_LoadFromReader_RejectsUnknownMergeFuncName(t *testing.T) {
	gl, err := NewGraphLoader(newTestNodeRegistry())
	require.NoError(t, err)

	doc := `
version: "1.0.0"
metadata:
  name: demo
nodes:
  - id: source
    type: stub_source
  - id: sink
    type: stub_sink
edges:
  - from: source
    from_port: out
    to: sink
    to_port: in
    capacity: 4
    policy:
      kind: coalesce
      merge: does_not_exist
`
	_, _, err = gl.LoadFromReader(strings.NewReader(doc))
	assert.Error(t, err)
}
