package application

import (
	"time"

	"gopkg.in/yaml.v3"
)

// GraphConfig is the top-level YAML document describing a dataflow graph:
// its scheduler tuning, its nodes, and the edges connecting them. Use
// GraphConfig as the entry point for loading a graph declaratively instead
// of wiring a Subgraph by hand in Go.
type GraphConfig struct {
	// Version pins the configuration schema for forward compatibility.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata carries descriptive, non-structural information about the
	// graph.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Scheduler tunes the cooperative run loop that will execute this
	// graph; zero-valued fields fall back to DefaultConfig at build time.
	Scheduler SchedulerConfig `yaml:"scheduler"`
	// Nodes defines every node to instantiate via the NodeRegistry.
	Nodes []NodeConfig `yaml:"nodes" validate:"required,min=1,dive"`
	// Edges connects node ports with a bounded, typed queue.
	Edges []EdgeConfig `yaml:"edges" validate:"dive"`
}

// Metadata provides descriptive information about a graph for discovery and
// operational tooling; none of its fields affect execution.
type Metadata struct {
	// Name is the graph's human-readable identifier.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description documents the graph's purpose.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags enables filtering and grouping of graphs in external tooling.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs for integration with external
	// systems.
	Labels map[string]string `yaml:"labels" validate:"max=50"`
}

// SchedulerConfig is the YAML-decodable shape of Config; ToConfig merges it
// onto DefaultConfig so an omitted field keeps its default rather than
// zeroing it out.
type SchedulerConfig struct {
	// FairnessRatio weights how often the scheduler visits each priority
	// band per round; all-zero keeps DefaultFairnessRatio.
	FairnessRatio FairnessRatioConfig `yaml:"fairness_ratio"`
	// BatchQuotaMessages caps how many messages one node is delivered per
	// visit.
	BatchQuotaMessages int `yaml:"batch_quota_messages" validate:"omitempty,min=1,max=100000"`
	// TickCadenceMillis is the interval between OnTick passes, in
	// milliseconds.
	TickCadenceMillis int `yaml:"tick_cadence_ms" validate:"omitempty,min=1,max=3600000"`
	// IdleSleepMillis is how long the run loop sleeps when nothing is
	// ready, in milliseconds.
	IdleSleepMillis int `yaml:"idle_sleep_ms" validate:"omitempty,min=0,max=60000"`
	// ShutdownTimeoutSeconds bounds how long Stop waits for edges to drain.
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds" validate:"omitempty,min=0,max=3600"`
	// StartConcurrency bounds concurrent OnStart/OnStop calls; zero means
	// unlimited.
	StartConcurrency int `yaml:"start_concurrency" validate:"omitempty,min=0,max=10000"`
}

// FairnessRatioConfig is the YAML shape of FairnessRatio.
type FairnessRatioConfig struct {
	Control int `yaml:"control" validate:"omitempty,min=0,max=1000"`
	High    int `yaml:"high" validate:"omitempty,min=0,max=1000"`
	Normal  int `yaml:"normal" validate:"omitempty,min=0,max=1000"`
}

// isZero reports whether every field of a SchedulerConfig was left at its
// YAML zero value, meaning the caller expressed no preference at all.
func (c SchedulerConfig) isZero() bool {
	return c.FairnessRatio == (FairnessRatioConfig{}) &&
		c.BatchQuotaMessages == 0 &&
		c.TickCadenceMillis == 0 &&
		c.IdleSleepMillis == 0 &&
		c.ShutdownTimeoutSeconds == 0 &&
		c.StartConcurrency == 0
}

// ToConfig converts the YAML-decoded SchedulerConfig into a Config, filling
// every field left at its zero value from DefaultConfig.
func (c SchedulerConfig) ToConfig() Config {
	cfg := DefaultConfig()
	if c.isZero() {
		return cfg
	}
	if c.FairnessRatio != (FairnessRatioConfig{}) {
		cfg.Fairness = FairnessRatio{
			Control: c.FairnessRatio.Control,
			High:    c.FairnessRatio.High,
			Normal:  c.FairnessRatio.Normal,
		}
	}
	if c.BatchQuotaMessages > 0 {
		cfg.BatchQuota = c.BatchQuotaMessages
	}
	if c.TickCadenceMillis > 0 {
		cfg.TickCadence = time.Duration(c.TickCadenceMillis) * time.Millisecond
	}
	if c.IdleSleepMillis > 0 {
		cfg.IdleSleep = time.Duration(c.IdleSleepMillis) * time.Millisecond
	}
	if c.ShutdownTimeoutSeconds > 0 {
		cfg.ShutdownTimeout = time.Duration(c.ShutdownTimeoutSeconds) * time.Second
	}
	cfg.StartConcurrency = c.StartConcurrency
	return cfg
}

// NodeConfig defines the specification for a single node within a graph,
// deferring its actual construction to a NodeRegistry keyed by Type.
type NodeConfig struct {
	// ID is the node's unique name within the graph, used to address it
	// from EdgeConfig.From/To.
	ID string `yaml:"id" validate:"required,alphanum,min=1,max=100"`
	// Type selects the NodeFactory to invoke; built-in types are
	// registered by infrastructure/nodes.RegisterBuiltins.
	Type string `yaml:"type" validate:"required"`
	// Band assigns the node's scheduler priority lane; empty defaults to
	// "normal".
	Band string `yaml:"band" validate:"omitempty,bandname"`
	// Parameters contains type-specific configuration, decoded into
	// map[string]any and handed to the node's NodeFactory.
	Parameters yaml.Node `yaml:"parameters"`
}

// EdgeConfig establishes a directed, bounded connection between two node
// ports.
type EdgeConfig struct {
	// From identifies the source node.
	From string `yaml:"from" validate:"required,alphanum"`
	// FromPort names the source node's output port.
	FromPort string `yaml:"from_port" validate:"required"`
	// To identifies the destination node.
	To string `yaml:"to" validate:"required,alphanum"`
	// ToPort names the destination node's input port.
	ToPort string `yaml:"to_port" validate:"required"`
	// Capacity bounds how many messages the edge's queue holds before its
	// overflow Policy engages.
	Capacity int `yaml:"capacity" validate:"required,min=1,max=1000000"`
	// Policy selects the overflow behavior: block, drop, latest, or
	// coalesce.
	Policy PolicyConfig `yaml:"policy" validate:"required"`
}

// PolicyConfig is the YAML shape of a domain.Policy. Kind selects the
// behavior; Merge names a registered MergeFunc and is used only when Kind
// is "coalesce". The edgepolicy validator checks Kind only; the graph
// loader rejects a coalesce policy whose Merge is empty or unregistered.
type PolicyConfig struct {
	Kind  string `yaml:"kind" validate:"required,edgepolicy"`
	Merge string `yaml:"merge,omitempty"`
}
