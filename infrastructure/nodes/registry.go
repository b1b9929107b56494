package nodes

import (
	"fmt"
	"time"

	"github.com/meridianhq/meridian-runtime/internal/application"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// RegisterBuiltins registers every nodes.* type whose behavior is fully
// described by declarative parameters (as opposed to GeneratorNode,
// MapNode, and FilterNode, whose core logic is an arbitrary Go closure and
// so cannot be constructed from YAML/JSON alone).
func RegisterBuiltins(r *application.NodeRegistry) {
	r.Register("rate_limiter", newRateLimiterNodeFromParams)
	r.Register("fanout", newFanoutNodeFromParams)
	r.Register("merge", newMergeNodeFromParams)
	r.Register("llm_fetch", newLLMFetchNodeFromParams)
}

func newRateLimiterNodeFromParams(name string, params map[string]any, _ ports.LLMClient) (ports.Node, error) {
	cfg := RateLimiterNodeConfig{
		InPort:  stringParam(params, "in_port", ""),
		OutPort: stringParam(params, "out_port", ""),
		Burst:   intParam(params, "burst", 0),
	}
	rate, ok := floatParam(params, "rate_per_second")
	if !ok {
		return nil, fmt.Errorf("rate_limiter node %q: missing required parameter rate_per_second", name)
	}
	cfg.RatePerSecond = rate
	return NewRateLimiterNode(name, cfg)
}

func newFanoutNodeFromParams(name string, params map[string]any, _ ports.LLMClient) (ports.Node, error) {
	outPorts, err := stringSliceParam(params, "out_ports")
	if err != nil {
		return nil, fmt.Errorf("fanout node %q: %w", name, err)
	}
	return NewFanoutNode(name, FanoutNodeConfig{
		InPort:   stringParam(params, "in_port", ""),
		OutPorts: outPorts,
	})
}

func newMergeNodeFromParams(name string, params map[string]any, _ ports.LLMClient) (ports.Node, error) {
	inPorts, err := stringSliceParam(params, "in_ports")
	if err != nil {
		return nil, fmt.Errorf("merge node %q: %w", name, err)
	}
	return NewMergeNode(name, MergeNodeConfig{
		InPorts: inPorts,
		OutPort: stringParam(params, "out_port", ""),
	})
}

func newLLMFetchNodeFromParams(name string, params map[string]any, llm ports.LLMClient) (ports.Node, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm_fetch node %q: no LLMClient configured on the registry", name)
	}
	cfg := LLMFetchNodeConfig{
		InPort:  stringParam(params, "in_port", ""),
		OutPort: stringParam(params, "out_port", ""),
	}
	if options, ok := params["options"].(map[string]any); ok {
		cfg.Options = options
	}
	if seconds, ok := intParamOK(params, "timeout_seconds"); ok {
		cfg.Timeout = time.Duration(seconds) * time.Second
	}
	return NewLLMFetchNode(name, cfg, llm)
}

func stringParam(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func intParam(params map[string]any, key string, def int) int {
	v, ok := intParamOK(params, key)
	if !ok {
		return def
	}
	return v
}

func intParamOK(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringSliceParam(params map[string]any, key string) ([]string, error) {
	raw, ok := params[key].([]any)
	if !ok {
		return nil, fmt.Errorf("missing required parameter %s", key)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %s must be a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
