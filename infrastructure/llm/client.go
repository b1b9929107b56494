// Package llm implements the ports.LLMClient a dataflow graph's optional
// llm_fetch node calls out to. It wraps Anthropic's Messages API directly:
// a graph node never needs more than one provider per llm_fetch instance,
// so there is no provider registry or middleware chain here, just a client,
// an error taxonomy (errors.go), and a retry decorator (retry_client.go)
// that can wrap any ports.LLMClient including this one.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// DefaultModel is used when ClientConfig.Model is empty.
const DefaultModel = "claude-3-5-sonnet-20241022"

// defaultMaxTokens bounds a completion when the caller's options don't set
// max_tokens explicitly.
const defaultMaxTokens = 1024

// ClientConfig holds the configuration needed to construct a Client.
type ClientConfig struct {
	// APIKey authenticates requests to the Anthropic API.
	APIKey string

	// Model specifies which Claude model to request. Defaults to
	// DefaultModel when empty.
	Model string

	// BaseURL overrides the default API endpoint. Leave empty to use
	// Anthropic's default.
	BaseURL string

	// Timeout bounds a single Complete call beyond whatever deadline the
	// caller's context already carries. Zero means no additional timeout.
	Timeout time.Duration

	// Metrics, when set, receives per-call latency, request counts, and
	// token counts. Nil disables metrics recording.
	Metrics ports.LLMMetricsCollector
}

var _ ports.LLMClient = (*Client)(nil)

// Client implements ports.LLMClient against Anthropic's Messages API.
type Client struct {
	core    anthropic.Client
	model   string
	timeout time.Duration
	metrics ports.LLMMetricsCollector
}

// NewClient constructs a Client for providerType, currently validated
// against "anthropic" only (an empty providerType is also accepted, to
// keep call sites that don't care which provider they're naming simple).
func NewClient(providerType string, config ClientConfig) (ports.LLMClient, error) {
	if providerType != "" && providerType != "anthropic" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		validated, err := validateBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		opts = append(opts, option.WithBaseURL(validated))
	}

	return &Client{
		core:    anthropic.NewClient(opts...),
		model:   model,
		timeout: config.Timeout,
		metrics: config.Metrics,
	}, nil
}

// Complete sends prompt to Claude and returns the generated text, discarding
// token usage information. Equivalent to calling CompleteWithUsage and
// dropping the counts.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends prompt to Claude and returns the generated text
// along with input/output token counts. options may set "max_tokens",
// "model", "temperature" (0 to 1), and "system"; any other keys, including
// "top_p", are ignored.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	params := c.buildParams(prompt, options)

	message, err := c.core.Messages.New(ctx, params)
	elapsed := time.Since(start)

	if err != nil {
		classified := c.classifyError(err)
		c.recordMetrics(elapsed, 0, 0, false)
		return "", 0, 0, classified
	}

	response, tokensIn, tokensOut, err := c.extractResponse(message, prompt)
	c.recordMetrics(elapsed, tokensIn, tokensOut, err == nil)
	return response, tokensIn, tokensOut, err
}

// EstimateTokens returns an approximate token count for text using a
// character-based heuristic (roughly four characters per token for
// English), for callers that need a cheap estimate before calling Complete.
func (c *Client) EstimateTokens(text string) (int, error) {
	if len(text) == 0 {
		return 0, nil
	}
	return (len(text) + 3) / 4, nil
}

// GetModel returns the model identifier this client was configured with.
func (c *Client) GetModel() string { return c.model }

func (c *Client) buildParams(prompt string, options map[string]any) anthropic.MessageNewParams {
	maxTokens := extractOptionalInt(options, "max_tokens", defaultMaxTokens, isPositiveInt)
	model := extractOptionalString(options, "model", c.model, isNonEmptyString)
	system := extractOptionalString(options, "system", "", nil)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if temp := extractOptionalFloat64(options, "temperature", -1, isValidTemperature); temp != -1 {
		params.Temperature = anthropic.Float(temp)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	return params
}

func (c *Client) extractResponse(message *anthropic.Message, prompt string) (string, int, int, error) {
	var text strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	response := text.String()
	if response == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn, _ := c.tokenCount(message.Usage.InputTokens, prompt)
	tokensOut, _ := c.tokenCount(message.Usage.OutputTokens, response)
	return response, tokensIn, tokensOut, nil
}

func (c *Client) tokenCount(apiTokens int64, text string) (int, error) {
	if apiTokens > 0 {
		return int(apiTokens), nil
	}
	return c.EstimateTokens(text)
}

func (c *Client) classifyError(err error) error {
	classifier := &ErrorClassifier{Provider: "anthropic"}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return classifier.ClassifyContextError(err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Error()
		if message == "" {
			message = "unknown error"
		}
		return classifier.ClassifyHTTPError(apiErr.StatusCode, message, err)
	}

	return NewProviderError("anthropic", ErrorTypeUnknown, 0, "request failed", err)
}

func (c *Client) recordMetrics(elapsed time.Duration, tokensIn, tokensOut int, success bool) {
	if c.metrics == nil {
		return
	}

	status := "error"
	if success {
		status = "success"
	}
	labels := map[string]string{"provider": "anthropic", "model": c.model, "status": status}

	c.metrics.RecordLatency("llm_complete", elapsed, labels)
	c.metrics.RecordCounter("llm_requests_total", 1, labels)
	if success {
		c.metrics.RecordCounter("llm_tokens_total", float64(tokensIn), mergeLabel(labels, "token_type", "input"))
		c.metrics.RecordCounter("llm_tokens_total", float64(tokensOut), mergeLabel(labels, "token_type", "output"))
	}
}

func mergeLabel(labels map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out[key] = value
	return out
}

func extractOptionalInt(opts map[string]any, key string, def int, valid func(int) bool) int {
	v, ok := opts[key].(int)
	if !ok || (valid != nil && !valid(v)) {
		return def
	}
	return v
}

func extractOptionalString(opts map[string]any, key string, def string, valid func(string) bool) string {
	v, ok := opts[key].(string)
	if !ok || (valid != nil && !valid(v)) {
		return def
	}
	return v
}

func extractOptionalFloat64(opts map[string]any, key string, def float64, valid func(float64) bool) float64 {
	v, ok := opts[key].(float64)
	if !ok || (valid != nil && !valid(v)) {
		return def
	}
	return v
}

func isPositiveInt(v int) bool { return v > 0 }

func isNonEmptyString(v string) bool { return v != "" }

func isValidTemperature(v float64) bool { return v >= 0.0 && v <= 1.0 }

func validateBaseURL(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, but got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return baseURL, nil
}
