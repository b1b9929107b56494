// Command meridian loads a dataflow graph from a YAML file and runs it
// until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meridianhq/meridian-runtime/infrastructure/llm"
	"github.com/meridianhq/meridian-runtime/infrastructure/nodes"
	"github.com/meridianhq/meridian-runtime/infrastructure/observability"
	"github.com/meridianhq/meridian-runtime/internal/application"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

func main() {
	var (
		graphPath    = flag.String("graph", "", "path to the graph YAML file (required)")
		llmEnabled   = flag.Bool("llm-enabled", false, "wire an Anthropic-backed LLMClient into llm_fetch nodes; reads ANTHROPIC_API_KEY")
		llmModel     = flag.String("llm-model", "", "model name passed to the LLM client, if enabled")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
		tracerName   = flag.String("tracer-name", "meridian-runtime", "instrumentation name registered with the OpenTelemetry tracer")
		shutdownWait = flag.Duration("shutdown-grace", 10*time.Second, "maximum time to wait for graceful shutdown")
	)
	flag.Parse()

	if *graphPath == "" {
		log.Fatalf("missing required -graph flag")
	}

	logger := observability.NewLogifaceLogger(os.Stderr, parseLogLevel(*logLevel))
	metrics := observability.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	tracer := observability.NewOTelTracer(*tracerName)

	llmClient, err := buildLLMClient(*llmEnabled, *llmModel)
	if err != nil {
		log.Fatalf("configuring LLM client: %v", err)
	}

	registry := application.NewNodeRegistry(llmClient)
	nodes.RegisterBuiltins(registry)

	loader, err := application.NewGraphLoader(registry)
	if err != nil {
		log.Fatalf("initializing graph loader: %v", err)
	}

	loaded, issues, err := loader.LoadFromFile(*graphPath)
	if err != nil {
		log.Fatalf("loading graph %s: %v", *graphPath, err)
	}
	for _, issue := range issues {
		logger.With(map[string]any{"severity": issue.Severity.String(), "code": string(issue.Code), "node": issue.Node}).
			Warn("graph_validation_issue", map[string]any{"message": issue.Message})
	}
	if loaded == nil {
		log.Fatalf("graph %s failed validation", *graphPath)
	}

	cfg := loaded.Scheduler
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = *shutdownWait
	}

	sched := application.New(loaded.Plan, cfg, logger, metrics, tracer)
	for node, band := range loaded.Bands {
		if band != application.NormalBand {
			sched.SetPriority(node, band)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("starting scheduler: %v", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), *shutdownWait)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Fatalf("stopping scheduler: %v", err)
	}
}

func buildLLMClient(enabled bool, model string) (ports.LLMClient, error) {
	if !enabled {
		return nil, nil
	}
	return llm.NewClient("anthropic", llm.ClientConfig{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:  model,
	})
}

func parseLogLevel(level string) logiface.Level {
	switch level {
	case "debug":
		return logiface.LevelDebug
	case "warn":
		return logiface.LevelWarning
	case "error":
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}
