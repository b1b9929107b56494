// Package application wires domain types into a runnable graph: Subgraph
// composition and validation, RuntimePlan flattening, and the cooperative
// Scheduler that drives nodes to completion.
//
// Cycle liveness: a cycle composed entirely of Drop, Latest, or Coalesce
// edges cannot deadlock, since none of those policies ever blocks a
// producer. A cycle containing a Block edge can deadlock unless at least
// one edge in the cycle starts with spare capacity, giving the scheduler
// room to make progress around the loop before any edge in it fills.
// Subgraph.Validate's CYCLE_WARN issue flags every cycle for this reason;
// it is a warning rather than an error because many cycles (e.g. an
// acknowledgement path back to a rate-limiting source) are intentional and
// safe.
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// State identifies where a Scheduler is in its lifecycle.
type State int

const (
	// Created is the initial state before Start is called.
	Created State = iota
	// Starting is entered by Start while node OnStart hooks run.
	Starting
	// Running is entered once every node has started successfully; the
	// scheduler's cooperative run loop is active.
	Running
	// Draining is entered by Stop: source edges are closed and queued
	// messages are delivered until every edge empties or the shutdown
	// timeout elapses.
	Draining
	// Stopped is the terminal state; every node's OnStop has been called.
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config controls the Scheduler's cooperative run loop.
type Config struct {
	// Fairness configures the weighted round-robin split across priority
	// bands. The zero value is replaced with DefaultFairnessRatio.
	Fairness FairnessRatio
	// BatchQuota is the maximum number of messages delivered to a node per
	// visit before the scheduler moves on to the next node, bounding how
	// long one busy node can monopolize the run loop.
	BatchQuota int
	// TickCadence is the interval at which nodes implementing
	// ports.TickInterval have OnTick invoked, checked on every run-loop
	// iteration, after that iteration's node visit.
	TickCadence time.Duration
	// IdleSleep is how long the run loop sleeps when no node has any work,
	// avoiding a busy spin while still noticing new work promptly.
	IdleSleep time.Duration
	// ShutdownTimeout bounds how long Stop waits for edges to drain before
	// giving up and returning a ShutdownTimeoutError.
	ShutdownTimeout time.Duration
	// StartConcurrency bounds how many nodes' OnStart/OnStop hooks run
	// concurrently; zero means unlimited.
	StartConcurrency int
}

// DefaultConfig returns a Config with conservative, broadly applicable
// defaults.
func DefaultConfig() Config {
	return Config{
		Fairness:        DefaultFairnessRatio(),
		BatchQuota:      16,
		TickCadence:     50 * time.Millisecond,
		IdleSleep:       time.Millisecond,
		ShutdownTimeout: 10 * time.Second,
	}
}

// mutation is a pending scheduler reconfiguration applied at the next
// iteration boundary rather than immediately, so SetPriority/SetCapacity
// never race with an in-flight node visit.
type mutation func(s *Scheduler)

// Scheduler cooperatively drives every node in a RuntimePlan to completion.
// Its run loop is a single logical thread of control: OnMessage and OnTick
// calls run one at a time, the next node chosen by a PriorityQueue honoring
// band fairness. OnStart (in Start) and OnStop (in Stop) are not
// serialized: they run for all nodes concurrently, bounded only by
// Config.StartConcurrency, in no topological order.
type Scheduler struct {
	plan   *RuntimePlan
	cfg    Config
	pq     *PriorityQueue
	logger ports.Logger
	metric ports.MetricsCollector
	tracer ports.Tracer

	stateMu sync.RWMutex
	state   State

	mutMu     sync.Mutex
	mutations []mutation

	nextTick time.Time

	stopRequested chan struct{}
	stopped       chan struct{}
}

// New constructs a Scheduler over plan with the given Config and
// observability adapters. Any nil adapter is replaced with a no-op
// implementation so callers never need to special-case missing
// observability.
func New(plan *RuntimePlan, cfg Config, logger ports.Logger, metric ports.MetricsCollector, tracer ports.Tracer) *Scheduler {
	if cfg.Fairness == (FairnessRatio{}) {
		cfg.Fairness = DefaultFairnessRatio()
	}
	if cfg.BatchQuota <= 0 {
		cfg.BatchQuota = 16
	}
	if cfg.IdleSleep <= 0 {
		cfg.IdleSleep = time.Millisecond
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = noopLogger{}
	}
	if metric == nil {
		metric = noopMetrics{}
	}
	if tracer == nil {
		tracer = noopTracer{}
	}

	pq := NewPriorityQueue(cfg.Fairness)
	for _, n := range plan.Nodes {
		pq.SetBand(n.Name(), NormalBand)
	}

	return &Scheduler{
		plan:          plan,
		cfg:           cfg,
		pq:            pq,
		logger:        logger,
		metric:        metric,
		tracer:        tracer,
		state:         Created,
		stopRequested: make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// State returns the scheduler's current lifecycle state.
func (s *Scheduler) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()

	switch state {
	case Running:
		s.logger.Info(logSchedulerStart, map[string]any{"state": state.String()})
	case Stopped:
		s.logger.Info(logSchedulerShutdown, map[string]any{"state": state.String()})
	}
}

// SetPriority reassigns node to band, taking effect at the next run-loop
// iteration boundary.
func (s *Scheduler) SetPriority(node string, band Band) {
	s.enqueueMutation(func(s *Scheduler) {
		s.pq.SetBand(node, band)
		s.metric.Counter(metricSchedulerPriorityAppliedTotal, 1, map[string]string{"node": node, "band": band.String()})
	})
}

// SetCapacity resizes the edge identified by edgeID, taking effect at the
// next run-loop iteration boundary.
func (s *Scheduler) SetCapacity(edgeID string, capacity int) {
	s.enqueueMutation(func(s *Scheduler) {
		if pe, ok := s.plan.Edge(edgeID); ok {
			if err := pe.Edge.SetCapacity(capacity); err != nil {
				s.logger.Warn("edge_set_capacity_rejected", map[string]any{"edge_id": edgeID, "err": err.Error()})
			}
		}
	})
}

func (s *Scheduler) enqueueMutation(m mutation) {
	s.mutMu.Lock()
	s.mutations = append(s.mutations, m)
	s.mutMu.Unlock()
}

func (s *Scheduler) applyMutationsLocked() {
	s.mutMu.Lock()
	pending := s.mutations
	s.mutations = nil
	s.mutMu.Unlock()

	for _, m := range pending {
		m(s)
	}
}

// Start transitions the scheduler from Created to Running, calling every
// node's OnStart concurrently (bounded by Config.StartConcurrency) before
// launching the cooperative run loop in a background goroutine. Start
// returns once every node has started or the first OnStart error occurs;
// on error no run loop is launched and the scheduler remains usable only
// for inspection.
func (s *Scheduler) Start(ctx context.Context) error {
	s.setState(Starting)

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.StartConcurrency > 0 {
		g.SetLimit(s.cfg.StartConcurrency)
	}

	for _, n := range s.plan.Nodes {
		node := n
		g.Go(func() error {
			emitter := s.emitterFor(node.Name())
			s.logger.Debug(logNodeStart, map[string]any{"node": node.Name()})
			if err := node.OnStart(gctx, emitter); err != nil {
				nodeErr := domain.NewNodeError(node.Name(), "on_start", err)
				s.logger.Error(logNodeError, map[string]any{"node": node.Name(), "method": "on_start", "err": nodeErr.Error()})
				return nodeErr
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("scheduler_start_failed", map[string]any{"err": err.Error()})
		return err
	}

	s.nextTick = time.Now().Add(s.cfg.TickCadence)
	s.setState(Running)

	go s.runLoop(ctx)
	return nil
}

// Stop transitions the scheduler through Draining to Stopped: it closes
// every edge so no further upstream production is accepted, keeps the run
// loop delivering already-queued messages until every edge is empty, and
// calls every node's OnStop. If the configured ShutdownTimeout elapses
// first, Stop returns a ShutdownTimeoutError naming the nodes whose inbound
// edges still held messages.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.setState(Draining)

	for _, pe := range s.plan.Edges {
		pe.Edge.Close()
	}

	deadline := time.Now().Add(s.cfg.ShutdownTimeout)
	for time.Now().Before(deadline) {
		if s.allEdgesEmpty() {
			break
		}
		time.Sleep(s.cfg.IdleSleep)
	}

	close(s.stopRequested)
	select {
	case <-s.stopped:
	case <-time.After(s.cfg.ShutdownTimeout):
	}

	var pending []string
	if !s.allEdgesEmpty() {
		pending = s.nodesWithQueuedInput()
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.StartConcurrency > 0 {
		g.SetLimit(s.cfg.StartConcurrency)
	}
	for _, n := range s.plan.Nodes {
		node := n
		g.Go(func() error {
			s.logger.Debug(logNodeStop, map[string]any{"node": node.Name()})
			if err := node.OnStop(gctx); err != nil {
				nodeErr := domain.NewNodeError(node.Name(), "on_stop", err)
				s.logger.Error(logNodeError, map[string]any{"node": node.Name(), "method": "on_stop", "err": nodeErr.Error()})
				return nodeErr
			}
			return nil
		})
	}
	stopErr := g.Wait()

	s.setState(Stopped)

	if len(pending) > 0 {
		return domain.NewShutdownTimeoutError(s.cfg.ShutdownTimeout.String(), pending)
	}
	return stopErr
}

func (s *Scheduler) allEdgesEmpty() bool {
	for _, pe := range s.plan.Edges {
		if pe.Edge.Len() > 0 {
			return false
		}
	}
	return true
}

func (s *Scheduler) nodesWithQueuedInput() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pe := range s.plan.Edges {
		if pe.Edge.Len() > 0 {
			if _, ok := seen[pe.DstNode]; !ok {
				seen[pe.DstNode] = struct{}{}
				out = append(out, pe.DstNode)
			}
		}
	}
	return out
}

// runLoop is the cooperative scheduler's single logical thread of control.
// It alternates message delivery and tick handling for whichever node the
// PriorityQueue selects next, sleeping for IdleSleep only when no node has
// queued input and the iteration did no work, so the process never
// busy-spins while idle.
func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.stopped)

	for {
		select {
		case <-s.stopRequested:
			return
		default:
		}
		if s.State() != Running && s.State() != Draining {
			return
		}

		s.applyMutationsLocked()

		loopStart := time.Now()
		runnable := s.runnableNodeCount()
		s.metric.Gauge(metricSchedulerRunnableNodes, float64(runnable), nil)

		didWork := s.visitOnce(ctx)

		if time.Now().After(s.nextTick) {
			s.tickAll(ctx)
			s.nextTick = time.Now().Add(s.cfg.TickCadence)
			didWork = true
		}

		s.metric.Histogram(metricSchedulerLoopLatencySeconds, time.Since(loopStart).Seconds(), nil)

		if !didWork && runnable == 0 {
			select {
			case <-s.stopRequested:
				return
			case <-time.After(s.cfg.IdleSleep):
			}
		}
	}
}

// runnableNodeCount counts nodes with at least one queued inbound message,
// sampled once per run-loop iteration for the scheduler_runnable_nodes
// gauge.
func (s *Scheduler) runnableNodeCount() int {
	count := 0
	for _, n := range s.plan.Nodes {
		for _, pe := range s.plan.InEdges(n.Name()) {
			if pe.Edge.Len() > 0 {
				count++
				break
			}
		}
	}
	return count
}

// visitOnce delivers up to Config.BatchQuota messages to the next node
// chosen by the PriorityQueue, processing either messages or a tick for
// that node in a single visit, never both: a node with pending messages is
// drained up to its quota before control moves on, and ticking is handled
// separately by tickAll so delivery and tick cadence cannot interleave
// mid-visit.
func (s *Scheduler) visitOnce(ctx context.Context) (didWork bool) {
	name, ok := s.pq.Next()
	if !ok {
		return false
	}
	node, ok := s.plan.Node(name)
	if !ok {
		return false
	}

	emitter := s.emitterFor(name)
	delivered := 0
	for delivered < s.cfg.BatchQuota {
		port, msg, got := s.nextInboundMessage(name)
		if !got {
			break
		}
		s.deliverMessage(ctx, node, port, msg, emitter)
		delivered++
	}
	return delivered > 0
}

// nextInboundMessage polls name's inbound edges in declaration order and
// returns the first available message, if any.
func (s *Scheduler) nextInboundMessage(name string) (port string, msg domain.Message, ok bool) {
	for _, pe := range s.plan.InEdges(name) {
		if m, got := pe.Edge.TryGet(); got {
			s.metric.Counter(metricEdgeDequeuedTotal, 1, map[string]string{"edge_id": pe.Edge.ID()})
			s.metric.Gauge(metricEdgeQueueDepth, float64(pe.Edge.Len()), map[string]string{"edge_id": pe.Edge.ID()})
			s.logger.Debug(logEdgeDequeue, map[string]any{"edge_id": pe.Edge.ID()})
			return pe.DstPort, m, true
		}
	}
	return "", domain.Message{}, false
}

func (s *Scheduler) deliverMessage(ctx context.Context, node ports.Node, port string, msg domain.Message, emitter ports.Emitter) {
	spanCtx, end := s.tracer.StartSpan(ctx, "node.on_message", map[string]any{
		"node": node.Name(), "port": port, "trace_id": msg.TraceID(),
	})
	defer end()

	start := time.Now()
	err := s.safeCall(func() error { return node.OnMessage(spanCtx, port, msg, emitter) })
	s.metric.Histogram("node_message_duration_seconds", time.Since(start).Seconds(),
		map[string]string{"node": node.Name()})
	s.metric.Counter(metricNodeMessagesTotal, 1, map[string]string{"node": node.Name(), "port": port})

	if err != nil {
		nodeErr := domain.NewNodeError(node.Name(), "on_message", err)
		s.tracer.RecordError(spanCtx, nodeErr)
		s.logger.Error(logNodeError, map[string]any{"node": node.Name(), "port": port, "method": "on_message", "err": nodeErr.Error()})
		s.metric.Counter(metricNodeErrorsTotal, 1, map[string]string{"node": node.Name(), "method": "on_message"})
	}
}

func (s *Scheduler) tickAll(ctx context.Context) {
	for _, n := range s.plan.Nodes {
		ticker, ok := n.(ports.TickInterval)
		if !ok || ticker.TickInterval() <= 0 {
			continue
		}
		emitter := s.emitterFor(n.Name())
		s.logger.Debug(logNodeTick, map[string]any{"node": n.Name()})
		start := time.Now()
		err := s.safeCall(func() error { return n.OnTick(ctx, emitter) })
		s.metric.Histogram(metricNodeTickDurationSeconds, time.Since(start).Seconds(),
			map[string]string{"node": n.Name()})
		if err != nil {
			nodeErr := domain.NewNodeError(n.Name(), "on_tick", err)
			s.logger.Error(logNodeError, map[string]any{"node": n.Name(), "method": "on_tick", "err": nodeErr.Error()})
			s.metric.Counter(metricNodeErrorsTotal, 1, map[string]string{"node": n.Name(), "method": "on_tick"})
		}
	}
	s.logger.Debug(logSchedulerLoopTick, map[string]any{"nodes": len(s.plan.Nodes)})
}

// safeCall invokes fn, converting any recovered panic into an error so a
// single misbehaving node cannot take down the scheduler's run loop.
func (s *Scheduler) safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// emitterFor returns an Emitter scoped to the named node, routing Emit
// calls to that node's declared outbound edges by port name.
func (s *Scheduler) emitterFor(nodeName string) ports.Emitter {
	return &schedulerEmitter{scheduler: s, nodeName: nodeName}
}

type schedulerEmitter struct {
	scheduler *Scheduler
	nodeName  string
}

func (e *schedulerEmitter) Emit(port string, msg domain.Message) domain.PutResult {
	return aggregateResults(e.emitToMatchingEdges(context.Background(), port, msg, false))
}

func (e *schedulerEmitter) EmitBlocking(ctx context.Context, port string, msg domain.Message) domain.PutResult {
	return aggregateResults(e.emitToMatchingEdges(ctx, port, msg, true))
}

func (e *schedulerEmitter) emitToMatchingEdges(ctx context.Context, port string, msg domain.Message, blocking bool) []domain.PutResult {
	var results []domain.PutResult
	for _, pe := range e.scheduler.plan.OutEdges(e.nodeName) {
		if pe.SrcPort != port {
			continue
		}
		results = append(results, e.scheduler.putToEdge(ctx, pe, msg, blocking))
	}
	return results
}

// putToEdge validates msg against pe's destination schema before admitting
// it, then puts it onto pe.Edge and records the stable edge_* metrics and
// log events for the outcome.
func (s *Scheduler) putToEdge(ctx context.Context, pe *PlannedEdge, msg domain.Message, blocking bool) domain.PutResult {
	if pe.DstSchema != nil && !pe.DstSchema(msg.Payload()) {
		mismatch := domain.NewTypeMismatchError(pe.DstNode+"."+pe.DstPort, msg.Payload())
		s.logger.Warn(logEdgeValidationFailed, map[string]any{
			"edge_id": pe.Edge.ID(), "dst_node": pe.DstNode, "dst_port": pe.DstPort,
		})
		s.metric.Counter(metricEdgeDroppedTotal, 1, map[string]string{"edge_id": pe.Edge.ID(), "outcome": "validation_failed"})
		return domain.PutResult{Outcome: domain.PutDropped, Err: mismatch}
	}

	start := time.Now()
	var result domain.PutResult
	waited := false
	if blocking {
		result = pe.Edge.TryPut(msg)
		if result.Outcome == domain.PutBlocked {
			waited = true
			result = pe.Edge.Put(ctx, msg)
		}
	} else {
		result = pe.Edge.TryPut(msg)
	}

	elapsed := time.Since(start)
	if waited && result.Outcome != domain.PutBlocked {
		s.metric.Histogram(metricEdgeBlockedTimeSeconds, elapsed.Seconds(), map[string]string{"edge_id": pe.Edge.ID()})
	}
	s.recordEdgePut(pe, result, elapsed, blocking)
	return result
}

// recordEdgePut emits the stable edge_* metrics and log events for a single
// Put/TryPut outcome observed on pe.
func (s *Scheduler) recordEdgePut(pe *PlannedEdge, result domain.PutResult, elapsed time.Duration, blocking bool) {
	fields := map[string]any{"edge_id": pe.Edge.ID(), "outcome": result.Outcome.String()}
	labels := map[string]string{"edge_id": pe.Edge.ID(), "outcome": result.Outcome.String()}

	switch result.Outcome {
	case domain.PutOK, domain.PutReplaced, domain.PutCoalesced:
		s.metric.Counter(metricEdgeEnqueuedTotal, 1, labels)
		s.logger.Debug(logEdgeEnqueue, fields)
		if result.Outcome == domain.PutReplaced {
			s.logger.Debug(logEdgeReplace, fields)
		}
		if result.Outcome == domain.PutCoalesced {
			s.logger.Debug(logEdgeCoalesce, fields)
		}

	case domain.PutDropped:
		s.metric.Counter(metricEdgeDroppedTotal, 1, labels)
		if result.Err != nil {
			fields["err"] = result.Err.Error()
			s.logger.Warn(logEdgeCoalesceError, fields)
		} else {
			s.logger.Debug(logEdgeDrop, fields)
		}

	case domain.PutBlocked:
		if blocking {
			s.metric.Histogram(metricEdgeBlockedTimeSeconds, elapsed.Seconds(), map[string]string{"edge_id": pe.Edge.ID()})
		}
	}

	s.metric.Gauge(metricEdgeQueueDepth, float64(pe.Edge.Len()), map[string]string{"edge_id": pe.Edge.ID()})
}

// aggregateResults collapses the per-edge PutResults from a fan-out Emit
// call (a port may feed more than one edge) into a single representative
// result: the worst outcome observed, since a caller checking Ok() should
// see the emission as failed if it failed on any destination.
func aggregateResults(results []domain.PutResult) domain.PutResult {
	if len(results) == 0 {
		return domain.PutResult{Outcome: domain.PutDropped}
	}
	worst := results[0]
	for _, r := range results[1:] {
		if !r.Ok() && worst.Ok() {
			worst = r
		}
	}
	return worst
}
