package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

// recordingLogger is a ports.Logger that remembers every event key it was
// called with, so tests can assert the scheduler emits the stable log
// contract at the right decision points.
type recordingLogger struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingLogger) With(map[string]any) ports.Logger { return l }
func (l *recordingLogger) Debug(event string, _ map[string]any) { l.record(event) }
func (l *recordingLogger) Info(event string, _ map[string]any)  { l.record(event) }
func (l *recordingLogger) Warn(event string, _ map[string]any)  { l.record(event) }
func (l *recordingLogger) Error(event string, _ map[string]any) { l.record(event) }

func (l *recordingLogger) record(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *recordingLogger) has(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == event {
			return true
		}
	}
	return false
}

func buildLinearPlan(t *testing.T, capacity int, policy domain.Policy) (*RuntimePlan, *stubNode, *stubNode) {
	t.Helper()
	gen := newSourceNode("gen", "out")
	sink := newSinkNode("sink", "in")

	sg := NewSubgraph("linear")
	sg.AddNode(gen)
	sg.AddNode(sink)
	sg.AddEdge("gen", "out", "sink", "in", capacity, policy)

	plan, issues := sg.Build()
	require.False(t, HasErrors(issues))
	return plan, gen, sink
}

func TestScheduler_StartTransitionsToRunning(t *testing.T) {
	plan, _, _ := buildLinearPlan(t, 4, domain.Drop())
	sched := New(plan, DefaultConfig(), nil, nil, nil)

	require.NoError(t, sched.Start(context.Background()))
	assert.Equal(t, Running, sched.State())

	require.NoError(t, sched.Stop(context.Background()))
	assert.Equal(t, Stopped, sched.State())
}

func TestScheduler_StartCallsOnStartForEveryNode(t *testing.T) {
	plan, gen, sink := buildLinearPlan(t, 4, domain.Drop())
	sched := New(plan, DefaultConfig(), nil, nil, nil)

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop(context.Background())

	assert.True(t, gen.wasStarted())
	assert.True(t, sink.wasStarted())
}

func TestScheduler_StopCallsOnStopForEveryNode(t *testing.T) {
	plan, gen, sink := buildLinearPlan(t, 4, domain.Drop())
	sched := New(plan, DefaultConfig(), nil, nil, nil)

	require.NoError(t, sched.Start(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))

	assert.True(t, gen.wasStopped())
	assert.True(t, sink.wasStopped())
}

func TestScheduler_DeliversMessageFromEdgeToDestinationNode(t *testing.T) {
	plan, _, sink := buildLinearPlan(t, 4, domain.Drop())
	cfg := DefaultConfig()
	cfg.IdleSleep = time.Millisecond
	sched := New(plan, cfg, nil, nil, nil)

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop(context.Background())

	edge, ok := plan.Edge("gen:out->sink:in")
	require.True(t, ok)
	edge.Edge.TryPut(domain.NewMessage(domain.DataKind, "hello", nil))

	assert.Eventually(t, func() bool { return sink.receivedCount() == 1 }, time.Second, time.Millisecond)
}

func TestScheduler_SetPriorityTakesEffect(t *testing.T) {
	plan, _, _ := buildLinearPlan(t, 4, domain.Drop())
	sched := New(plan, DefaultConfig(), nil, nil, nil)

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop(context.Background())

	sched.SetPriority("gen", ControlBand)

	assert.Eventually(t, func() bool {
		band, ok := sched.pq.BandOf("gen")
		return ok && band == ControlBand
	}, time.Second, time.Millisecond)
}

func TestScheduler_SetCapacityTakesEffect(t *testing.T) {
	plan, _, _ := buildLinearPlan(t, 4, domain.Drop())
	sched := New(plan, DefaultConfig(), nil, nil, nil)

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop(context.Background())

	sched.SetCapacity("gen:out->sink:in", 99)

	edge, _ := plan.Edge("gen:out->sink:in")
	assert.Eventually(t, func() bool { return edge.Edge.Capacity() == 99 }, time.Second, time.Millisecond)
}

func TestScheduler_NodeErrorDoesNotStopRunLoop(t *testing.T) {
	gen := newSourceNode("gen", "out")
	sink := newSinkNode("sink", "in")
	sink.onMessage = func(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
		panic("boom")
	}

	sg := NewSubgraph("linear")
	sg.AddNode(gen)
	sg.AddNode(sink)
	sg.AddEdge("gen", "out", "sink", "in", 4, domain.Drop())
	plan, issues := sg.Build()
	require.False(t, HasErrors(issues))

	sched := New(plan, DefaultConfig(), nil, nil, nil)
	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop(context.Background())

	edge, _ := plan.Edge("gen:out->sink:in")
	edge.Edge.TryPut(domain.NewMessage(domain.DataKind, "a", nil))

	assert.Eventually(t, func() bool { return sink.receivedCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, Running, sched.State())

	edge.Edge.TryPut(domain.NewMessage(domain.DataKind, "b", nil))
	assert.Eventually(t, func() bool { return sink.receivedCount() == 2 }, time.Second, time.Millisecond)
}

func TestScheduler_LogsStableNodeAndSchedulerLifecycleKeys(t *testing.T) {
	plan, _, _ := buildLinearPlan(t, 4, domain.Drop())
	logger := &recordingLogger{}
	sched := New(plan, DefaultConfig(), logger, nil, nil)

	require.NoError(t, sched.Start(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))

	assert.True(t, logger.has(logNodeStart))
	assert.True(t, logger.has(logNodeStop))
	assert.True(t, logger.has(logSchedulerStart))
	assert.True(t, logger.has(logSchedulerShutdown))
}

func TestScheduler_EmitRejectsPayloadFailingDestinationSchema(t *testing.T) {
	gen := newSourceNode("gen", "out")
	sink := &stubNode{name: "sink", portSpecs: []domain.PortSpec{
		domain.NewInPort("in", func(payload any) bool {
			_, ok := payload.(int)
			return ok
		}),
	}}

	sg := NewSubgraph("linear")
	sg.AddNode(gen)
	sg.AddNode(sink)
	sg.AddEdge("gen", "out", "sink", "in", 4, domain.Drop())
	plan, issues := sg.Build()
	require.False(t, HasErrors(issues))

	logger := &recordingLogger{}
	sched := New(plan, DefaultConfig(), logger, nil, nil)
	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop(context.Background())

	emitter := sched.emitterFor("gen")
	result := emitter.Emit("out", domain.NewMessage(domain.DataKind, "not an int", nil))

	assert.Equal(t, domain.PutDropped, result.Outcome)
	require.Error(t, result.Err)
	var mismatch *domain.TypeMismatchError
	assert.ErrorAs(t, result.Err, &mismatch)
	assert.True(t, logger.has(logEdgeValidationFailed))
	assert.Zero(t, sink.receivedCount())
}

func TestScheduler_EmitAdmitsPayloadMatchingDestinationSchema(t *testing.T) {
	gen := newSourceNode("gen", "out")
	sink := &stubNode{name: "sink", portSpecs: []domain.PortSpec{
		domain.NewInPort("in", func(payload any) bool {
			_, ok := payload.(int)
			return ok
		}),
	}}

	sg := NewSubgraph("linear")
	sg.AddNode(gen)
	sg.AddNode(sink)
	sg.AddEdge("gen", "out", "sink", "in", 4, domain.Drop())
	plan, issues := sg.Build()
	require.False(t, HasErrors(issues))

	sched := New(plan, DefaultConfig(), nil, nil, nil)
	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop(context.Background())

	emitter := sched.emitterFor("gen")
	result := emitter.Emit("out", domain.NewMessage(domain.DataKind, 42, nil))

	assert.True(t, result.Ok())
	assert.Equal(t, domain.PutOK, result.Outcome)
}
