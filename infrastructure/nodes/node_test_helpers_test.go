package nodes

import (
	"context"
	"sync"

	"github.com/meridianhq/meridian-runtime/internal/domain"
)

// recordingEmitter implements ports.Emitter in-memory, capturing every
// emitted message per port for assertion without a running scheduler.
type recordingEmitter struct {
	mu       sync.Mutex
	byPort   map[string][]domain.Message
	blockErr error
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{byPort: make(map[string][]domain.Message)}
}

func (e *recordingEmitter) Emit(port string, msg domain.Message) domain.PutResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byPort[port] = append(e.byPort[port], msg)
	return domain.PutResult{Outcome: domain.PutOK}
}

func (e *recordingEmitter) EmitBlocking(ctx context.Context, port string, msg domain.Message) domain.PutResult {
	if e.blockErr != nil {
		return domain.PutResult{Outcome: domain.PutBlocked, Err: e.blockErr}
	}
	return e.Emit(port, msg)
}

func (e *recordingEmitter) messages(port string) []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Message, len(e.byPort[port]))
	copy(out, e.byPort[port])
	return out
}
