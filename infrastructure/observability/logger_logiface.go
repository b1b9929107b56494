package observability

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Logger = (*LogifaceLogger)(nil)

// LogifaceLogger implements ports.Logger over a github.com/joeycumines/logiface
// logger writing newline-delimited JSON via the stumpy encoder, the same
// pairing the budget manager's structured events were modeled on.
type LogifaceLogger struct {
	logger *logiface.Logger[*stumpy.Event]
	fields map[string]any
}

// NewLogifaceLogger constructs a LogifaceLogger writing to w as
// newline-delimited JSON at level (or above).
func NewLogifaceLogger(w *os.File, level logiface.Level) *LogifaceLogger {
	if w == nil {
		w = os.Stderr
	}
	logger := stumpy.L.New(
		stumpy.WithStumpy(stumpy.WithWriter(w)),
		logiface.WithLevel[*stumpy.Event](level),
	)
	return &LogifaceLogger{logger: logger}
}

// With returns a derived LogifaceLogger that attaches fields to every event
// it logs, in addition to fields passed at each call site.
func (l *LogifaceLogger) With(fields map[string]any) ports.Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &LogifaceLogger{logger: l.logger, fields: merged}
}

func (l *LogifaceLogger) Debug(event string, fields map[string]any) {
	l.log(l.logger.Debug(), event, fields)
}

func (l *LogifaceLogger) Info(event string, fields map[string]any) {
	l.log(l.logger.Info(), event, fields)
}

func (l *LogifaceLogger) Warn(event string, fields map[string]any) {
	l.log(l.logger.Warning(), event, fields)
}

func (l *LogifaceLogger) Error(event string, fields map[string]any) {
	l.log(l.logger.Err(), event, fields)
}

func (l *LogifaceLogger) log(b *logiface.Builder[*stumpy.Event], event string, fields map[string]any) {
	if !b.Enabled() {
		return
	}
	for k, v := range l.fields {
		b = applyField(b, k, v)
	}
	for k, v := range fields {
		b = applyField(b, k, v)
	}
	b.Log(event)
}

// applyField routes a loosely typed field onto a Builder using logiface's
// typed setters where the value matches a common case, falling back to
// Any for everything else.
func applyField(b *logiface.Builder[*stumpy.Event], key string, val any) *logiface.Builder[*stumpy.Event] {
	switch v := val.(type) {
	case string:
		return b.Str(key, v)
	case error:
		if key == "error" || key == "err" {
			return b.Err(v)
		}
		return b.Any(key, v)
	case int:
		return b.Int(key, v)
	case int64:
		return b.Int64(key, v)
	case float64:
		return b.Float64(key, v)
	case bool:
		return b.Bool(key, v)
	default:
		return b.Any(key, v)
	}
}
