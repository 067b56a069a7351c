// internal/pkg/audit/logger.go
package audit

import (
	"context"
	"fmt"
	"time"

	"jobboard-service/internal/pkg/metrics"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Sink receives every recorded event. Write errors are logged and dropped.
type Sink interface {
	Name() string
	Write(ctx context.Context, ev Event) error
}

// Logger fans security events out to its sinks. A nil *Logger discards.
type Logger struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	sinks   []Sink
	now     func() time.Time
}

func NewLogger(logger *zap.Logger, m *metrics.Metrics, sinks ...Sink) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{
		logger:  logger,
		metrics: m,
		sinks:   sinks,
		now:     time.Now,
	}
}

// Record appends one event. It never fails and never panics: a broken sink
// must not fail the request being audited.
func (l *Logger) Record(ctx context.Context, eventType EventType, subjectKey string, metadata map[string]string) {
	if l == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("security event dropped",
				zap.String("type", string(eventType)),
				zap.Any("panic", r),
			)
		}
	}()

	ev := Event{
		ID:         ulid.Make().String(),
		Timestamp:  l.now().UTC(),
		Type:       eventType,
		SubjectKey: subjectKey,
		RequestID:  RequestIDFromContext(ctx),
		Metadata:   redact(metadata),
	}

	for _, sink := range l.sinks {
		if err := write(ctx, sink, ev); err != nil {
			l.logger.Warn("security event sink failed",
				zap.String("sink", sink.Name()),
				zap.String("type", string(ev.Type)),
				zap.Error(err),
			)
		}
	}
	l.metrics.ObserveSecurityEvent(string(eventType))
}

func write(ctx context.Context, sink Sink, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Write(ctx, ev)
}
