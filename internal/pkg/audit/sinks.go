// internal/pkg/audit/sinks.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ZapSink writes events as structured log lines. Denials log at warn level.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("security")}
}

func (s *ZapSink) Name() string { return "zap" }

func (s *ZapSink) Write(_ context.Context, ev Event) error {
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.Time("ts", ev.Timestamp),
		zap.String("type", string(ev.Type)),
		zap.String("subject", ev.SubjectKey),
	}
	if ev.RequestID != "" {
		fields = append(fields, zap.String("request_id", ev.RequestID))
	}
	if len(ev.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", ev.Metadata))
	}

	if ev.Type.Denial() {
		s.logger.Warn("security event", fields...)
	} else {
		s.logger.Info("security event", fields...)
	}
	return nil
}

const (
	defaultStreamMaxLen  = 100000
	defaultStreamTimeout = 500 * time.Millisecond
)

// RedisStreamSink appends events to a Redis stream trimmed to roughly maxLen
// entries.
type RedisStreamSink struct {
	client  redis.UniversalClient
	stream  string
	maxLen  int64
	timeout time.Duration
}

func NewRedisStreamSink(client redis.UniversalClient, stream string, maxLen int64) *RedisStreamSink {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisStreamSink{
		client:  client,
		stream:  stream,
		maxLen:  maxLen,
		timeout: defaultStreamTimeout,
	}
}

func (s *RedisStreamSink) Name() string { return "redis-stream:" + s.stream }

func (s *RedisStreamSink) Write(ctx context.Context, ev Event) error {
	meta, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	// the stream append outlives a cancelled request but not a stuck Redis
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":         ev.ID,
			"ts":         ev.Timestamp.Format(time.RFC3339Nano),
			"type":       string(ev.Type),
			"subject":    ev.SubjectKey,
			"request_id": ev.RequestID,
			"metadata":   string(meta),
		},
	}).Err()
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Write(_ context.Context, ev Event) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Reset forgets everything recorded so far.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// OfType returns the recorded events of type t.
func (s *MemorySink) OfType(t EventType) []Event {
	var out []Event
	for _, ev := range s.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
