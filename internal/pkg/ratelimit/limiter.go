// internal/pkg/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobboard-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

var ErrInvalidWindow = errors.New("ratelimit: window must be positive")

// Record is the per-key fixed-window counter.
type Record struct {
	Key         string
	Count       int
	WindowStart time.Time
	ResetTime   time.Time
}

// Result is the outcome of one Check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// Policy names a threshold. Thresholds come from configuration.
type Policy struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// Key is the store key for subject under this policy, e.g. "login:a@b.com".
func (p Policy) Key(subject string) string {
	return p.Name + ":" + subject
}

// Store persists records. Update must run fn atomically with respect to every
// other Update on the same key; fn may be invoked more than once by stores
// that retry optimistically, and only the final invocation's result counts.
type Store interface {
	Update(ctx context.Context, key string, fn func(rec Record, found bool) Record) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type Limiter struct {
	store   Store
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request against key. A denied request does not consume
// quota; a request in a new window always succeeds.
func (l *Limiter) Check(ctx context.Context, key string, maxRequests int, window time.Duration) (Result, error) {
	if window <= 0 {
		return Result{}, ErrInvalidWindow
	}
	if key == "" {
		return Result{}, fmt.Errorf("ratelimit: key is required")
	}
	if maxRequests <= 0 {
		return Result{Allowed: false, Remaining: 0, ResetTime: l.now().Add(window)}, nil
	}

	var res Result
	err := l.store.Update(ctx, key, func(rec Record, found bool) Record {
		var next Record
		next, res = apply(key, rec, found, l.now(), maxRequests, window)
		return next
	})
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: update %q: %w", key, err)
	}
	return res, nil
}

// Allow checks subject against policy and records the decision.
func (l *Limiter) Allow(ctx context.Context, policy Policy, subject string) (Result, error) {
	res, err := l.Check(ctx, policy.Key(subject), policy.MaxRequests, policy.Window)
	if err != nil {
		return res, err
	}
	l.metrics.ObserveLimit(policy.Name, res.Allowed)
	return res, nil
}

// RunJanitor sweeps expired records every interval until ctx is done.
func (l *Limiter) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := l.store.Sweep(ctx, l.now())
			if err != nil {
				l.logger.Warn("rate limit sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				l.logger.Debug("rate limit sweep", zap.Int("removed", removed))
			}
		}
	}
}

func apply(key string, rec Record, found bool, now time.Time, maxRequests int, window time.Duration) (Record, Result) {
	if !found || now.Sub(rec.WindowStart) >= window {
		rec = Record{
			Key:         key,
			Count:       1,
			WindowStart: now,
			ResetTime:   now.Add(window),
		}
		return rec, Result{Allowed: true, Remaining: maxRequests - 1, ResetTime: rec.ResetTime}
	}

	if rec.Count >= maxRequests {
		return rec, Result{Allowed: false, Remaining: 0, ResetTime: rec.ResetTime}
	}

	rec.Count++
	return rec, Result{Allowed: true, Remaining: maxRequests - rec.Count, ResetTime: rec.ResetTime}
}
