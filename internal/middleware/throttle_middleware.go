// internal/middleware/throttle_middleware.go
package middleware

import (
	"context"
	"sync"
	"time"

	"jobboard-service/internal/pkg/audit"
	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/metrics"
	"jobboard-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const throttleIdleTTL = 5 * time.Minute

// Throttle is a coarse token bucket per client IP in front of the whole API.
// It only absorbs floods; the per-endpoint fixed windows are the real policy.
// Every denial is counted; a RATE_LIMITED event is recorded once per run of
// denials from the same IP.
type Throttle struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	now     func() time.Time

	audit   *audit.Logger
	metrics *metrics.Metrics
}

type bucket struct {
	lim    *rate.Limiter
	seen   time.Time
	denied bool
}

func NewThrottle(rps float64, burst int, auditLogger *audit.Logger, m *metrics.Metrics) *Throttle {
	return &Throttle{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		audit:   auditLogger,
		metrics: m,
	}
}

// allow takes a token for ip. firstDenial is set when ip was allowed on its
// previous request and is refused now.
func (t *Throttle) allow(ip string) (allowed, firstDenial bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.rps, t.burst)}
		t.buckets[ip] = b
	}
	b.seen = t.now()
	allowed = b.lim.AllowN(b.seen, 1)
	firstDenial = !allowed && !b.denied
	b.denied = !allowed
	return allowed, firstDenial
}

// Sweep drops buckets idle for longer than the idle TTL.
func (t *Throttle) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for ip, b := range t.buckets {
		if now.Sub(b.seen) > throttleIdleTTL {
			delete(t.buckets, ip)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (t *Throttle) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, firstDenial := t.allow(ip)
		if !allowed {
			if firstDenial {
				t.audit.Record(c.Request.Context(), audit.EventRateLimited, "ip:"+ip, map[string]string{
					"policy": "throttle",
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
				})
			}
			t.metrics.ObserveRejection(string(xerrors.ReasonRateLimited))
			response.Reject(c, xerrors.RateLimited(0, t.now().Add(time.Second)))
			return
		}
		c.Next()
	}
}
