// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"strconv"

	"jobboard-service/internal/pkg/audit"
	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/metrics"
	"jobboard-service/internal/pkg/ratelimit"
	"jobboard-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Key picks the rate-limit subject for a request. Kind names what the subject
// is ("ip", "user", "email") and prefixes it in security events.
type Key struct {
	Kind    string
	Subject func(c *gin.Context) string
}

// ClientIP keys on the client address as resolved by gin's trusted proxy
// settings.
var ClientIP = Key{
	Kind:    "ip",
	Subject: func(c *gin.Context) string { return c.ClientIP() },
}

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	audit   *audit.Logger
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter, auditLogger *audit.Logger, m *metrics.Metrics, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		audit:   auditLogger,
		metrics: m,
		logger:  logger,
	}
}

// Limit consults policy for the subject returned by key before the handler
// runs. A limiter failure refuses the request.
func (m *RateLimitMiddleware) Limit(policy ratelimit.Policy, key Key) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		subject := key.Subject(c)
		subjectKey := key.Kind + ":" + subject
		meta := map[string]string{
			"policy": policy.Name,
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}

		res, err := m.limiter.Allow(ctx, policy, subject)
		if err != nil {
			m.logger.Error("rate limiter unavailable", zap.String("policy", policy.Name), zap.Error(err))
			meta["cause"] = err.Error()
			m.audit.Record(ctx, audit.EventTransientError, subjectKey, meta)
			m.metrics.ObserveRejection(string(xerrors.ReasonTransient))
			response.Reject(c, xerrors.Reject(xerrors.ReasonTransient, err))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(policy.MaxRequests))
		if !res.Allowed {
			m.audit.Record(ctx, audit.EventRateLimited, subjectKey, meta)
			m.metrics.ObserveRejection(string(xerrors.ReasonRateLimited))
			response.Reject(c, xerrors.RateLimited(res.Remaining, res.ResetTime))
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))
		c.Next()
	}
}
