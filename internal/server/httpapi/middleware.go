package httpapi

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/logging"
	"github.com/dmitrijs2005/avatargate/internal/server/gateway"
	"github.com/dmitrijs2005/avatargate/internal/server/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	loggerKey  = "logger"
	subjectKey = "subject"

	requestIDHeader = "X-Request-ID"
)

func (h *handler) log(c *gin.Context) logging.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if logger, ok := l.(logging.Logger); ok {
			return logger
		}
	}
	return h.Logger
}

// recovery turns a panic into the generic 401 answer.
func (h *handler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		h.writeError(c, fmt.Errorf("panic: %v", recovered))
	})
}

func (h *handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := uuid.NewString()
		c.Header(requestIDHeader, id)
		c.Set(loggerKey, h.Logger.With("request_id", id))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		h.Metrics.ObserveRequest(c.Request.Method, route, status, elapsed)
		h.log(c).Info(c.Request.Context(), "Request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
			"client_ip", c.ClientIP(),
		)
	}
}

// timeout bounds every blocking call made on behalf of the request.
func (h *handler) timeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.RequestTimeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requireSession admits a request only when the gateway authorizes its
// bearer token. The subject is then available from the request context and
// from the gin context.
func (h *handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		out := h.Gate.Authenticate(ctx, c.GetHeader(common.AuthorizationHeaderName))

		if !out.Authorized() {
			h.Metrics.ObserveAuth(string(out.Reason))
			if out.Reason == gateway.DenyInternal {
				h.log(c).Error(ctx, "Session check failed", "username", out.Subject, "error", out.Err)
			} else {
				h.log(c).Warn(ctx, "Request denied", "reason", out.Reason, "username", out.Subject)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidToken})
			return
		}

		h.Metrics.ObserveAuth("authorized")
		c.Set(subjectKey, out.Subject)
		c.Set(loggerKey, h.log(c).With("username", out.Subject))
		c.Request = c.Request.WithContext(gateway.WithSubject(ctx, out.Subject))
		c.Next()
	}
}

// rateLimit refuses calls beyond rule for the client address with 429 and a
// Retry-After header in whole seconds. Admitted calls carry the calls left in
// the window in X-RateLimit-Remaining.
func (h *handler) rateLimit(rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		d, err := h.Limiter.Allow(ctx, rule, c.ClientIP())
		if err != nil {
			h.writeError(c, fmt.Errorf("rate limit %s: %w", rule.Name, err))
			return
		}
		if !d.Allowed {
			h.Metrics.ObserveRateLimited(rule.Name)
			h.log(c).Warn(ctx, "Rate limit exceeded", "rule", rule.Name, "client_ip", c.ClientIP(),
				"username", c.GetString(subjectKey))
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
			h.writeError(c, common.WithDetail(common.ErrRateLimited,
				fmt.Sprintf("Rate limit exceeded: %d per %s", rule.Limit, rule.Window)))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
