package middlewares

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/clawdlabs/rivaldeck/utils"
	"github.com/gin-gonic/gin"
)

// Context key under which the authenticated credential is stored for
// downstream middlewares.
const CredentialKey = "credential"

// RateLimiter throttles ingestion to one accepted request per credential per
// window.
//
// Contract: the per-credential last-acceptance map lives in process memory
// only and is intentionally not persisted. Losing it on restart merely resets
// the throttle window, it violates no correctness invariant. Construct one
// instance at startup and inject it into every handler, never reach for a
// package-level singleton.
type RateLimiter struct {
	window time.Duration
	now    func() time.Time

	m            sync.Mutex
	lastAccepted map[string]time.Time
}

func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		window:       window,
		now:          time.Now,
		lastAccepted: make(map[string]time.Time),
	}
}

// Allow reports whether a request under this credential may proceed, and if
// so records the acceptance. Check and record happen under one lock so that
// concurrent requests cannot both slip through the window; a rejected request
// makes no state change.
func (r *RateLimiter) Allow(credential string) bool {
	now := r.now()
	r.m.Lock()
	defer r.m.Unlock()

	if last, ok := r.lastAccepted[credential]; ok && now.Sub(last) < r.window {
		return false
	}
	r.lastAccepted[credential] = now
	return true
}

// APIKeyAuth verifies the bearer credential in the Authorization header
// against the expected key configured out of band. Rejects before any part
// of the body is read.
func APIKeyAuth(expectedKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expectedKey == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code": utils.ErrorInternal,
				"msg":  "server not configured: ingestion API key not set",
			})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorUnauthenticated,
				"msg":  "missing or invalid Authorization header",
			})
			return
		}

		apiKey := strings.TrimPrefix(authHeader, "Bearer ")
		if apiKey != expectedKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorUnauthenticated,
				"msg":  "invalid API key",
			})
			return
		}

		c.Set(CredentialKey, apiKey)
		c.Next()
	}
}

// Throttle enforces the per-credential request cadence. Must run after
// APIKeyAuth.
func Throttle(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.GetString(CredentialKey)
		if !limiter.Allow(credential) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": utils.ErrorThrottled,
				"msg":  "rate limit exceeded, max 1 request per minute",
			})
			return
		}
		c.Next()
	}
}
