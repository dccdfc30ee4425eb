// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"vhc_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	headerRequestID = "X-Request-ID"

	limiterIdleTTL    = 10 * time.Minute
	limiterSweepAbove = 4096
)

// RequestLogger logs each request once it has been served.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		reqLog := log.WithContext(c.Request.Context())
		status := c.Writer.Status()
		if last := c.Errors.Last(); last != nil {
			reqLog.HTTPError(c.Request.Method, c.FullPath(), status, last.Err, c.ClientIP())
			return
		}
		reqLog.HTTPRequest(c.Request.Method, c.FullPath(), status, float64(time.Since(start).Milliseconds()), c.ClientIP())
	}
}

// RequestID tags every request with an id, echoed in X-Request-ID and stored on the
// request context so logger.WithContext picks it up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Next()
	}
}

// SecurityHeaders sets headers for a JSON and file-download API.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP and forgets idle clients.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rate    rate.Limit
	burst   int
	log     *logger.Logger
	now     func() time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		clients: make(map[string]*limiterEntry),
		rate:    r,
		burst:   burst,
		log:     log,
		now:     time.Now,
	}
}

func (i *IPRateLimiter) allow(ip string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if len(i.clients) > limiterSweepAbove {
		for key, e := range i.clients {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(i.clients, key)
			}
		}
	}

	e, ok := i.clients[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.clients[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimit returns a middleware that rate limits by IP.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !i.allow(ip) {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
