package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/Lllllllleong/financialstatementflow/internal/metrics"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID reuses an incoming X-Request-ID or generates one, and stores it
// in both the gin context and the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header(requestIDHeader, requestID)
		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Recovery turns a panic into a 500 with the standard error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)
				slog.Error("Panic recovered.",
					"error", err,
					"requestId", requestID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:     "Internal server error",
					Code:      CodeInternal,
					RequestID: requestID,
				})
			}
		}()

		c.Next()
	}
}

// RequestLogger logs each request and feeds the HTTP metrics. m may be nil.
func RequestLogger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		m.ObserveRequest(c.Request.Method, c.FullPath(), status, latency)

		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latencyMs", latency.Milliseconds(),
			"clientIp", c.ClientIP(),
			"requestId", GetRequestID(c),
		}
		switch {
		case status >= 500:
			slog.Error("Request completed.", attrs...)
		case status >= 400:
			slog.Warn("Request completed.", attrs...)
		default:
			slog.Info("Request completed.", attrs...)
		}
	}
}

// limiterIdleTTL is how long a client's bucket is kept after its last request.
// A full bucket refills within a minute, so an evicted client loses nothing.
const limiterIdleTTL = 2 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters keeps one token bucket per client IP and sweeps idle ones.
type clientLimiters struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	every     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiters(perMinute int, ttl time.Duration, now func() time.Time) *clientLimiters {
	return &clientLimiters{
		clients:   make(map[string]*clientLimiter),
		every:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		ttl:       ttl,
		lastSweep: now(),
		now:       now,
	}
}

func (l *clientLimiters) allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.ttl {
		for ip, c := range l.clients {
			if now.Sub(c.lastSeen) > l.ttl {
				delete(l.clients, ip)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[clientIP]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[clientIP] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *clientLimiters) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimit allows perMinute requests per client IP, refilled continuously.
// perMinute <= 0 disables limiting.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimit(newClientLimiters(perMinute, limiterIdleTTL, time.Now))
}

func rateLimit(limiters *clientLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !limiters.allow(clientIP) {
			slog.Warn("Rate limit exceeded.", "clientIp", clientIP, "requestId", GetRequestID(c))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:     "Rate limit exceeded. Please try again later.",
				Code:      CodeRateLimited,
				RequestID: GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
