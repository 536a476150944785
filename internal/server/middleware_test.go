package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/Lllllllleong/financialstatementflow/internal/metrics"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	var fromCtx string
	router.GET("/", func(c *gin.Context) {
		fromCtx = logger.RequestID(c.Request.Context())
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, id, fromCtx)
}

func TestRequestIDReused(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestRecoveryUsesEnvelope(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeInternal, resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(2))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDisabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(0))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	router := NewRouter(RouterConfig{Handler: NewHandler(nil, nil, 0), Metrics: metrics.New()})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/health"`)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiters := newClientLimiters(10, time.Minute, func() time.Time { return now })

	for i := 0; i < 1000; i++ {
		assert.True(t, limiters.allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}
	require.Equal(t, 1000, limiters.len())

	now = now.Add(30 * time.Second)
	assert.True(t, limiters.allow("192.168.1.1"))
	assert.Equal(t, 1001, limiters.len())

	now = now.Add(45 * time.Second)
	assert.True(t, limiters.allow("192.168.1.2"))
	assert.Equal(t, 2, limiters.len(), "only clients seen within the idle window remain")
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiters := newClientLimiters(2, time.Minute, func() time.Time { return now })

	assert.True(t, limiters.allow("1.1.1.1"))
	assert.True(t, limiters.allow("1.1.1.1"))
	assert.False(t, limiters.allow("1.1.1.1"))

	now = now.Add(30 * time.Second)
	assert.True(t, limiters.allow("1.1.1.1"))
}

func TestRateLimitMiddlewareSweepsDistinctClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiters := newClientLimiters(5, time.Minute, func() time.Time { return now })

	router := gin.New()
	router.Use(rateLimit(limiters))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 500; i++ {
		require.Equal(t, http.StatusOK, serve(fmt.Sprintf("10.1.%d.%d:4000", i/256, i%256)))
	}
	assert.Equal(t, 500, limiters.len())

	now = now.Add(2 * time.Minute)
	require.Equal(t, http.StatusOK, serve("10.9.9.9:4000"))
	assert.Equal(t, 1, limiters.len())
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	m := metrics.New()
	router := NewRouter(RouterConfig{Handler: NewHandler(nil, nil, 0), Metrics: m})
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/panic",status="500"`)
}
