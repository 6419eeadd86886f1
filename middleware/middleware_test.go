package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cppla/cookbook/utils"
)

func TestIPRateLimiterBurstThenReject(t *testing.T) {
	l := NewIPRateLimiter(10) // burst of 5

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	// buckets are per client
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestIPRateLimiterSweepsIdleClientsPeriodically(t *testing.T) {
	l := NewIPRateLimiter(10)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	assert.Len(t, l.limiters, 2)

	// idle long enough to expire, but the next sweep is not due yet
	clock = clock.Add(limiterIdleTTL + time.Second)
	l.lastSweep = clock.Add(-limiterSweepInterval / 2)
	l.Allow("10.0.0.3")
	assert.Len(t, l.limiters, 3)

	clock = clock.Add(limiterSweepInterval)
	l.Allow("10.0.0.3")
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "10.0.0.3")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(NewIPRateLimiter(2)))
	r.GET("/recipes", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(ctx *gin.Context) {
		seen = utils.RequestID(ctx)
		ctx.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", seen)
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}
