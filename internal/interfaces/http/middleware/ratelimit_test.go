package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, remaining := rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	ok, _ = rl.Allow("a")
	assert.False(t, ok, "burst exhausted")

	ok, _ = rl.Allow("b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok, "refilled after one second")
}

func TestRateLimiter_DropsIdleKeys(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("idle")
	now = now.Add(rl.idleTTL + time.Minute)
	rl.Allow("fresh")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, "idle")
	assert.Contains(t, rl.limiters, "fresh")
}

func TestRateLimit_PerCompany(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTCompanyIDKey, c.GetHeader("X-Company"))
		c.Next()
	}, RateLimit(rl))
	router.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(company string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("X-Company", company)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("c1").Code)
	limited := call("c1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, http.StatusOK, call("c2").Code)
}
