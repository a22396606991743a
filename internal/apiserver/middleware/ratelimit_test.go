package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/auth/limiter"
	"github.com/apphub-org/apphub/internal/common/config"
	"github.com/apphub-org/apphub/internal/common/errorx"
)

func newLoginEngine(l *limiter.Limiter) *gin.Engine {
	r := gin.New()
	r.Use(errorx.NewErrorHandler(zap.NewNop()).ErrorMiddleware())
	r.POST("/login", LoginLimit(l, nil, zap.NewNop()), func(c *gin.Context) {
		if c.Query("ok") == "1" {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusUnauthorized)
	})
	return r
}

func login(r http.Handler, ip string, ok bool) *httptest.ResponseRecorder {
	path := "/login"
	if ok {
		path += "?ok=1"
	}
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginLimit(t *testing.T) {
	r := newLoginEngine(limiter.New(limiter.NewMemoryStore(), 5, 15*time.Minute))

	for i := 0; i < 5; i++ {
		w := login(r, "10.0.0.1", false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(4-i), w.Header().Get("X-RateLimit-Remaining"))
	}
	w := login(r, "10.0.0.1", true)
	require.Equal(t, http.StatusTooManyRequests, w.Code, "the sixth attempt is refused even with good credentials")
	secs, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, secs, 0)
	assert.LessOrEqual(t, secs, 900)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusUnauthorized, login(r, "10.0.0.2", false).Code, "keys are per address")
}

func TestLoginLimit_SuccessResets(t *testing.T) {
	r := newLoginEngine(limiter.New(limiter.NewMemoryStore(), 5, 15*time.Minute))

	for i := 0; i < 4; i++ {
		login(r, "10.0.0.3", false)
	}
	assert.Equal(t, http.StatusOK, login(r, "10.0.0.3", true).Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, login(r, "10.0.0.3", false).Code)
	}
}

func TestThrottle(t *testing.T) {
	r := gin.New()
	r.Use(errorx.NewErrorHandler(zap.NewNop()).ErrorMiddleware())
	r.Use(Throttle(config.APILimitConfig{Enabled: true, PerSecond: 0.001, Burst: 2}, nil))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusTooManyRequests, get())
}

func TestThrottle_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Throttle(config.APILimitConfig{}, nil))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
