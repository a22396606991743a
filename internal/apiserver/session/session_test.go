package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/cache"
	"github.com/apphub-org/apphub/internal/common/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T, cfg *config.SessionConfig, rdb *cache.Redis) *gin.Engine {
	t.Helper()
	store, err := NewStore(cfg, rdb)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(cfg, store))
	r.POST("/login", func(c *gin.Context) {
		if err := SetAccount(c, 42, "admin"); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/me", func(c *gin.Context) {
		id, ok := AccountID(c)
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		_ = Touch(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": Role(c)})
	})
	r.POST("/logout", func(c *gin.Context) {
		if err := Clear(c); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	return w.Result().Cookies()
}

// testRoundTrip logs in and out and returns the cookies issued at login
func testRoundTrip(t *testing.T, r *gin.Engine) []*http.Cookie {
	w := do(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := sessionCookies(w)
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].HttpOnly)

	w = do(r, http.MethodGet, "/me", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"role":"admin"}`, w.Body.String())
	assert.NotEmpty(t, sessionCookies(w), "expiry slides on use")

	w = do(r, http.MethodPost, "/logout", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := sessionCookies(w)
	require.NotEmpty(t, cleared)
	assert.Less(t, cleared[0].MaxAge, 0)
	return cookies
}

func TestCookieStore(t *testing.T) {
	cfg := &config.SessionConfig{Type: "cookie", Name: "apphub_session", Secret: "cookie-secret", MaxAge: time.Hour}
	r := newEngine(t, cfg, nil)
	cookies := testRoundTrip(t, r)

	// a signed cookie carries its own state, so a copy kept from before
	// logout still reads until it expires
	w := do(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedisStore(t *testing.T) {
	rdb, err := cache.NewRedis(context.Background(), config.RedisConfig{Prefix: "apphub:"}, zap.NewNop())
	require.NoError(t, err)
	defer rdb.Close()

	cfg := &config.SessionConfig{Type: "redis", Name: "apphub_session", Secret: "cookie-secret", MaxAge: time.Hour}
	r := newEngine(t, cfg, rdb)
	cookies := testRoundTrip(t, r)

	// logout deleted the server side record, so a replayed cookie is empty
	w := do(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// an expired record no longer resolves either
	w = do(r, http.MethodPost, "/login", nil)
	cookies = sessionCookies(w)
	keys, err := rdb.Client().Keys(context.Background(), "apphub:session:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	ttl, err := rdb.Client().TTL(context.Background(), keys[0]).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	require.NoError(t, rdb.Client().Del(context.Background(), keys[0]).Err())
	w = do(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewStore_Errors(t *testing.T) {
	_, err := NewStore(&config.SessionConfig{Type: "redis", Secret: "s"}, nil)
	assert.Error(t, err)
	_, err = NewStore(&config.SessionConfig{Type: "memcached", Secret: "s"}, nil)
	assert.Error(t, err)
}
