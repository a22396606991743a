// Package session stores the authenticated account in a session. Sessions
// live in redis unless the cookie store is configured; only the redis store
// can revoke a session on logout, since a signed cookie stays valid until
// it expires.
package session

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/apphub-org/apphub/internal/apiserver/cache"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/config"
)

// NewStore creates the session store named by cfg.Type. rdb is only used by
// the redis store.
func NewStore(cfg *config.SessionConfig, rdb *cache.Redis) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Type {
	case cnst.SessionStoreCookie:
		store = cookie.NewStore([]byte(cfg.Secret))
	case cnst.SessionStoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis session store requires a redis connection")
		}
		store = NewRedisStore(rdb.Client(), rdb.Key(""), []byte(cfg.Secret))
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", cfg.Type)
	}
	store.Options(options(cfg, int(cfg.MaxAge.Seconds())))
	return store, nil
}

func options(cfg *config.SessionConfig, maxAge int) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware attaches the session to every request
func Middleware(cfg *config.SessionConfig, store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(cfg.Name, store)
}

// SetAccount records the authenticated account and its role name
func SetAccount(c *gin.Context, accountID uint, role string) error {
	s := sessions.Default(c)
	s.Set(cnst.SessionKeyAccountID, accountID)
	s.Set(cnst.SessionKeyRole, role)
	return s.Save()
}

// AccountID returns the account stored in the session
func AccountID(c *gin.Context) (uint, bool) {
	id, ok := sessions.Default(c).Get(cnst.SessionKeyAccountID).(uint)
	return id, ok && id != 0
}

// Role returns the role name recorded with the account
func Role(c *gin.Context) string {
	role, _ := sessions.Default(c).Get(cnst.SessionKeyRole).(string)
	return role
}

// Touch saves the session again so its expiry slides forward
func Touch(c *gin.Context) error {
	s := sessions.Default(c)
	id := s.Get(cnst.SessionKeyAccountID)
	if id == nil {
		return nil
	}
	s.Set(cnst.SessionKeyAccountID, id)
	return s.Save()
}

// Clear removes every value and expires the cookie
func Clear(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}
