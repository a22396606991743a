package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/common/config"
)

func TestInitLogger(t *testing.T) {
	cfg := &config.APIServerConfig{}
	lg := initLogger(cfg)
	require.NotNil(t, lg)
	_ = lg.Sync()
}

func TestInitDatabase_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "apiserver.db")
	db := initDatabase(zap.NewNop(), &config.DatabaseConfig{Type: "sqlite", DBName: dbPath})
	t.Cleanup(func() { _ = db.Close() })
	assert.NoError(t, db.Ping(context.Background()))
}

func TestSeedDatabase_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := initDatabase(zap.NewNop(), &config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	t.Cleanup(func() { _ = db.Close() })

	admin := &config.SuperAdminConfig{Username: "admin", Password: "password"}
	require.NoError(t, seedDatabase(ctx, zap.NewNop(), db, admin))
	require.NoError(t, seedDatabase(ctx, zap.NewNop(), db, admin))

	roles, err := db.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 5)
	accounts, err := db.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestInitI18n(t *testing.T) {
	initI18n(&config.I18nConfig{DefaultLanguage: "en"})
}

func TestInitRedis_Skipped(t *testing.T) {
	assert.Nil(t, initRedis(context.Background(), zap.NewNop(), false, config.RedisConfig{}))
}

func TestInitRouter_Constructs(t *testing.T) {
	ctx := context.Background()
	lg := zap.NewNop()
	db := initDatabase(lg, &config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.APIServerConfig{
		SuperAdmin: config.SuperAdminConfig{Username: "admin", Password: "password"},
		JWT:        config.JWTConfig{SecretKey: "this-is-a-very-long-secret-key-for-testing-purposes-only", Duration: time.Hour},
		Session:    config.SessionConfig{Type: "redis", Secret: "session-secret"},
		RateLimit:  config.RateLimitConfig{Login: config.LoginLimitConfig{Type: "redis"}},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	require.NoError(t, seedDatabase(ctx, lg, db, &cfg.SuperAdmin))

	// an empty redis address runs the embedded server
	rdb := initRedis(ctx, lg, true, cfg.Session.Redis)
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })

	r := initRouter(ctx, db, cfg, lg, rdb, rdb)
	require.NotNil(t, r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
