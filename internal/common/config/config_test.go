package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnv(t *testing.T) {
	t.Setenv("X_A", "va")
	in := []byte("a: ${X_A:da}\nb: ${X_B:db}")
	out := resolveEnv(in)
	assert.Contains(t, string(out), "a: va")
	assert.Contains(t, string(out), "b: db")
}

func TestLoadConfig_APIServer(t *testing.T) {
	tmp := t.TempDir()
	old, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(old) })
	_ = os.Chdir(tmp)

	t.Setenv("APPHUB_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	yaml := `
server:
  addr: ":9000"
database:
  type: sqlite
  dbname: ${X_DB:data/test.db}
jwt:
  secret_key: ${APPHUB_JWT_SECRET}
session:
  secret: ${X_SESSION_SECRET:session-secret}
rate_limit:
  login:
    max_attempts: 3
`
	file := filepath.Join(tmp, "apiserver.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0o644))

	cfg, path, err := LoadConfig[APIServerConfig]("apiserver.yaml")
	require.NoError(t, err)
	realFile, _ := filepath.EvalSymlinks(file)
	realPath, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, realFile, realPath)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "data/test.db", cfg.Database.DBName)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.JWT.SecretKey)
	assert.Equal(t, "session-secret", cfg.Session.Secret)
	assert.Equal(t, 3, cfg.RateLimit.Login.MaxAttempts)

	// defaults
	assert.Equal(t, 24*time.Hour, cfg.JWT.Duration)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, "redis", cfg.Session.Type, "server side sessions unless cookie is asked for")
	assert.Equal(t, "memory", cfg.RateLimit.Login.Type)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	tmp := t.TempDir()
	old, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(old) })
	_ = os.Chdir(tmp)

	_, _, err := LoadConfig[APIServerConfig](filepath.Join(tmp, "nope.yaml"))
	assert.Error(t, err)
}
