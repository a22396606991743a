package limiter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/cache"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/config"
)

// NewStore creates a limiter store based on configuration. rdb is only
// used by the redis store.
func NewStore(logger *zap.Logger, cfg *config.LoginLimitConfig, rdb *cache.Redis) (Store, error) {
	logger.Info("Initializing login limiter store", zap.String("type", cfg.Type))
	switch cfg.Type {
	case cnst.LimiterStoreMemory:
		return NewMemoryStore(), nil
	case cnst.LimiterStoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis limiter store requires a redis connection")
		}
		return NewRedisStore(rdb.Client(), rdb.Key("")), nil
	default:
		return nil, fmt.Errorf("unsupported limiter store type: %s", cfg.Type)
	}
}
