package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/cache"
	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/apiserver/router"
	"github.com/apphub-org/apphub/internal/apiserver/session"
	"github.com/apphub-org/apphub/internal/auth"
	"github.com/apphub-org/apphub/internal/auth/jwt"
	"github.com/apphub-org/apphub/internal/auth/limiter"
	"github.com/apphub-org/apphub/internal/auth/rbac"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/config"
	"github.com/apphub-org/apphub/internal/common/errorx"
	"github.com/apphub-org/apphub/internal/i18n"
	"github.com/apphub-org/apphub/pkg/helper"
	"github.com/apphub-org/apphub/pkg/logger"
	"github.com/apphub-org/apphub/pkg/metrics"
	"github.com/apphub-org/apphub/pkg/trace"
	"github.com/apphub-org/apphub/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the fixed roles and the super admin account, then exit",
		Run: func(cmd *cobra.Command, args []string) {
			seed()
		},
	}

	rootCmd = &cobra.Command{
		Use:   cnst.CommandName,
		Short: "AppHub API Server",
		Long:  `AppHub API Server provides authentication, roles and reference data for AppHub clients`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", cnst.ApiServerYaml, "path to configuration file, like /etc/apphub/apiserver.yaml")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
}

func loadConfig() *config.APIServerConfig {
	cfg, cfgPath, err := config.LoadConfig[config.APIServerConfig](configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration %s: %v", cfgPath, err)
	}
	return cfg
}

func initLogger(cfg *config.APIServerConfig) *zap.Logger {
	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return lg
}

func initI18n(cfg *config.I18nConfig) {
	i18n.SetDefaultLanguage(cfg.DefaultLanguage)
	if err := i18n.InitTranslator(cfg.Path); err != nil {
		log.Printf("Failed to load translations from %s: %v", cfg.Path, err)
	}
	errorx.RegisterTagNameFunc()
}

func initDatabase(lg *zap.Logger, cfg *config.DatabaseConfig) database.Database {
	db, err := database.NewDatabase(cfg)
	if err != nil {
		lg.Fatal("Failed to initialize database", zap.String("type", cfg.Type), zap.Error(err))
	}
	return db
}

// seedDatabase is idempotent and runs on every start
func seedDatabase(ctx context.Context, lg *zap.Logger, db database.Database, cfg *config.SuperAdminConfig) error {
	if err := database.SeedRoles(ctx, db); err != nil {
		return err
	}
	created, err := database.SeedSuperAdmin(ctx, db, *cfg, auth.HashPassword)
	if err != nil {
		return err
	}
	if created {
		lg.Info("Super admin account created", zap.String("username", cfg.Username))
	}
	return nil
}

// initRedis opens a connection only for stores that are configured to use one
func initRedis(ctx context.Context, lg *zap.Logger, use bool, cfg config.RedisConfig) *cache.Redis {
	if !use {
		return nil
	}
	rdb, err := cache.NewRedis(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to initialize redis", zap.Error(err))
	}
	return rdb
}

func initSessionStore(lg *zap.Logger, cfg *config.SessionConfig, rdb *cache.Redis) sessions.Store {
	store, err := session.NewStore(cfg, rdb)
	if err != nil {
		lg.Fatal("Failed to initialize session store", zap.Error(err))
	}
	return store
}

func initLimiter(lg *zap.Logger, cfg *config.LoginLimitConfig, rdb *cache.Redis) *limiter.Limiter {
	store, err := limiter.NewStore(lg, cfg, rdb)
	if err != nil {
		lg.Fatal("Failed to initialize login limiter", zap.Error(err))
	}
	return limiter.New(store, cfg.MaxAttempts, cfg.Window)
}

func initAuthorizer(ctx context.Context, lg *zap.Logger, db database.Database) *rbac.Authorizer {
	authz, err := rbac.NewAuthorizer(lg)
	if err != nil {
		lg.Fatal("Failed to create authorizer", zap.Error(err))
	}
	if err := authz.Load(ctx, db); err != nil {
		lg.Fatal("Failed to load permission policies", zap.Error(err))
	}
	return authz
}

func initRouter(ctx context.Context, db database.Database, cfg *config.APIServerConfig, lg *zap.Logger, sessionRedis, limiterRedis *cache.Redis) *gin.Engine {
	tokens, err := jwt.NewService(jwt.Config{SecretKey: cfg.JWT.SecretKey, Duration: cfg.JWT.Duration})
	if err != nil {
		lg.Fatal("Failed to initialize token service", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	r, err := router.New(router.Deps{
		Config:       cfg,
		DB:           db,
		Auth:         auth.NewService(db, tokens, lg, m),
		Authz:        initAuthorizer(ctx, lg, db),
		Limiter:      initLimiter(lg, &cfg.RateLimit.Login, limiterRedis),
		SessionStore: initSessionStore(lg, &cfg.Session, sessionRedis),
		Metrics:      m,
		Logger:       lg,
	})
	if err != nil {
		lg.Fatal("Failed to initialize router", zap.Error(err))
	}
	return r
}

func seed() {
	cfg := loadConfig()
	lg := initLogger(cfg)
	defer lg.Sync()

	db := initDatabase(lg, &cfg.Database)
	defer db.Close()

	if err := seedDatabase(context.Background(), lg, db, &cfg.SuperAdmin); err != nil {
		lg.Fatal("Failed to seed database", zap.Error(err))
	}
	lg.Info("Database seeded")
}

func run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := loadConfig()
	lg := initLogger(cfg)
	defer lg.Sync()
	lg.Info("Starting apiserver", zap.String("version", version.Get()))

	initI18n(&cfg.I18n)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	shutdownTracing, err := trace.InitTracing(ctx, &cfg.Tracing, lg)
	if err != nil {
		lg.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	db := initDatabase(lg, &cfg.Database)
	defer db.Close()
	if err := seedDatabase(ctx, lg, db, &cfg.SuperAdmin); err != nil {
		lg.Fatal("Failed to seed database", zap.Error(err))
	}

	sessionRedis := initRedis(ctx, lg, cfg.Session.Type == cnst.SessionStoreRedis, cfg.Session.Redis)
	limiterRedis := initRedis(ctx, lg, cfg.RateLimit.Login.Type == cnst.LimiterStoreRedis, cfg.RateLimit.Login.Redis)
	for _, rdb := range []*cache.Redis{sessionRedis, limiterRedis} {
		if rdb != nil {
			defer rdb.Close()
		}
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: initRouter(ctx, db, cfg, lg, sessionRedis, limiterRedis),
	}

	if cfg.Server.PID != "" {
		pidFile := helper.GetPIDPath(cfg.Server.PID)
		if err := helper.WritePID(pidFile); err != nil {
			lg.Fatal("Failed to write PID file", zap.String("path", pidFile), zap.Error(err))
		}
		defer helper.RemovePID(pidFile)
	}

	go func() {
		lg.Info("Server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("Received shutdown signal, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Warn("Failed to flush traces", zap.Error(err))
	}
	lg.Info("Server exited")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
