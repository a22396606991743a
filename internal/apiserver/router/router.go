// Package router wires handlers and middleware into the HTTP route table
package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/apiserver/handler"
	"github.com/apphub-org/apphub/internal/apiserver/middleware"
	"github.com/apphub-org/apphub/internal/apiserver/session"
	"github.com/apphub-org/apphub/internal/auth"
	"github.com/apphub-org/apphub/internal/auth/limiter"
	"github.com/apphub-org/apphub/internal/auth/rbac"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/config"
	"github.com/apphub-org/apphub/internal/common/errorx"
	"github.com/apphub-org/apphub/internal/i18n"
	"github.com/apphub-org/apphub/pkg/metrics"
)

// Deps are the shared services the routes are built from
type Deps struct {
	Config       *config.APIServerConfig
	DB           database.Database
	Auth         *auth.Service
	Authz        *rbac.Authorizer
	Limiter      *limiter.Limiter
	SessionStore sessions.Store
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// New builds the engine with every route registered
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, err
	}

	errs := errorx.NewErrorHandler(d.Logger)
	r.Use(errs.RecoveryMiddleware())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(d.Metrics.Middleware())
	r.Use(middleware.AccessLog(d.Logger))
	r.Use(i18n.Middleware())
	r.Use(errs.ErrorMiddleware())
	r.Use(middleware.Throttle(cfg.RateLimit.API, d.Metrics))
	r.Use(session.Middleware(&cfg.Session, d.SessionStore))

	health := handler.NewHealth(d.DB, d.Logger)
	r.GET("/healthz", health.Healthz)
	if d.Metrics != nil && cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(d.Metrics.Handler()))
	}

	authn := middleware.NewAuthenticator(d.Auth, d.Logger, d.Metrics)
	adminOnly := middleware.RequireRoles(cnst.RoleAdmin)

	authH := handler.NewAuth(d.Auth, d.DB, d.Logger)
	a := r.Group("/auth")
	{
		a.POST("/login", middleware.LoginLimit(d.Limiter, d.Metrics, d.Logger), authH.Login)
		a.POST("/register", authn.Optional(), authH.Register)
		a.POST("/signup", authH.Signup)
		a.POST("/logout", authH.Logout)
		a.GET("/me", authn.Required(), authH.Me)
		a.PUT("/password", authn.Required(), authH.ChangePassword)
		a.GET("/users", authn.Required(), adminOnly, authH.ListUsers)
	}

	api := r.Group("/api", authn.Required())

	accountH := handler.NewAccount(d.Auth, d.DB, d.Logger)
	accounts := api.Group("/accounts", adminOnly)
	{
		accounts.GET("/:id", accountH.Get)
		accounts.PUT("/:id", accountH.Update)
		accounts.DELETE("/:id", accountH.Delete)
		accounts.GET("/:id/registration", accountH.GetRegistration)
		accounts.PUT("/:id/registration", accountH.UpdateRegistration)
	}

	roleH := handler.NewRole(d.DB, d.Authz, d.Logger)
	roles := api.Group("/roles", middleware.RequirePermission(d.Authz, cnst.PermRolesManage))
	{
		roles.GET("", roleH.List)
		roles.POST("", roleH.Create)
		roles.GET("/:id", roleH.Get)
		roles.PUT("/:id", roleH.Update)
		roles.DELETE("/:id", roleH.Delete)
	}

	mountResource(api, handler.NewResource[database.Continent](cnst.ResContinents, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.Country](cnst.ResCountries, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.State](cnst.ResStates, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.District](cnst.ResDistricts, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.Ad](cnst.ResAds, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.Gallery](cnst.ResGalleries, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.Term](cnst.ResTerms, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.SocialLink](cnst.ResSocialLinks, d.DB, d.Logger), d.Authz)
	mountResource(api, handler.NewResource[database.Feedback](cnst.ResFeedback, d.DB, d.Logger), d.Authz)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(i18n.ErrNotFound)
	})
	return r, nil
}

// mountResource registers the CRUD routes of one table, reads gated by
// "<name>.read" and writes by "<name>.write"
func mountResource[T any, P database.Resource[T]](api *gin.RouterGroup, h *handler.Resource[T, P], checker middleware.PermissionChecker) {
	read := middleware.RequirePermission(checker, cnst.PermRead(h.Name()))
	write := middleware.RequirePermission(checker, cnst.PermWrite(h.Name()))

	g := api.Group("/" + h.Name())
	g.GET("", read, h.List)
	g.GET("/:id", read, h.Get)
	g.POST("", write, h.Create)
	g.PUT("/:id", write, h.Update)
	g.DELETE("/:id", write, h.Delete)
	g.PATCH("/:id/status", write, h.SetStatus)
}
