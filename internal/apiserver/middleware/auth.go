package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/apiserver/session"
	"github.com/apphub-org/apphub/internal/auth"
	"github.com/apphub-org/apphub/internal/auth/jwt"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/i18n"
	"github.com/apphub-org/apphub/pkg/metrics"
	"github.com/apphub-org/apphub/pkg/trace"
)

// Via names the proof a request was authenticated with
type Via string

const (
	ViaNone    Via = "none"
	ViaSession Via = "session"
	ViaToken   Via = "token"
)

// Result is the outcome of authenticating one request
type Result struct {
	Via     Via
	Account *database.Account
}

// Authenticated reports whether an account was resolved
func (r Result) Authenticated() bool {
	return r.Via != ViaNone && r.Account != nil
}

// AccountResolver loads accounts and verifies bearer tokens
type AccountResolver interface {
	ResolveAccount(ctx context.Context, id uint) (*database.Account, error)
	ValidateToken(token string) (*jwt.Claims, error)
}

// Authenticator resolves the current account from the session, falling
// back to a bearer token.
type Authenticator struct {
	resolver AccountResolver
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   *trace.Builder
}

func NewAuthenticator(resolver AccountResolver, logger *zap.Logger, m *metrics.Metrics) *Authenticator {
	return &Authenticator{
		resolver: resolver,
		logger:   logger.Named("authn"),
		metrics:  m,
		tracer:   trace.Tracer(cnst.TraceAuth),
	}
}

// Authenticate tries the session first. A session whose account is gone is
// ignored rather than trusted. A valid token re-establishes the session.
func (a *Authenticator) Authenticate(c *gin.Context) (Result, error) {
	scope := a.tracer.Start(c.Request.Context(), cnst.SpanAuthenticate)
	defer scope.End()
	ctx := scope.Ctx

	res, err := a.authenticate(ctx, c)
	scope.RecordError(err)
	scope.WithAttrs(attribute.String(cnst.AttrAuthVia, string(res.Via)))
	if res.Authenticated() {
		scope.WithAttrs(attribute.Int64(cnst.AttrAccountID, int64(res.Account.ID)))
	}
	return res, err
}

func (a *Authenticator) authenticate(ctx context.Context, c *gin.Context) (Result, error) {
	none := Result{Via: ViaNone}

	if id, ok := session.AccountID(c); ok {
		account, err := a.resolver.ResolveAccount(ctx, id)
		switch {
		case err == nil:
			a.refreshSession(c, account)
			return Result{Via: ViaSession, Account: account}, nil
		case errors.Is(err, auth.ErrAccountUnavailable):
			a.logger.Debug("session names an unavailable account", zap.Uint("account_id", id))
		default:
			return none, err
		}
	}

	token, ok := bearerToken(c)
	if !ok {
		return none, nil
	}
	claims, err := a.resolver.ValidateToken(token)
	if err != nil {
		return none, nil
	}
	account, err := a.resolver.ResolveAccount(ctx, claims.AccountID)
	if errors.Is(err, auth.ErrAccountUnavailable) {
		return none, nil
	}
	if err != nil {
		return none, err
	}
	if err := session.SetAccount(c, account.ID, account.RoleName()); err != nil {
		a.logger.Warn("failed to hydrate session from token", zap.Uint("account_id", account.ID), zap.Error(err))
	}
	return Result{Via: ViaToken, Account: account}, nil
}

// refreshSession slides the session expiry and rewrites the recorded role
// when an admin has changed it since login
func (a *Authenticator) refreshSession(c *gin.Context, account *database.Account) {
	var err error
	if role := account.RoleName(); session.Role(c) != role {
		a.logger.Debug("session role changed", zap.Uint("account_id", account.ID), zap.String("role", role))
		err = session.SetAccount(c, account.ID, role)
	} else {
		err = session.Touch(c)
	}
	if err != nil {
		a.logger.Warn("failed to refresh session", zap.Uint("account_id", account.ID), zap.Error(err))
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader(cnst.HeaderAuthorization)
	if len(h) <= len(cnst.BearerPrefix) || !strings.EqualFold(h[:len(cnst.BearerPrefix)], cnst.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(cnst.BearerPrefix):])
	return token, token != ""
}

func (a *Authenticator) handle(c *gin.Context, required bool) {
	res, err := a.Authenticate(c)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	if !res.Authenticated() {
		if required {
			_ = c.Error(i18n.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
		return
	}
	a.metrics.Authenticated(string(res.Via))
	c.Set(cnst.CtxKeyAccount, res.Account)
	c.Set(cnst.CtxKeyAuthVia, res.Via)
	c.Next()
}

// Optional attaches the account when one is found and always continues
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.handle(c, false)
	}
}

// Required rejects requests without a live account with 401
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.handle(c, true)
	}
}

// CurrentAccount returns the account attached by the authenticator
func CurrentAccount(c *gin.Context) (*database.Account, bool) {
	v, ok := c.Get(cnst.CtxKeyAccount)
	if !ok {
		return nil, false
	}
	account, ok := v.(*database.Account)
	return account, ok && account != nil
}

// AuthVia returns how the current request was authenticated
func AuthVia(c *gin.Context) Via {
	if v, ok := c.Get(cnst.CtxKeyAuthVia); ok {
		if via, ok := v.(Via); ok {
			return via
		}
	}
	return ViaNone
}
