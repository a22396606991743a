package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/apiserver/middleware"
	"github.com/apphub-org/apphub/internal/apiserver/session"
	"github.com/apphub-org/apphub/internal/auth"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/dto"
	"github.com/apphub-org/apphub/internal/i18n"
)

// Auth handles login, registration and the session endpoints
type Auth struct {
	svc    *auth.Service
	db     database.Database
	logger *zap.Logger
}

// NewAuth creates a new authentication handler
func NewAuth(svc *auth.Service, db database.Database, logger *zap.Logger) *Auth {
	return &Auth{
		svc:    svc,
		db:     db,
		logger: logger.Named("handler.auth"),
	}
}

// Login handles the administrative login
func (h *Auth) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password, cnst.RoleAdmin)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := session.SetAccount(c, res.Account.ID, res.Account.RoleName()); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		User:      dto.NewUserProfile(res.Account),
		Token:     res.Token,
		ExpiresIn: int64(res.ExpiresIn.Seconds()),
	})
}

// Register creates an account without logging it in. Picking a role is
// reserved to admins; anyone else gets the default role.
func (h *Auth) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	if req.RoleID != nil {
		if caller, ok := middleware.CurrentAccount(c); !ok || caller.RoleName() != cnst.RoleAdmin {
			_ = c.Error(i18n.ErrorRoleRequired.WithParam("Roles", cnst.RoleAdmin))
			return
		}
	}

	account, err := h.svc.Register(c.Request.Context(), registerInput(&req), registrationContext(c, &req))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterResponse{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
	})
}

// Signup is the public registration flow. It always assigns the default
// role and logs the new account in.
func (h *Auth) Signup(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	req.RoleID = nil

	ctx := c.Request.Context()
	account, err := h.svc.Register(ctx, registerInput(&req), registrationContext(c, &req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	res, err := h.svc.IssueToken(ctx, account)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := session.SetAccount(c, account.ID, account.RoleName()); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.LoginResponse{
		User:      dto.NewUserProfile(res.Account),
		Token:     res.Token,
		ExpiresIn: int64(res.ExpiresIn.Seconds()),
	})
}

func registerInput(req *dto.RegisterRequest) auth.RegisterInput {
	return auth.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		RoleID:    req.RoleID,
	}
}

func registrationContext(c *gin.Context, req *dto.RegisterRequest) auth.RegistrationContext {
	referrer := req.Referrer
	if referrer == "" {
		referrer = c.Request.Referer()
	}
	return auth.RegistrationContext{
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Referrer:    referrer,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
	}
}

// Me returns the authenticated account id and role
func (h *Auth) Me(c *gin.Context) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		_ = c.Error(i18n.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, dto.MeResponse{
		UserID:   account.ID,
		UserRole: account.RoleName(),
	})
}

// Logout destroys the session. It succeeds without one.
func (h *Auth) Logout(c *gin.Context) {
	if err := session.Clear(c); err != nil {
		h.logger.Error("failed to clear session", zap.Error(err))
		_ = c.Error(i18n.ErrorLogoutFailed)
		return
	}
	i18n.RespondOK(c, i18n.SuccessLogout)
}

// ChangePassword handles password change requests
func (h *Auth) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		_ = c.Error(i18n.ErrUnauthorized)
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), account.ID, req.OldPassword, req.NewPassword); err != nil {
		_ = c.Error(err)
		return
	}
	i18n.RespondOK(c, i18n.SuccessPasswordChanged)
}

// ListUsers lists every live account
func (h *Auth) ListUsers(c *gin.Context) {
	accounts, err := h.db.ListAccounts(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": dto.NewUserProfiles(accounts)})
}
