package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/auth"
	"github.com/apphub-org/apphub/internal/common/dto"
	"github.com/apphub-org/apphub/internal/i18n"
)

// Account is the admin surface over accounts and their registration metadata
type Account struct {
	svc    *auth.Service
	db     database.Database
	logger *zap.Logger
}

func NewAccount(svc *auth.Service, db database.Database, logger *zap.Logger) *Account {
	return &Account{
		svc:    svc,
		db:     db,
		logger: logger.Named("handler.account"),
	}
}

func (h *Account) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	account, err := h.db.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(storeError(err, i18n.ErrorAccountNotFound))
		return
	}
	c.JSON(http.StatusOK, dto.NewUserProfile(account))
}

func (h *Account) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	account, err := h.svc.UpdateAccount(c.Request.Context(), id, auth.AccountUpdate{
		Username:   req.Username,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		RoleID:     req.RoleID,
		IsVerified: req.IsVerified,
		IsActive:   req.IsActive,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserProfile(account))
}

// Delete soft deletes the account. Its sessions and tokens stop resolving.
func (h *Account) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.db.DeleteAccount(c.Request.Context(), id); err != nil {
		_ = c.Error(storeError(err, i18n.ErrorAccountNotFound))
		return
	}
	h.logger.Info("account deleted", zap.Uint("account_id", id))
	i18n.RespondOK(c, i18n.SuccessDeleted)
}

func (h *Account) GetRegistration(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	meta, err := h.registration(c, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// UpdateRegistration is the admin correction path for signup metadata
func (h *Account) UpdateRegistration(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.RegistrationMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	meta, err := h.registration(c, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	meta.IPAddress = req.IPAddress
	meta.UserAgent = req.UserAgent
	meta.Referrer = req.Referrer
	meta.UTMSource = req.UTMSource
	meta.UTMMedium = req.UTMMedium
	meta.UTMCampaign = req.UTMCampaign
	if err := h.db.UpdateRegistrationMetadata(c.Request.Context(), meta); err != nil {
		_ = c.Error(storeError(err, i18n.ErrorRegistrationNotFound))
		return
	}
	h.logger.Info("registration metadata corrected", zap.Uint("account_id", id))
	c.JSON(http.StatusOK, meta)
}

// registration loads the metadata of a live account
func (h *Account) registration(c *gin.Context, accountID uint) (*database.RegistrationMetadata, error) {
	ctx := c.Request.Context()
	if _, err := h.db.GetAccountByID(ctx, accountID); err != nil {
		return nil, storeError(err, i18n.ErrorAccountNotFound)
	}
	meta, err := h.db.GetRegistrationMetadata(ctx, accountID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, i18n.ErrorRegistrationNotFound
	}
	return meta, err
}
