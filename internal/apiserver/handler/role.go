package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/common/dto"
	"github.com/apphub-org/apphub/internal/i18n"
)

// RolePolicy is kept in step with stored roles once a write has committed
type RolePolicy interface {
	SetRole(name string, permissions []string) error
	RemoveRole(name string) error
}

// Role manages roles and their permission sets
type Role struct {
	db     database.Database
	policy RolePolicy
	logger *zap.Logger
}

func NewRole(db database.Database, policy RolePolicy, logger *zap.Logger) *Role {
	return &Role{
		db:     db,
		policy: policy,
		logger: logger.Named("handler.role"),
	}
}

func (h *Role) List(c *gin.Context) {
	roles, err := h.db.ListRoles(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (h *Role) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	role, err := h.db.GetRoleByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(storeError(err, i18n.ErrorRoleNotFound))
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *Role) Create(c *gin.Context) {
	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	role := &database.Role{
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		Permissions: permissions(req.Permissions),
	}
	if err := h.db.CreateRole(c.Request.Context(), role); err != nil {
		_ = c.Error(roleError(err))
		return
	}
	h.syncPolicy(role.Name, role.Permissions)
	h.logger.Info("role created", zap.String("role", role.Name))
	c.JSON(http.StatusCreated, role)
}

func (h *Role) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	var (
		role    *database.Role
		oldName string
	)
	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		existing, err := h.db.GetRoleByID(ctx, id)
		if err != nil {
			return err
		}
		oldName = existing.Name
		existing.Name = req.Name
		existing.Description = req.Description
		existing.Level = req.Level
		existing.Permissions = permissions(req.Permissions)
		if err := h.db.UpdateRole(ctx, existing); err != nil {
			return err
		}
		role = existing
		return nil
	})
	if err != nil {
		_ = c.Error(roleError(err))
		return
	}
	if oldName != role.Name {
		h.dropPolicy(oldName)
	}
	h.syncPolicy(role.Name, role.Permissions)
	h.logger.Info("role updated", zap.String("role", role.Name))
	c.JSON(http.StatusOK, role)
}

// Delete refuses while a live account still holds the role, and for the
// role new accounts receive
func (h *Role) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var name string
	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		role, err := h.db.GetRoleByID(ctx, id)
		if err != nil {
			return err
		}
		name = role.Name
		return h.db.DeleteRole(ctx, id)
	})
	if err != nil {
		_ = c.Error(roleError(err))
		return
	}
	h.dropPolicy(name)
	h.logger.Info("role deleted", zap.Uint("role_id", id))
	i18n.RespondOK(c, i18n.SuccessDeleted)
}

// syncPolicy and dropPolicy run after commit. A failure only leaves this
// process's cache stale until the next permission check reloads the role.
func (h *Role) syncPolicy(name string, perms []string) {
	if err := h.policy.SetRole(name, perms); err != nil {
		h.logger.Warn("failed to apply role policy", zap.String("role", name), zap.Error(err))
	}
}

func (h *Role) dropPolicy(name string) {
	if err := h.policy.RemoveRole(name); err != nil {
		h.logger.Warn("failed to drop role policy", zap.String("role", name), zap.Error(err))
	}
}

func roleError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return i18n.ErrorRoleNotFound
	case errors.Is(err, database.ErrDuplicate):
		return i18n.ErrorRoleNameExists
	case errors.Is(err, database.ErrInUse):
		return i18n.ErrorRoleInUse
	case errors.Is(err, database.ErrDefaultRole):
		return i18n.ErrorDefaultRole
	default:
		return err
	}
}

func permissions(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}
