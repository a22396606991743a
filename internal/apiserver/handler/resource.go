package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/common/dto"
	"github.com/apphub-org/apphub/internal/i18n"
)

// Resource serves CRUD and status toggling for one reference data or
// content table.
type Resource[T any, P database.Resource[T]] struct {
	name   string
	store  *database.ResourceStore[T, P]
	logger *zap.Logger
}

func NewResource[T any, P database.Resource[T]](name string, db database.Database, logger *zap.Logger) *Resource[T, P] {
	return &Resource[T, P]{
		name:   name,
		store:  database.NewResourceStore[T, P](db),
		logger: logger.Named("handler." + name),
	}
}

// Name is the route segment and permission prefix
func (h *Resource[T, P]) Name() string {
	return h.name
}

func (h *Resource[T, P]) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}
	lq := database.ListQuery{
		ParentID: q.ParentID,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	items, total, err := h.store.List(c.Request.Context(), lq)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, size := lq.Bounds()
	c.JSON(http.StatusOK, dto.ListResponse[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: size,
	})
}

func (h *Resource[T, P]) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	item, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(storeError(err, i18n.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Resource[T, P]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.store.Create(c.Request.Context(), &item); err != nil {
		_ = c.Error(storeError(err, i18n.ErrNotFound))
		return
	}
	c.JSON(http.StatusCreated, &item)
}

func (h *Resource[T, P]) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.store.Update(c.Request.Context(), id, &item); err != nil {
		_ = c.Error(storeError(err, i18n.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, &item)
}

func (h *Resource[T, P]) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(storeError(err, i18n.ErrNotFound))
		return
	}
	h.logger.Info("record deleted", zap.Uint("id", id))
	i18n.RespondOK(c, i18n.SuccessDeleted)
}

// SetStatus sets the active flag from the body, or toggles it when the
// body is empty or has no status.
func (h *Resource[T, P]) SetStatus(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.StatusRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err)
			return
		}
	}
	item, err := h.store.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		_ = c.Error(storeError(err, i18n.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, item)
}
