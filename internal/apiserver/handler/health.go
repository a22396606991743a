package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/i18n"
	"github.com/apphub-org/apphub/pkg/version"
)

// Health reports whether the database is reachable
type Health struct {
	db     database.Database
	logger *zap.Logger
}

func NewHealth(db database.Database, logger *zap.Logger) *Health {
	return &Health{db: db, logger: logger.Named("handler.health")}
}

func (h *Health) Healthz(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("database ping failed", zap.Error(err))
		_ = c.Error(i18n.ErrUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
}
