package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/i18n"
)

// paramID parses the :id path parameter
func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, i18n.ErrInvalidID
	}
	return uint(id), nil
}

// storeError maps repository sentinels onto API errors. notFound is used
// for ErrNotFound so callers can name the missing thing.
func storeError(err error, notFound *i18n.ErrorWithCode) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return notFound
	case errors.Is(err, database.ErrParentNotFound):
		return i18n.ErrorParentNotFound
	case errors.Is(err, database.ErrInUse):
		return i18n.ErrorResourceInUse
	case errors.Is(err, database.ErrDuplicate):
		return i18n.ErrorResourceExists
	default:
		return err
	}
}
