package errorx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/apphub-org/apphub/internal/i18n"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Category groups errors by how the client should react to them
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryNotFound       Category = "not_found"
	CategoryConflict       Category = "conflict"
	CategoryRateLimit      Category = "rate_limit"
	CategoryInternal       Category = "internal"
)

// CategoryOf maps an HTTP status to its error category
func CategoryOf(status int) Category {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CategoryValidation
	case http.StatusUnauthorized:
		return CategoryAuthentication
	case http.StatusForbidden:
		return CategoryAuthorization
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusConflict:
		return CategoryConflict
	case http.StatusTooManyRequests:
		return CategoryRateLimit
	default:
		return CategoryInternal
	}
}

// ErrorHandler turns errors pushed with c.Error into JSON responses
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger: logger.Named("errorx"),
	}
}

// HandleError writes the response for err. Internal errors are logged with
// a trace id and answered with an opaque message carrying the same id.
func (h *ErrorHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if c.Writer.Written() {
		h.logger.Warn("error after response was written",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		return
	}

	if fields, ok := validationFields(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  i18n.ErrValidation.TranslateByContext(c),
			"fields": fields,
		})
		return
	}

	if isMalformedBody(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": i18n.ErrMalformedBody.TranslateByContext(c)})
		return
	}

	if ewc, ok := i18n.AsErrorWithCode(err); ok {
		status := int(ewc.GetCode())
		if status >= http.StatusInternalServerError {
			h.respondInternal(c, status, ewc, err)
			return
		}
		h.logger.Debug("request rejected",
			zap.String("category", string(CategoryOf(status))),
			zap.Int("status", status),
			zap.String("path", c.Request.URL.Path),
			zap.String("message_id", ewc.MessageID),
		)
		c.JSON(status, gin.H{"error": ewc.TranslateByContext(c)})
		return
	}

	h.respondInternal(c, http.StatusInternalServerError, i18n.ErrInternalServer, err)
}

func (h *ErrorHandler) respondInternal(c *gin.Context, status int, public *i18n.ErrorWithCode, cause error) {
	traceID := uuid.New().String()
	h.logger.Error("request failed",
		zap.String("trace_id", traceID),
		zap.Int("status", status),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
		zap.Error(cause),
	)
	c.JSON(status, gin.H{
		"error":   public.TranslateByContext(c),
		"traceId": traceID,
	})
}

// ErrorMiddleware returns a gin middleware for error handling
func (h *ErrorHandler) ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			h.HandleError(c, c.Errors.Last().Err)
		}
	}
}

// RecoveryMiddleware converts panics into an opaque 500
func (h *ErrorHandler) RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		h.logger.Error("panic recovered", zap.Any("panic", rec), zap.Stack("stack"))
		h.HandleError(c, fmt.Errorf("panic: %v", rec))
		c.Abort()
	})
}

func isMalformedBody(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var invalidErr *validator.InvalidValidationError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &invalidErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
