package i18n

import (
	"errors"
	"maps"
	"net/http"

	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/gin-gonic/gin"
)

// ErrorCode represents an HTTP status code
type ErrorCode int

const (
	ErrorBadRequest         ErrorCode = http.StatusBadRequest
	ErrorUnauthorized       ErrorCode = http.StatusUnauthorized
	ErrorForbidden          ErrorCode = http.StatusForbidden
	ErrorNotFound           ErrorCode = http.StatusNotFound
	ErrorConflict           ErrorCode = http.StatusConflict
	ErrorTooManyRequests    ErrorCode = http.StatusTooManyRequests
	ErrorInternalServer     ErrorCode = http.StatusInternalServerError
	ErrorServiceUnavailable ErrorCode = http.StatusServiceUnavailable
)

// I18nError represents an internationalized error
type I18nError struct {
	// MessageID is the key used for translation lookup
	MessageID string
	// DefaultMessage is the English text used when no catalogue has MessageID
	DefaultMessage string
	// Data holds template parameters for the message
	Data map[string]any
}

// Error renders the English message, for logs and wrapped errors
func (e *I18nError) Error() string {
	return e.translate(cnst.LangEN)
}

// TranslateByContext renders the message in the request's language
func (e *I18nError) TranslateByContext(c *gin.Context) string {
	return e.translate(LangFromContext(c))
}

func (e *I18nError) translate(lang string) string {
	return GetTranslator().TranslateWithDefault(e.MessageID, e.DefaultMessage, lang, e.Data)
}

// ErrorWithCode is an error with a code that can be used in API responses.
// Values in the catalogue are shared, so the With* methods return copies.
type ErrorWithCode struct {
	*I18nError
	Code ErrorCode
}

// NewErrorWithCode creates a new error with a code
func NewErrorWithCode(messageID, defaultMessage string, code ErrorCode) *ErrorWithCode {
	return &ErrorWithCode{
		I18nError: &I18nError{
			MessageID:      messageID,
			DefaultMessage: defaultMessage,
		},
		Code: code,
	}
}

func (e *ErrorWithCode) clone() *ErrorWithCode {
	return &ErrorWithCode{
		I18nError: &I18nError{
			MessageID:      e.MessageID,
			DefaultMessage: e.DefaultMessage,
			Data:           maps.Clone(e.Data),
		},
		Code: e.Code,
	}
}

// WithParam returns a copy carrying one more template parameter
func (e *ErrorWithCode) WithParam(key string, value any) *ErrorWithCode {
	out := e.clone()
	if out.Data == nil {
		out.Data = make(map[string]any, 1)
	}
	out.Data[key] = value
	return out
}

// WithHttpCode returns a copy with a different HTTP status
func (e *ErrorWithCode) WithHttpCode(code ErrorCode) *ErrorWithCode {
	out := e.clone()
	out.Code = code
	return out
}

// GetCode returns the error code
func (e *ErrorWithCode) GetCode() ErrorCode {
	return e.Code
}

// Is matches any ErrorWithCode with the same message ID, so parameterised
// copies still compare equal to their catalogue entry.
func (e *ErrorWithCode) Is(target error) bool {
	t, ok := target.(*ErrorWithCode)
	if !ok || t == nil || e == nil {
		return false
	}
	return t.MessageID == e.MessageID
}

// AsErrorWithCode unwraps err into an ErrorWithCode if possible
func AsErrorWithCode(err error) (*ErrorWithCode, bool) {
	var ewc *ErrorWithCode
	if errors.As(err, &ewc) {
		return ewc, true
	}
	return nil, false
}

// TranslateError translates an error using the context's language preference
func TranslateError(c *gin.Context, err error) string {
	if err == nil {
		return ""
	}
	if ewc, ok := AsErrorWithCode(err); ok {
		return ewc.TranslateByContext(c)
	}
	var i18nErr *I18nError
	if errors.As(err, &i18nErr) {
		return i18nErr.TranslateByContext(c)
	}
	return err.Error()
}
