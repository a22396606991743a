package i18n

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestErrorWithCode_Error(t *testing.T) {
	assert.Equal(t, "Username already exists", ErrorUsernameExists.Error())
	assert.Equal(t, ErrorConflict, ErrorUsernameExists.GetCode())
}

func TestErrorWithCode_WithParamDoesNotMutateCatalogue(t *testing.T) {
	e := ErrorPermissionRequired.WithParam("Permission", "roles.manage")
	assert.Equal(t, "Access denied: requires permission roles.manage", e.Error())
	assert.Nil(t, ErrorPermissionRequired.Data)
	assert.True(t, errors.Is(e, ErrorPermissionRequired))
	assert.False(t, errors.Is(e, ErrorRoleRequired))
}

func TestErrorWithCode_WithHttpCode(t *testing.T) {
	e := ErrNotFound.WithHttpCode(ErrorBadRequest)
	assert.Equal(t, ErrorBadRequest, e.GetCode())
	assert.Equal(t, ErrorNotFound, ErrNotFound.GetCode())
}

func TestErrorWithCode_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("register: %w", ErrorEmailExists)
	assert.ErrorIs(t, err, ErrorEmailExists)

	ewc, ok := AsErrorWithCode(err)
	assert.True(t, ok)
	assert.Equal(t, ErrorConflict, ewc.Code)

	_, ok = AsErrorWithCode(errors.New("plain"))
	assert.False(t, ok)
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		lang    string
		err     error
		code    int
		message string
	}{
		{"coded english", "en", ErrorInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"coded chinese", "zh", ErrorInvalidCredentials, http.StatusUnauthorized, "用户名或密码错误"},
		{"plain error", "en", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(cnst.XLang, tc.lang)

			RespondWithError(c, tc.err)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.message, gjson.Get(w.Body.String(), "error").String())
		})
	}
}

func TestRespondWithSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithSuccess(c, http.StatusOK, SuccessLogout, gin.H{"extra": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", gjson.Get(w.Body.String(), "message").String())
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "extra").Int())
}
