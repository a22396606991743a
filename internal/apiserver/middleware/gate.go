package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/i18n"
)

// PermissionChecker decides whether a role holds a permission. The role is
// the row loaded with the account, so its permissions are current.
type PermissionChecker interface {
	Authorize(role *database.Role, perm string) (bool, error)
}

// RequireRoles admits accounts whose role is one of names. It must run
// after the authenticator.
func RequireRoles(names ...string) gin.HandlerFunc {
	denied := i18n.ErrorRoleRequired.WithParam("Roles", strings.Join(names, ", "))
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			_ = c.Error(i18n.ErrUnauthorized)
			c.Abort()
			return
		}
		if account.Role == nil || !slices.Contains(names, account.Role.Name) {
			_ = c.Error(denied)
			c.Abort()
			return
		}
		c.Set(cnst.CtxKeyRole, account.Role)
		c.Next()
	}
}

// RequirePermission admits accounts whose role grants perm or "all"
func RequirePermission(checker PermissionChecker, perm string) gin.HandlerFunc {
	denied := i18n.ErrorPermissionRequired.WithParam("Permission", perm)
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			_ = c.Error(i18n.ErrUnauthorized)
			c.Abort()
			return
		}
		allowed, err := checker.Authorize(account.Role, perm)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !allowed {
			_ = c.Error(denied)
			c.Abort()
			return
		}
		c.Set(cnst.CtxKeyRole, account.Role)
		c.Next()
	}
}
