package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/auth/jwt"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/config"
	"github.com/apphub-org/apphub/internal/common/errorx"
	"github.com/apphub-org/apphub/internal/i18n"
)

func newTestService(t *testing.T) (*Service, database.Database) {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.SeedRoles(ctx, db))
	_, err = database.SeedSuperAdmin(ctx, db, config.SuperAdminConfig{Username: "admin", Password: "password"}, HashPassword)
	require.NoError(t, err)

	tokens, err := jwt.NewService(jwt.Config{SecretKey: "0123456789abcdef0123456789abcdef", Duration: 24 * time.Hour})
	require.NoError(t, err)
	return NewService(db, tokens, zap.NewNop(), nil), db
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	ewc, ok := i18n.AsErrorWithCode(err)
	require.True(t, ok, "expected a coded error, got %v", err)
	return int(ewc.Code)
}

func TestLogin_Admin(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	res, err := s.Login(ctx, "admin", "password", cnst.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 24*time.Hour, res.ExpiresIn)
	assert.Equal(t, cnst.RoleAdmin, res.Account.RoleName())
	assert.NotNil(t, res.Account.LastLoginAt)

	claims, err := s.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.AccountID)
	assert.Equal(t, cnst.RoleAdmin, claims.Role)

	_, err = s.Login(ctx, "admin", "wrong", cnst.RoleAdmin)
	assert.ErrorIs(t, err, i18n.ErrorInvalidCredentials)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestLogin_FailureOrder(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	_, err := s.Login(ctx, "", "password", cnst.RoleAdmin)
	assert.ErrorIs(t, err, i18n.ErrorUserNamePasswordRequired)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = s.Login(ctx, "ghost", "password", cnst.RoleAdmin)
	assert.ErrorIs(t, err, i18n.ErrorInvalidCredentials, "unknown users look like bad passwords")

	_, err = s.Register(ctx, RegisterInput{Username: "alice", Password: "Passw0rd!", Email: "alice@example.com"}, RegistrationContext{})
	require.NoError(t, err)

	// a non-admin with the right password is denied before the password is checked
	_, err = s.Login(ctx, "alice", "Passw0rd!", cnst.RoleAdmin)
	assert.ErrorIs(t, err, i18n.ErrorAccessDenied)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	_, err = s.Login(ctx, "alice", "nope", cnst.RoleAdmin)
	assert.ErrorIs(t, err, i18n.ErrorAccessDenied)

	// an open entry point lets any role in
	_, err = s.Login(ctx, "alice", "Passw0rd!", "")
	require.NoError(t, err)

	alice, err := db.GetAccountByUsername(ctx, "alice")
	require.NoError(t, err)
	alice.IsActive = false
	require.NoError(t, db.UpdateAccount(ctx, alice))
	_, err = s.Login(ctx, "alice", "Passw0rd!", "")
	assert.ErrorIs(t, err, i18n.ErrorAccountDisabled)
}

func TestRegister(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	rc := RegistrationContext{IPAddress: "203.0.113.9", UserAgent: "test-agent", UTMSource: "ads"}
	account, err := s.Register(ctx, RegisterInput{Username: "alice", Password: "Passw0rd!", Email: "alice@example.com"}, rc)
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, cnst.RoleUser, account.RoleName())
	assert.NotEqual(t, "Passw0rd!", account.PasswordHash)

	meta, err := db.GetRegistrationMetadata(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", meta.IPAddress)
	assert.Equal(t, "test-agent", meta.UserAgent)
	assert.Equal(t, "ads", meta.UTMSource)

	_, err = s.Register(ctx, RegisterInput{Username: "alice", Password: "x", Email: "other@example.com"}, rc)
	assert.ErrorIs(t, err, i18n.ErrorUsernameExists)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = s.Register(ctx, RegisterInput{Username: "alice2", Password: "x", Email: "alice@example.com"}, rc)
	assert.ErrorIs(t, err, i18n.ErrorEmailExists)

	_, err = s.Register(ctx, RegisterInput{Username: "bob", Password: "x"}, rc)
	assert.ErrorIs(t, err, i18n.ErrorRegistrationRequired)

	missing := uint(9999)
	_, err = s.Register(ctx, RegisterInput{Username: "bob", Password: "x", Email: "bob@example.com", RoleID: &missing}, rc)
	assert.ErrorIs(t, err, i18n.ErrorInvalidRole)

	branch, err := db.GetRoleByName(ctx, cnst.RoleBranch)
	require.NoError(t, err)
	bob, err := s.Register(ctx, RegisterInput{Username: "bob", Password: "x", Email: "bob@example.com", RoleID: &branch.ID}, rc)
	require.NoError(t, err)
	assert.Equal(t, cnst.RoleBranch, bob.RoleName())

	require.NoError(t, db.DeleteAccount(ctx, bob.ID))
	again, err := s.Register(ctx, RegisterInput{Username: "bob", Password: "x", Email: "bob@example.com"}, rc)
	require.NoError(t, err, "a deleted account frees its username and email")
	assert.NotEqual(t, bob.ID, again.ID)
}

func TestRegister_PasswordByteLimit(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Username: "zoe", Password: strings.Repeat("é", 72), Email: "zoe@example.com"}, RegistrationContext{})
	var verr *errorx.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "password", verr.Fields[0].Field)

	account, err := s.Register(ctx, RegisterInput{Username: "zoe", Password: "Passw0rd!", Email: "zoe@example.com"}, RegistrationContext{})
	require.NoError(t, err)
	err = s.ChangePassword(ctx, account.ID, "Passw0rd!", strings.Repeat("é", 40))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "newPassword", verr.Fields[0].Field)
}

func TestRegister_DefaultRoleIsLeastPrivileged(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	user, err := db.GetRoleByName(ctx, cnst.RoleDefault)
	require.NoError(t, err)
	assert.ErrorIs(t, db.DeleteRole(ctx, user.ID), database.ErrDefaultRole)

	require.NoError(t, db.CreateRole(ctx, &database.Role{Name: "guest", Level: user.Level + 1}))
	account, err := s.Register(ctx, RegisterInput{Username: "gina", Password: "x", Email: "gina@example.com"}, RegistrationContext{})
	require.NoError(t, err)
	assert.Equal(t, "guest", account.RoleName())
}

func TestResolveAccount(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	account, err := s.Register(ctx, RegisterInput{Username: "carol", Password: "x", Email: "carol@example.com"}, RegistrationContext{})
	require.NoError(t, err)

	got, err := s.ResolveAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)

	_, err = s.ResolveAccount(ctx, 0)
	assert.ErrorIs(t, err, ErrAccountUnavailable)

	require.NoError(t, db.DeleteAccount(ctx, account.ID))
	_, err = s.ResolveAccount(ctx, account.ID)
	assert.ErrorIs(t, err, ErrAccountUnavailable)
}

func TestChangePassword(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	account, err := s.Register(ctx, RegisterInput{Username: "dave", Password: "old-pass", Email: "dave@example.com"}, RegistrationContext{})
	require.NoError(t, err)

	err = s.ChangePassword(ctx, account.ID, "wrong", "new-pass")
	assert.ErrorIs(t, err, i18n.ErrorInvalidOldPassword)

	require.NoError(t, s.ChangePassword(ctx, account.ID, "old-pass", "new-pass"))
	_, err = s.Login(ctx, "dave", "old-pass", "")
	assert.ErrorIs(t, err, i18n.ErrorInvalidCredentials)
	_, err = s.Login(ctx, "dave", "new-pass", "")
	assert.NoError(t, err)
}

func TestUpdateAccount(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	erin, err := s.Register(ctx, RegisterInput{Username: "erin", Password: "x", Email: "erin@example.com"}, RegistrationContext{})
	require.NoError(t, err)

	taken := "admin"
	_, err = s.UpdateAccount(ctx, erin.ID, AccountUpdate{Username: &taken})
	assert.ErrorIs(t, err, i18n.ErrorUsernameExists)

	first := "Erin"
	verified := true
	got, err := s.UpdateAccount(ctx, erin.ID, AccountUpdate{FirstName: &first, IsVerified: &verified})
	require.NoError(t, err)
	assert.Equal(t, "Erin", got.FirstName)
	assert.True(t, got.IsVerified)
	assert.Equal(t, "erin", got.Username)

	_, err = s.UpdateAccount(ctx, 4242, AccountUpdate{FirstName: &first})
	assert.ErrorIs(t, err, i18n.ErrorAccountNotFound)
}

// staleDB answers every availability check with "free", as a replica that
// has not seen a concurrent write would
type staleDB struct {
	database.Database
}

func (staleDB) AccountFieldTaken(context.Context, database.AccountField, string) (bool, error) {
	return false, nil
}

func TestUpdateAccount_ConstraintNamesField(t *testing.T) {
	base, db := newTestService(t)
	s := NewService(staleDB{db}, base.tokens, zap.NewNop(), nil)
	ctx := context.Background()

	erin, err := s.Register(ctx, RegisterInput{Username: "erin", Password: "x", Email: "erin@example.com"}, RegistrationContext{})
	require.NoError(t, err)
	_, err = s.Register(ctx, RegisterInput{Username: "frank", Password: "x", Email: "frank@example.com"}, RegistrationContext{})
	require.NoError(t, err)

	email := "frank@example.com"
	_, err = s.UpdateAccount(ctx, erin.ID, AccountUpdate{Email: &email})
	assert.ErrorIs(t, err, i18n.ErrorEmailExists)

	same := "erin"
	_, err = s.UpdateAccount(ctx, erin.ID, AccountUpdate{Username: &same, Email: &email})
	assert.ErrorIs(t, err, i18n.ErrorEmailExists, "an unchanged username is not the conflict")

	name := "frank"
	_, err = s.UpdateAccount(ctx, erin.ID, AccountUpdate{Username: &name})
	assert.ErrorIs(t, err, i18n.ErrorUsernameExists)
}
