package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/auth/jwt"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/errorx"
	"github.com/apphub-org/apphub/internal/i18n"
	"github.com/apphub-org/apphub/pkg/metrics"
	"github.com/apphub-org/apphub/pkg/trace"
)

// ErrAccountUnavailable is returned by ResolveAccount when the account is
// gone or disabled. Callers treat it as "not authenticated".
var ErrAccountUnavailable = errors.New("account unavailable")

// Service implements login, registration and account resolution
type Service struct {
	db      database.Database
	tokens  *jwt.Service
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  *trace.Builder
	now     func() time.Time
}

// NewService creates the account service. m may be nil.
func NewService(db database.Database, tokens *jwt.Service, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		tokens:  tokens,
		logger:  logger.Named("auth"),
		metrics: m,
		tracer:  trace.Tracer(cnst.TraceAuth),
		now:     time.Now,
	}
}

// LoginResult is a verified account and its freshly issued token
type LoginResult struct {
	Account   *database.Account
	Token     string
	ExpiresIn time.Duration
}

// Login checks credentials for an entry point restricted to requiredRole.
// An empty requiredRole admits any role. The role is checked before the
// password, so a correct password on the wrong role still reads as denied.
func (s *Service) Login(ctx context.Context, username, password, requiredRole string) (*LoginResult, error) {
	scope := s.tracer.Start(ctx, cnst.SpanLogin)
	defer scope.End()

	res, err := s.login(scope.Ctx, username, password, requiredRole)
	scope.RecordError(err)
	s.metrics.Login(loginOutcome(err))
	if err != nil {
		return nil, err
	}
	scope.WithAttrs(
		attribute.Int64(cnst.AttrAccountID, int64(res.Account.ID)),
		attribute.String(cnst.AttrRole, res.Account.RoleName()),
	)
	return res, nil
}

func (s *Service) login(ctx context.Context, username, password, requiredRole string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, i18n.ErrorUserNamePasswordRequired
	}

	account, err := s.db.GetAccountByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, i18n.ErrorInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if requiredRole != "" && account.RoleName() != requiredRole {
		return nil, i18n.ErrorAccessDenied.WithParam("Role", requiredRole)
	}

	ok, err := VerifyPassword(account.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, i18n.ErrorInvalidCredentials
	}
	if !account.IsActive {
		return nil, i18n.ErrorAccountDisabled
	}

	return s.issue(ctx, account)
}

// IssueToken stamps the login time and signs a token for an account that
// has already been authenticated, such as right after signup.
func (s *Service) IssueToken(ctx context.Context, account *database.Account) (*LoginResult, error) {
	return s.issue(ctx, account)
}

func (s *Service) issue(ctx context.Context, account *database.Account) (*LoginResult, error) {
	now := s.now()
	if err := s.db.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("stamp last login: %w", err)
	}
	account.LastLoginAt = &now

	token, err := s.tokens.GenerateToken(account.ID, account.Username, account.RoleName())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("account logged in",
		zap.Uint("account_id", account.ID),
		zap.String("role", account.RoleName()))
	return &LoginResult{Account: account, Token: token, ExpiresIn: s.tokens.Duration()}, nil
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.LoginSuccess
	case errors.Is(err, i18n.ErrorInvalidCredentials), errors.Is(err, i18n.ErrorUserNamePasswordRequired):
		return metrics.LoginInvalid
	case errors.Is(err, i18n.ErrorAccessDenied), errors.Is(err, i18n.ErrorAccountDisabled):
		return metrics.LoginDenied
	default:
		return metrics.LoginError
	}
}

// RegisterInput holds the fields a new account is created from
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	// RoleID selects a role; nil means the least privileged one.
	RoleID *uint
}

// RegistrationContext describes where a signup came from
type RegistrationContext struct {
	IPAddress   string
	UserAgent   string
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// Register creates an account together with its registration metadata
func (s *Service) Register(ctx context.Context, in RegisterInput, rc RegistrationContext) (*database.Account, error) {
	scope := s.tracer.Start(ctx, cnst.SpanRegister)
	defer scope.End()
	ctx = scope.Ctx

	account, err := s.register(ctx, in, rc)
	scope.RecordError(err)
	if err != nil {
		return nil, err
	}
	s.metrics.Registered()
	scope.WithAttrs(attribute.Int64(cnst.AttrAccountID, int64(account.ID)))
	s.logger.Info("account registered",
		zap.Uint("account_id", account.ID),
		zap.String("role", account.RoleName()),
		zap.String("ip", rc.IPAddress))
	return account, nil
}

func (s *Service) register(ctx context.Context, in RegisterInput, rc RegistrationContext) (*database.Account, error) {
	if in.Username == "" || in.Password == "" || in.Email == "" {
		return nil, i18n.ErrorRegistrationRequired
	}
	if err := s.checkAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	role, err := s.resolveRole(ctx, in.RoleID)
	if err != nil {
		return nil, err
	}

	hash, err := hashField("password", in.Password)
	if err != nil {
		return nil, err
	}

	account := &database.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		RoleID:       &role.ID,
		IsActive:     true,
	}
	err = s.db.Transaction(ctx, func(ctx context.Context) error {
		if err := s.db.CreateAccount(ctx, account); err != nil {
			return err
		}
		return s.db.CreateRegistrationMetadata(ctx, &database.RegistrationMetadata{
			AccountID:   account.ID,
			IPAddress:   rc.IPAddress,
			UserAgent:   rc.UserAgent,
			Referrer:    rc.Referrer,
			UTMSource:   rc.UTMSource,
			UTMMedium:   rc.UTMMedium,
			UTMCampaign: rc.UTMCampaign,
		})
	})
	if errors.Is(err, database.ErrDuplicate) {
		// lost a race with a concurrent signup
		return nil, s.conflict(ctx, in.Username, in.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	account.Role = role
	return account, nil
}

// hashField hashes a password taken from the named request field. Inputs
// bcrypt cannot take are reported against that field.
func hashField(field, plain string) (string, error) {
	hash, err := HashPassword(plain)
	if errors.Is(err, ErrPasswordTooLong) {
		return "", errorx.NewValidationError(errorx.FieldError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes),
		})
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// resolveRole returns the requested role, or the least privileged one when
// id is nil
func (s *Service) resolveRole(ctx context.Context, id *uint) (*database.Role, error) {
	if id == nil {
		role, err := s.db.GetDefaultRole(ctx)
		if err != nil {
			return nil, fmt.Errorf("default role: %w", err)
		}
		return role, nil
	}
	role, err := s.db.GetRoleByID(ctx, *id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, i18n.ErrorInvalidRole
	}
	if err != nil {
		return nil, fmt.Errorf("lookup role: %w", err)
	}
	return role, nil
}

// checkAvailable reports a conflict on username first, then email. Names
// held by deleted accounts are free.
func (s *Service) checkAvailable(ctx context.Context, username, email string) error {
	taken, err := s.db.AccountFieldTaken(ctx, database.FieldUsername, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return i18n.ErrorUsernameExists
	}
	taken, err = s.db.AccountFieldTaken(ctx, database.FieldEmail, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return i18n.ErrorEmailExists
	}
	return nil
}

// conflict names the field behind a unique constraint violation
func (s *Service) conflict(ctx context.Context, username, email string) error {
	if err := s.checkAvailable(ctx, username, email); err != nil {
		return err
	}
	return i18n.ErrorUsernameExists
}

// ResolveAccount loads a live, active account for an authenticated request
func (s *Service) ResolveAccount(ctx context.Context, id uint) (*database.Account, error) {
	if id == 0 {
		return nil, ErrAccountUnavailable
	}
	account, err := s.db.GetAccountByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAccountUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrAccountUnavailable
	}
	return account, nil
}

// ValidateToken verifies a bearer token and returns its claims
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokens.ValidateToken(token)
}

// ChangePassword replaces the password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, accountID uint, oldPassword, newPassword string) error {
	account, err := s.db.GetAccountByID(ctx, accountID)
	if errors.Is(err, database.ErrNotFound) {
		return i18n.ErrorAccountNotFound
	}
	if err != nil {
		return err
	}
	ok, err := VerifyPassword(account.PasswordHash, oldPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return i18n.ErrorInvalidOldPassword
	}
	hash, err := hashField("newPassword", newPassword)
	if err != nil {
		return err
	}
	if err := s.db.UpdatePassword(ctx, accountID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.Uint("account_id", accountID))
	return nil
}

// AccountUpdate lists the admin editable account fields; nil leaves a
// field unchanged.
type AccountUpdate struct {
	Username   *string
	Email      *string
	FirstName  *string
	LastName   *string
	Phone      *string
	RoleID     *uint
	IsVerified *bool
	IsActive   *bool
}

// UpdateAccount applies an admin edit, re-checking username and email
func (s *Service) UpdateAccount(ctx context.Context, id uint, upd AccountUpdate) (*database.Account, error) {
	var out *database.Account
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		account, err := s.db.GetAccountByID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return i18n.ErrorAccountNotFound
		}
		if err != nil {
			return err
		}

		if upd.Username != nil && *upd.Username != account.Username {
			if err := s.checkField(ctx, database.FieldUsername, *upd.Username, i18n.ErrorUsernameExists); err != nil {
				return err
			}
			account.Username = *upd.Username
		}
		if upd.Email != nil && *upd.Email != account.Email {
			if err := s.checkField(ctx, database.FieldEmail, *upd.Email, i18n.ErrorEmailExists); err != nil {
				return err
			}
			account.Email = *upd.Email
		}
		if upd.RoleID != nil {
			role, err := s.resolveRole(ctx, upd.RoleID)
			if err != nil {
				return err
			}
			account.RoleID = &role.ID
			account.Role = role
		}
		assign(&account.FirstName, upd.FirstName)
		assign(&account.LastName, upd.LastName)
		assign(&account.Phone, upd.Phone)
		assign(&account.IsVerified, upd.IsVerified)
		assign(&account.IsActive, upd.IsActive)

		if err := s.db.UpdateAccount(ctx, account); err != nil {
			return err
		}
		out = account
		return nil
	})
	if errors.Is(err, database.ErrDuplicate) {
		// lost a race with a concurrent write; the failed transaction is
		// gone, so look again outside it
		return nil, s.updateConflict(ctx, id, upd)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// updateConflict names the field another live account now holds
func (s *Service) updateConflict(ctx context.Context, id uint, upd AccountUpdate) error {
	if upd.Username != nil {
		other, err := s.db.GetAccountByUsername(ctx, *upd.Username)
		if err == nil && other.ID != id {
			return i18n.ErrorUsernameExists
		}
	}
	if upd.Email != nil {
		other, err := s.db.GetAccountByEmail(ctx, *upd.Email)
		if err == nil && other.ID != id {
			return i18n.ErrorEmailExists
		}
	}
	if upd.Username == nil && upd.Email != nil {
		return i18n.ErrorEmailExists
	}
	return i18n.ErrorUsernameExists
}

func (s *Service) checkField(ctx context.Context, field database.AccountField, value string, conflict error) error {
	taken, err := s.db.AccountFieldTaken(ctx, field, value)
	if err != nil {
		return err
	}
	if taken {
		return conflict
	}
	return nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
