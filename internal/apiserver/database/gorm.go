package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ifuryst/lol"
	"gorm.io/gorm"
)

// gormDatabase implements Database on top of any gorm dialector
type gormDatabase struct {
	db *gorm.DB
}

func newGormDatabase(db *gorm.DB) (*gormDatabase, error) {
	if err := db.AutoMigrate(models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &gormDatabase{db: db}, nil
}

// Close closes the database connection
func (g *gormDatabase) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *gormDatabase) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *gormDatabase) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TransactionFromContext(ctx) != nil {
		return fn(ctx)
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}

func (g *gormDatabase) Conn(ctx context.Context) *gorm.DB {
	return getDBFromContext(ctx, g.db)
}

func (g *gormDatabase) CreateAccount(ctx context.Context, account *Account) error {
	return translateError(g.Conn(ctx).Omit("Role").Create(account).Error)
}

func (g *gormDatabase) GetAccountByID(ctx context.Context, id uint) (*Account, error) {
	var account Account
	err := g.Conn(ctx).Preload("Role").First(&account, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (g *gormDatabase) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	var account Account
	err := g.Conn(ctx).Preload("Role").Where("username = ?", username).First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (g *gormDatabase) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := g.Conn(ctx).Preload("Role").Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (g *gormDatabase) ListAccounts(ctx context.Context) ([]*Account, error) {
	var accounts []*Account
	err := g.Conn(ctx).Preload("Role").Order("id asc").Find(&accounts).Error
	return accounts, translateError(err)
}

func (g *gormDatabase) AccountFieldTaken(ctx context.Context, field AccountField, value string) (bool, error) {
	switch field {
	case FieldUsername, FieldEmail:
	default:
		return false, fmt.Errorf("unknown account field %q", field)
	}
	var n int64
	err := g.Conn(ctx).Model(&Account{}).Where(string(field)+" = ?", value).Count(&n).Error
	return n > 0, translateError(err)
}

// UpdateAccount writes the profile, role and flag columns. Password, login
// stamp and timestamps have their own paths.
func (g *gormDatabase) UpdateAccount(ctx context.Context, account *Account) error {
	res := g.Conn(ctx).Model(&Account{}).Where("id = ?", account.ID).
		Select("username", "email", "first_name", "last_name", "phone", "role_id", "is_verified", "is_active", "updated_at").
		Updates(&Account{
			Username:   account.Username,
			Email:      account.Email,
			FirstName:  account.FirstName,
			LastName:   account.LastName,
			Phone:      account.Phone,
			RoleID:     account.RoleID,
			IsVerified: account.IsVerified,
			IsActive:   account.IsActive,
			UpdatedAt:  time.Now(),
		})
	return g.updated(ctx, res, &Account{}, "id = ?", account.ID)
}

func (g *gormDatabase) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	res := g.Conn(ctx).Model(&Account{}).Where("id = ?", id).Update("last_login_at", at)
	return g.updated(ctx, res, &Account{}, "id = ?", id)
}

func (g *gormDatabase) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := g.Conn(ctx).Model(&Account{}).Where("id = ?", id).Update("password_hash", hash)
	return g.updated(ctx, res, &Account{}, "id = ?", id)
}

func (g *gormDatabase) DeleteAccount(ctx context.Context, id uint) error {
	return g.Transaction(ctx, func(ctx context.Context) error {
		if err := affected(g.Conn(ctx).Delete(&Account{}, id)); err != nil {
			return err
		}
		// mysql has no partial indexes, so the dead row gives its names up
		if g.db.Dialector.Name() != "mysql" {
			return nil
		}
		return translateError(g.Conn(ctx).Unscoped().Model(&Account{}).Where("id = ?", id).
			UpdateColumns(map[string]any{
				"username": fmt.Sprintf("deleted#%d", id),
				"email":    fmt.Sprintf("deleted#%d@deleted.invalid", id),
			}).Error)
	})
}

func (g *gormDatabase) CreateRegistrationMetadata(ctx context.Context, meta *RegistrationMetadata) error {
	return translateError(g.Conn(ctx).Omit("Account").Create(meta).Error)
}

func (g *gormDatabase) GetRegistrationMetadata(ctx context.Context, accountID uint) (*RegistrationMetadata, error) {
	var meta RegistrationMetadata
	err := g.Conn(ctx).Where("account_id = ?", accountID).First(&meta).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &meta, nil
}

func (g *gormDatabase) UpdateRegistrationMetadata(ctx context.Context, meta *RegistrationMetadata) error {
	res := g.Conn(ctx).Model(&RegistrationMetadata{}).Where("account_id = ?", meta.AccountID).
		Select("ip_address", "user_agent", "referrer", "utm_source", "utm_medium", "utm_campaign", "updated_at").
		Updates(&RegistrationMetadata{
			IPAddress:   meta.IPAddress,
			UserAgent:   meta.UserAgent,
			Referrer:    meta.Referrer,
			UTMSource:   meta.UTMSource,
			UTMMedium:   meta.UTMMedium,
			UTMCampaign: meta.UTMCampaign,
			UpdatedAt:   time.Now(),
		})
	return g.updated(ctx, res, &RegistrationMetadata{}, "account_id = ?", meta.AccountID)
}

func (g *gormDatabase) CreateRole(ctx context.Context, role *Role) error {
	role.Permissions = lol.UniqSlice(role.Permissions)
	return translateError(g.Conn(ctx).Create(role).Error)
}

func (g *gormDatabase) GetRoleByID(ctx context.Context, id uint) (*Role, error) {
	var role Role
	if err := g.Conn(ctx).First(&role, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

func (g *gormDatabase) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	if err := g.Conn(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

func (g *gormDatabase) GetDefaultRole(ctx context.Context) (*Role, error) {
	var role Role
	if err := g.Conn(ctx).Order("level desc, id asc").First(&role).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

func (g *gormDatabase) ListRoles(ctx context.Context) ([]*Role, error) {
	var roles []*Role
	err := g.Conn(ctx).Order("level asc, id asc").Find(&roles).Error
	return roles, translateError(err)
}

func (g *gormDatabase) UpdateRole(ctx context.Context, role *Role) error {
	role.Permissions = lol.UniqSlice(role.Permissions)
	res := g.Conn(ctx).Model(&Role{}).Where("id = ?", role.ID).
		Select("name", "description", "level", "permissions", "updated_at").
		Updates(&Role{
			Name:        role.Name,
			Description: role.Description,
			Level:       role.Level,
			Permissions: role.Permissions,
			UpdatedAt:   time.Now(),
		})
	return g.updated(ctx, res, &Role{}, "id = ?", role.ID)
}

func (g *gormDatabase) DeleteRole(ctx context.Context, id uint) error {
	return g.Transaction(ctx, func(ctx context.Context) error {
		def, err := g.GetDefaultRole(ctx)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if def != nil && def.ID == id {
			return ErrDefaultRole
		}
		n, err := g.CountAccountsByRole(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrInUse
		}
		// soft deleted accounts keep the row, so detach them explicitly
		if err := g.Conn(ctx).Unscoped().Model(&Account{}).
			Where("role_id = ?", id).Update("role_id", nil).Error; err != nil {
			return translateError(err)
		}
		return affected(g.Conn(ctx).Delete(&Role{}, id))
	})
}

func (g *gormDatabase) CountAccountsByRole(ctx context.Context, roleID uint) (int64, error) {
	var n int64
	err := g.Conn(ctx).Model(&Account{}).Where("role_id = ?", roleID).Count(&n).Error
	return n, translateError(err)
}

// affected maps a write that matched no row to ErrNotFound
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// updated is affected for UPDATE statements. MySQL reports changed rather
// than matched rows, so a zero count is confirmed with a lookup.
func (g *gormDatabase) updated(ctx context.Context, res *gorm.DB, model any, query string, arg any) error {
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := g.Conn(ctx).Model(model).Where(query, arg).Count(&n).Error; err != nil {
		return translateError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// translateError maps driver errors onto the package sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDuplicateKey(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrInUse, err)
	default:
		return err
	}
}

func isDuplicateKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint")
}
