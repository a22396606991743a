package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/config"
)

// SeedRoles creates the fixed roles that do not exist yet. Existing roles
// are left untouched so admin edits survive restarts.
func SeedRoles(ctx context.Context, db Database) error {
	for _, sr := range cnst.SeedRoles() {
		_, err := db.GetRoleByName(ctx, sr.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		role := &Role{
			Name:        sr.Name,
			Description: sr.Description,
			Level:       sr.Level,
			Permissions: sr.Permissions,
		}
		if err := db.CreateRole(ctx, role); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed role %s: %w", sr.Name, err)
		}
	}
	return nil
}

// SeedSuperAdmin creates the configured admin account once. hash turns the
// configured password into the stored hash.
func SeedSuperAdmin(ctx context.Context, db Database, cfg config.SuperAdminConfig, hash func(string) (string, error)) (bool, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return false, nil
	}
	if _, err := db.GetAccountByUsername(ctx, cfg.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	role, err := db.GetRoleByName(ctx, cnst.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("admin role: %w", err)
	}
	passwordHash, err := hash(cfg.Password)
	if err != nil {
		return false, err
	}

	email := cfg.Email
	if email == "" {
		email = cfg.Username + "@localhost"
	}
	account := &Account{
		Username:     cfg.Username,
		Email:        email,
		PasswordHash: passwordHash,
		RoleID:       &role.ID,
		IsVerified:   true,
		IsActive:     true,
	}
	if err := db.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
