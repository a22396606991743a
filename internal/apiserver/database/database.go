package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no live row matches
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
	// ErrInUse is returned when other rows still reference the record
	ErrInUse = errors.New("record in use")
	// ErrParentNotFound is returned when a child references a missing parent
	ErrParentNotFound = errors.New("parent record not found")
	// ErrDefaultRole is returned when deleting the role new accounts receive
	ErrDefaultRole = errors.New("default role")
)

// AccountField names a unique account column
type AccountField string

const (
	FieldUsername AccountField = "username"
	FieldEmail    AccountField = "email"
)

// Database defines the methods for database operations.
// Every method runs inside the transaction carried by ctx, if any.
type Database interface {
	// Close closes the database connection.
	Close() error
	// Ping checks the connection is alive.
	Ping(ctx context.Context) error
	// Transaction runs fn in a transaction. Nested calls join the outer one.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Conn returns the gorm handle bound to ctx, for generic stores.
	Conn(ctx context.Context) *gorm.DB

	CreateAccount(ctx context.Context, account *Account) error
	// GetAccountByID returns a live account with its role loaded.
	GetAccountByID(ctx context.Context, id uint) (*Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	// AccountFieldTaken reports whether a live account holds value in the
	// username or email column.
	AccountFieldTaken(ctx context.Context, field AccountField, value string) (bool, error)
	UpdateAccount(ctx context.Context, account *Account) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	// DeleteAccount soft deletes the account and frees its username and email.
	DeleteAccount(ctx context.Context, id uint) error

	CreateRegistrationMetadata(ctx context.Context, meta *RegistrationMetadata) error
	GetRegistrationMetadata(ctx context.Context, accountID uint) (*RegistrationMetadata, error)
	UpdateRegistrationMetadata(ctx context.Context, meta *RegistrationMetadata) error

	CreateRole(ctx context.Context, role *Role) error
	GetRoleByID(ctx context.Context, id uint) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	// GetDefaultRole returns the least privileged role, the oldest one on a
	// level tie.
	GetDefaultRole(ctx context.Context) (*Role, error)
	ListRoles(ctx context.Context) ([]*Role, error)
	UpdateRole(ctx context.Context, role *Role) error
	// DeleteRole fails with ErrInUse while a live account references the role
	// and with ErrDefaultRole for the role GetDefaultRole returns.
	DeleteRole(ctx context.Context, id uint) error
	CountAccountsByRole(ctx context.Context, roleID uint) (int64, error)
}
