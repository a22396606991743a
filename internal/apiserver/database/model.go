package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role is a named permission bundle. Lower levels are more privileged.
type Role struct {
	ID          uint                        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string                      `json:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string                      `json:"description" gorm:"type:varchar(255)"`
	Level       int                         `json:"level" gorm:"not null"`
	Permissions datatypes.JSONSlice[string] `json:"permissions"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// Account is a user identity. Rows are soft deleted and every query made
// through gorm filters on deleted_at. Username and email are unique among
// live rows only.
type Account struct {
	ID           uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string         `json:"username" gorm:"type:varchar(50);uniqueIndex:idx_accounts_username,where:deleted_at IS NULL;not null"`
	Email        string         `json:"email" gorm:"type:varchar(255);uniqueIndex:idx_accounts_email,where:deleted_at IS NULL;not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string         `json:"firstName" gorm:"type:varchar(100)"`
	LastName     string         `json:"lastName" gorm:"type:varchar(100)"`
	Phone        string         `json:"phone" gorm:"type:varchar(50)"`
	RoleID       *uint          `json:"roleId" gorm:"index"`
	Role         *Role          `json:"role,omitempty" gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	IsVerified   bool           `json:"isVerified" gorm:"not null"`
	IsActive     bool           `json:"isActive" gorm:"not null"`
	LastLoginAt  *time.Time     `json:"lastLoginAt"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// RoleName returns the name of the loaded role, or "" when none is assigned
func (a *Account) RoleName() string {
	if a == nil || a.Role == nil {
		return ""
	}
	return a.Role.Name
}

// RegistrationMetadata records where a signup came from. It is written once
// and only changed through the admin correction endpoint.
type RegistrationMetadata struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	AccountID   uint      `json:"accountId" gorm:"uniqueIndex;not null"`
	Account     *Account  `json:"-" gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	IPAddress   string    `json:"ipAddress" gorm:"type:varchar(64)"`
	UserAgent   string    `json:"userAgent" gorm:"type:text"`
	Referrer    string    `json:"referrer" gorm:"type:text"`
	UTMSource   string    `json:"utmSource" gorm:"type:varchar(255)"`
	UTMMedium   string    `json:"utmMedium" gorm:"type:varchar(255)"`
	UTMCampaign string    `json:"utmCampaign" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (RegistrationMetadata) TableName() string {
	return "registration_metadata"
}

// models lists every table managed by AutoMigrate, parents first
func models() []any {
	return []any{
		&Role{},
		&Account{},
		&RegistrationMetadata{},
		&Continent{},
		&Country{},
		&State{},
		&District{},
		&Ad{},
		&Gallery{},
		&Term{},
		&SocialLink{},
		&Feedback{},
	}
}
