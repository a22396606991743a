package dto

import (
	"time"

	"github.com/apphub-org/apphub/internal/apiserver/database"
)

// LoginRequest represents a login request. Emptiness is checked by the
// service so the error never names the missing field.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	User  *UserProfile `json:"user"`
	Token string       `json:"token"`
	// ExpiresIn is the token lifetime in seconds
	ExpiresIn int64 `json:"expiresIn"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username    string `json:"username" binding:"max=50"`
	Password    string `json:"password" binding:"max=72"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	FirstName   string `json:"firstName" binding:"max=100"`
	LastName    string `json:"lastName" binding:"max=100"`
	Phone       string `json:"phone" binding:"max=50"`
	RoleID      *uint  `json:"roleId"`
	Referrer    string `json:"referrer"`
	UTMSource   string `json:"utmSource" binding:"max=255"`
	UTMMedium   string `json:"utmMedium" binding:"max=255"`
	UTMCampaign string `json:"utmCampaign" binding:"max=255"`
}

// RegisterResponse never carries the password hash
type RegisterResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MeResponse identifies the authenticated account
type MeResponse struct {
	UserID   uint   `json:"userId"`
	UserRole string `json:"userRole"`
}

// ChangePasswordRequest represents a request to change password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// UserProfile is the public view of an account
type UserProfile struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	IsVerified  bool       `json:"isVerified"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewUserProfile converts an account, dropping the password hash
func NewUserProfile(a *database.Account) *UserProfile {
	return &UserProfile{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Phone:       a.Phone,
		Role:        a.RoleName(),
		IsVerified:  a.IsVerified,
		IsActive:    a.IsActive,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

// NewUserProfiles converts a list of accounts
func NewUserProfiles(accounts []*database.Account) []*UserProfile {
	out := make([]*UserProfile, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewUserProfile(a))
	}
	return out
}
