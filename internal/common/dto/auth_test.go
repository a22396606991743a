package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apphub-org/apphub/internal/apiserver/database"
)

func TestNewUserProfile_OmitsHash(t *testing.T) {
	now := time.Now()
	a := &database.Account{
		ID:           3,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$secret",
		Role:         &database.Role{Name: "admin"},
		IsActive:     true,
		LastLoginAt:  &now,
	}
	p := NewUserProfile(a)
	assert.Equal(t, "admin", p.Role)
	assert.Equal(t, uint(3), p.ID)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), `"isActive":true`)
}

func TestNewUserProfile_NoRole(t *testing.T) {
	p := NewUserProfile(&database.Account{ID: 1, Username: "x"})
	assert.Equal(t, "", p.Role)
	assert.Nil(t, p.LastLoginAt)
}

func TestNewUserProfiles(t *testing.T) {
	out := NewUserProfiles(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out = NewUserProfiles([]*database.Account{{ID: 1}, {ID: 2}})
	assert.Len(t, out, 2)
}
