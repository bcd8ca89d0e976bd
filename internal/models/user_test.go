package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLockout(t *testing.T) {
	now := time.Now()
	u := &User{}

	for i := 0; i < MaxLoginAttempts-1; i++ {
		locked := u.RegisterFailedLogin(now)
		assert.False(t, locked)
		assert.False(t, u.IsLocked())
	}

	locked := u.RegisterFailedLogin(now)
	assert.True(t, locked)
	assert.True(t, u.IsLocked())
	require.NotNil(t, u.LockUntil)
	assert.WithinDuration(t, now.Add(LockDuration), *u.LockUntil, time.Second)

	u.ResetLoginAttempts()
	assert.Equal(t, 0, u.LoginAttempts)
	assert.False(t, u.IsLocked())
}

func TestUserLockExpires(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	u := &User{LoginAttempts: MaxLoginAttempts, LockUntil: &past}
	assert.False(t, u.IsLocked())
}

func TestEffectiveRole(t *testing.T) {
	u := &User{}
	assert.Equal(t, RoleCustomer, u.EffectiveRole())

	u.Role = RoleOwner
	assert.Equal(t, RoleOwner, u.EffectiveRole())
}

func TestProfileCompletion(t *testing.T) {
	u := &User{}
	assert.Equal(t, 0, u.ProfileCompletion())

	dob := time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
	u = &User{
		FirstName:   "Aiko",
		LastName:    "Tanaka",
		Email:       "aiko@example.com",
		Phone:       "+81312345678",
		DateOfBirth: &dob,
		Gender:      "female",
		Nationality: "Japanese",
		Address: Address{
			City: "Tokyo", State: "Tokyo", Country: "Japan", ZipCode: "100-0001",
		},
	}
	assert.Equal(t, 100, u.ProfileCompletion())

	u.Nationality = ""
	u.Address.ZipCode = ""
	// 9 of 11 fields filled.
	assert.Equal(t, 82, u.ProfileCompletion())
}
