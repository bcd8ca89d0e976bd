package models

import (
	"time"
)

// Account lockout kicks in after this many consecutive failed logins.
const (
	MaxLoginAttempts = 5
	LockDuration     = 2 * time.Hour
)

// Account roles.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
	RoleOwner    = "owner"
)

// Address holds a user's home address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

// User represents a registered traveler account.
type User struct {
	BaseModel
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `gorm:"uniqueIndex" json:"email"`
	Phone           string     `gorm:"uniqueIndex" json:"phone"`
	PasswordHash    string     `json:"-"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Gender          string     `json:"gender"`
	Nationality     string     `json:"nationality"`
	Address         Address    `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Role            string     `gorm:"default:customer" json:"role"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	LoginAttempts   int        `json:"-"`
	LockUntil       *time.Time `json:"-"`
	LastLogin       *time.Time `json:"last_login"`
	Trips           []Trip     `json:"trips,omitempty"`
	Payments        []Payment  `json:"payments,omitempty"`
}

// IsLocked reports whether the account is under a failed-login lockout.
func (u *User) IsLocked() bool {
	return u.LockUntil != nil && u.LockUntil.After(time.Now())
}

// RegisterFailedLogin bumps the attempt counter and arms the lockout once
// the limit is reached. Returns true when the account just became locked.
func (u *User) RegisterFailedLogin(now time.Time) bool {
	u.LoginAttempts++
	if u.LoginAttempts >= MaxLoginAttempts {
		until := now.Add(LockDuration)
		u.LockUntil = &until
		return true
	}
	return false
}

// ResetLoginAttempts clears the failed-login state after a successful login.
func (u *User) ResetLoginAttempts() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}

// EffectiveRole falls back to customer when the role column is empty.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleCustomer
	}
	return u.Role
}

// ProfileCompletion returns the percentage of core profile fields filled in.
func (u *User) ProfileCompletion() int {
	fields := []bool{
		u.FirstName != "",
		u.LastName != "",
		u.Email != "",
		u.Phone != "",
		u.DateOfBirth != nil,
		u.Gender != "",
		u.Nationality != "",
		u.Address.City != "",
		u.Address.State != "",
		u.Address.Country != "",
		u.Address.ZipCode != "",
	}

	completed := 0
	for _, filled := range fields {
		if filled {
			completed++
		}
	}
	return int(float64(completed)/float64(len(fields))*100 + 0.5)
}
