// Package models holds the server-side domain types shared by repositories,
// services and transports.
package models

import (
	"strings"
	"time"
)

// Account is a registered user. PasswordHash and RefreshToken never leave the
// server; the REST layer renders accounts through a separate view.
type Account struct {
	ID                string     `db:"id"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	Avatar            *string    `db:"avatar"`
	Role              Role       `db:"role"`
	IsActive          bool       `db:"is_active"`
	IsEmailVerified   bool       `db:"is_email_verified"`
	RefreshToken      *string    `db:"refresh_token"`
	PasswordChangedAt *time.Time `db:"password_changed_at"`
	LastLoginAt       *time.Time `db:"last_login_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ChangedPasswordAfter reports whether the password was changed after a token
// issued at iat (unix seconds) was minted.
func (a *Account) ChangedPasswordAfter(iat int64) bool {
	if a.PasswordChangedAt == nil {
		return false
	}
	return a.PasswordChangedAt.Unix() > iat
}

// HasRefreshToken reports whether token is exactly the stored refresh token.
func (a *Account) HasRefreshToken(token string) bool {
	return a.RefreshToken != nil && *a.RefreshToken == token
}

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileUpdate carries self-service changes. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Avatar    *string
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Avatar == nil
}

// AdminUpdate carries administrator changes to another account.
type AdminUpdate struct {
	FirstName       *string
	LastName        *string
	Role            *Role
	IsActive        *bool
	IsEmailVerified *bool
}

func (u AdminUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Role == nil &&
		u.IsActive == nil && u.IsEmailVerified == nil
}
