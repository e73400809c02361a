// Package models defines the API payloads the userhub CLI works with.
package models

import (
	"fmt"
	"time"
)

// User is an account as rendered by the REST API.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	FullName        string     `json:"fullName"`
	Avatar          *string    `json:"avatar"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"isActive"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (u *User) String() string {
	state := "active"
	if !u.IsActive {
		state = "inactive"
	}
	return fmt.Sprintf("%s  %-30s %-20s %-9s %s", u.ID, u.Email, u.FullName, u.Role, state)
}

// TokenPair is the access/refresh pair issued on login, registration,
// refresh and password change.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is a user together with a freshly issued token pair.
type Session struct {
	User *User `json:"user"`
	TokenPair
}

// AvatarUpload is a presigned upload target for a new avatar image.
type AvatarUpload struct {
	UploadURL string    `json:"uploadUrl"`
	AvatarURL string    `json:"avatarUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FieldError is one rejected input field reported by the server.
type FieldError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}
