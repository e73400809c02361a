package rest

import (
	"time"

	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/dmitrijs2005/userhub/internal/server/models"
)

// accountView is the public representation of an account.
type accountView struct {
	ID              string      `json:"id"`
	Email           string      `json:"email"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	FullName        string      `json:"fullName"`
	Avatar          *string     `json:"avatar"`
	Role            models.Role `json:"role"`
	IsActive        bool        `json:"isActive"`
	IsEmailVerified bool        `json:"isEmailVerified"`
	LastLogin       *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func viewOf(a *models.Account) accountView {
	return accountView{
		ID:              a.ID,
		Email:           a.Email,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		FullName:        a.FullName(),
		Avatar:          a.Avatar,
		Role:            a.Role,
		IsActive:        a.IsActive,
		IsEmailVerified: a.IsEmailVerified,
		LastLogin:       a.LastLoginAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

type userData struct {
	User accountView `json:"user"`
}

type sessionData struct {
	User         accountView `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func sessionOf(a *models.Account, pair *auth.TokenPair) sessionData {
	return sessionData{User: viewOf(a), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
}
