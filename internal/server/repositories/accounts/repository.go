// Package accounts stores user accounts. Lookups of absent accounts return
// common.ErrorNotFound and duplicate emails common.ErrorAlreadyExists.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userhub/internal/server/models"
)

type Repository interface {
	// Create inserts a. An empty a.ID is filled with a new UUID; CreatedAt and
	// UpdatedAt are set by the store.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// SetRefreshToken replaces the stored refresh token; nil clears it.
	SetRefreshToken(ctx context.Context, id string, token *string) error
	// RecordLogin stores the rotated refresh token and the login time.
	RecordLogin(ctx context.Context, id, refreshToken string, at time.Time) error
	// UpdatePassword stores a new hash, its change time and the refresh token
	// issued alongside it.
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time, refreshToken string) error

	UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Account, error)
	UpdateAdmin(ctx context.Context, id string, u models.AdminUpdate) (*models.Account, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Account, error)
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, q models.ListQuery) (*models.Page, error)
}
