package client

import (
	"context"

	"github.com/dmitrijs2005/userhub/internal/client/models"
)

// Client is the typed surface of the userhub REST API used by the CLI.
type Client interface {
	Ping(ctx context.Context) error

	Register(ctx context.Context, in RegisterInput) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	UpdatePassword(ctx context.Context, current, next string) (*models.TokenPair, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*models.User, error)
	AvatarUploadURL(ctx context.Context, contentType string) (*models.AvatarUpload, error)
	UploadAvatar(ctx context.Context, upload *models.AvatarUpload, contentType string, data []byte) error

	ListUsers(ctx context.Context, q models.ListQuery) (*models.Page, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetUserActive(ctx context.Context, id string, active bool) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type ProfileInput struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}
