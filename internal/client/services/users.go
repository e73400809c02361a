package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/userhub/internal/client/client"
	"github.com/dmitrijs2005/userhub/internal/client/models"
)

var ErrNotAnImage = errors.New("file is not an image")

// UserService wraps the profile and administrator endpoints.
type UserService interface {
	UpdateProfile(ctx context.Context, in client.ProfileInput) (*models.User, error)
	SetAvatar(ctx context.Context, data []byte) (*models.User, error)
	List(ctx context.Context, q models.ListQuery) (*models.Page, error)
	Get(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	client client.Client
}

func NewUserService(c client.Client) UserService {
	return &userService{client: c}
}

func (s *userService) UpdateProfile(ctx context.Context, in client.ProfileInput) (*models.User, error) {
	return s.client.UpdateProfile(ctx, in)
}

// SetAvatar uploads data through a presigned URL and then points the
// profile at the uploaded object.
func (s *userService) SetAvatar(ctx context.Context, data []byte) (*models.User, error) {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, contentType)
	}

	up, err := s.client.AvatarUploadURL(ctx, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.client.UploadAvatar(ctx, up, contentType, data); err != nil {
		return nil, err
	}
	return s.client.UpdateProfile(ctx, client.ProfileInput{Avatar: &up.AvatarURL})
}

func (s *userService) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	return s.client.ListUsers(ctx, q)
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.client.GetUser(ctx, id)
}

func (s *userService) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	return s.client.SetUserActive(ctx, id, active)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	return s.client.DeleteUser(ctx, id)
}
