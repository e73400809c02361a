package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/repositories/accounts"
	"github.com/google/uuid"
)

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// AvatarUpload is a presigned direct upload target. After a successful PUT the
// client stores AvatarURL through UpdateProfile.
type AvatarUpload struct {
	UploadURL string    `json:"uploadUrl"`
	AvatarURL string    `json:"avatarUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UsersService covers profile self-service and administrator operations on
// accounts.
type UsersService struct {
	repo    accounts.Repository
	avatars AvatarStore
	log     logging.Logger
}

// NewUsersService builds the service. avatars may be nil, which disables
// avatar uploads.
func NewUsersService(repo accounts.Repository, avatars AvatarStore, log logging.Logger) *UsersService {
	return &UsersService{repo: repo, avatars: avatars, log: log}
}

func (s *UsersService) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	q.Normalize()
	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return page, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (*models.Account, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.wrap(s.repo.GetByID(ctx, id))
}

func (s *UsersService) UpdateProfile(ctx context.Context, accountID string, u models.ProfileUpdate) (*models.Account, error) {
	if u.Empty() {
		return nil, common.Validation("At least one field must be provided")
	}
	return s.wrap(s.repo.UpdateProfile(ctx, accountID, u))
}

func (s *UsersService) Update(ctx context.Context, id string, u models.AdminUpdate) (*models.Account, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if u.Empty() {
		return nil, common.Validation("At least one field must be provided")
	}
	if u.Role != nil && !u.Role.Valid() {
		return nil, common.Validation("Invalid role %q", *u.Role)
	}

	account, err := s.wrap(s.repo.UpdateAdmin(ctx, id, u))
	if err == nil {
		s.log.Info(ctx, "account updated by admin", "account_id", id)
	}
	return account, err
}

// Delete removes an account permanently. Administrators cannot delete
// themselves.
func (s *UsersService) Delete(ctx context.Context, actorID, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if actorID == id {
		return common.Validation("You cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		_, err = s.wrap(nil, err)
		return err
	}
	s.log.Info(ctx, "account deleted", "account_id", id, "by", actorID)
	return nil
}

func (s *UsersService) Activate(ctx context.Context, id string) (*models.Account, error) {
	return s.setActive(ctx, id, true)
}

func (s *UsersService) Deactivate(ctx context.Context, id string) (*models.Account, error) {
	return s.setActive(ctx, id, false)
}

func (s *UsersService) setActive(ctx context.Context, id string, active bool) (*models.Account, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.wrap(s.repo.SetActive(ctx, id, active))
}

// AvatarUploadURL presigns an upload for the caller's avatar.
func (s *UsersService) AvatarUploadURL(ctx context.Context, accountID, contentType string) (*AvatarUpload, error) {
	if s.avatars == nil {
		return nil, common.NotFound("Avatar uploads are not enabled")
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, common.Validation("Unsupported image type %q", contentType)
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", accountID, uuid.NewString(), ext)
	url, err := s.avatars.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}

	return &AvatarUpload{
		UploadURL: url,
		AvatarURL: s.avatars.PublicURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(avatarUploadTTL),
	}, nil
}

func (s *UsersService) wrap(a *models.Account, err error) (*models.Account, error) {
	if err == nil {
		return a, nil
	}
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.NotFound(MsgUserNotFound)
	}
	return nil, fmt.Errorf("accounts: %w", err)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.Validation("Invalid user id %q", id)
	}
	return nil
}
