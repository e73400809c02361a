package client

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/userhub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/userhub/internal/common"
)

// TokenStore persists the current access/refresh pair. Empty strings mean
// no token is stored.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	Save(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// MetadataTokenStore keeps the pair in the local metadata table under the
// common.AccessTokenKey and common.RefreshTokenKey keys.
type MetadataTokenStore struct {
	repo metadata.Repository
	mu   sync.Mutex
}

func NewMetadataTokenStore(repo metadata.Repository) *MetadataTokenStore {
	return &MetadataTokenStore{repo: repo}
}

func (s *MetadataTokenStore) Tokens(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, err := s.repo.Get(ctx, common.AccessTokenKey)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.repo.Get(ctx, common.RefreshTokenKey)
	if err != nil {
		return "", "", err
	}
	return string(access), string(refresh), nil
}

func (s *MetadataTokenStore) Save(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Set(ctx, common.AccessTokenKey, []byte(access)); err != nil {
		return err
	}
	return s.repo.Set(ctx, common.RefreshTokenKey, []byte(refresh))
}

func (s *MetadataTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, common.AccessTokenKey); err != nil {
		return err
	}
	return s.repo.Delete(ctx, common.RefreshTokenKey)
}

// MemoryTokenStore keeps the pair in process memory only.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func (s *MemoryTokenStore) Tokens(context.Context) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	s.access, s.refresh = access, refresh
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Clear(context.Context) error {
	return s.Save(context.Background(), "", "")
}
