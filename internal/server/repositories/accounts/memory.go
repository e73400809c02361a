package accounts

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. It backs the server when
// no database DSN is configured and is the store used by service tests.
// Returned accounts are copies; callers cannot mutate stored state.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[a.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := r.now()
	a.CreatedAt, a.UpdatedAt = now, now

	r.byID[a.ID] = clone(a)
	r.byEmail[a.Email] = a.ID
	return clone(a), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(a), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *MemoryRepository) SetRefreshToken(_ context.Context, id string, token *string) error {
	return r.mutate(id, func(a *models.Account) {
		a.RefreshToken = copyPtr(token)
	})
}

func (r *MemoryRepository) RecordLogin(_ context.Context, id, refreshToken string, at time.Time) error {
	return r.mutate(id, func(a *models.Account) {
		a.RefreshToken = &refreshToken
		a.LastLoginAt = &at
	})
}

func (r *MemoryRepository) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time, refreshToken string) error {
	return r.mutate(id, func(a *models.Account) {
		a.PasswordHash = hash
		a.PasswordChangedAt = &changedAt
		a.RefreshToken = &refreshToken
	})
}

func (r *MemoryRepository) UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Account, error) {
	err := r.mutate(id, func(a *models.Account) {
		setIf(&a.FirstName, u.FirstName)
		setIf(&a.LastName, u.LastName)
		if u.Avatar != nil {
			a.Avatar = copyPtr(u.Avatar)
		}
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) UpdateAdmin(ctx context.Context, id string, u models.AdminUpdate) (*models.Account, error) {
	err := r.mutate(id, func(a *models.Account) {
		setIf(&a.FirstName, u.FirstName)
		setIf(&a.LastName, u.LastName)
		setIf(&a.Role, u.Role)
		setIf(&a.IsActive, u.IsActive)
		setIf(&a.IsEmailVerified, u.IsEmailVerified)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) SetActive(ctx context.Context, id string, active bool) (*models.Account, error) {
	if err := r.mutate(id, func(a *models.Account) { a.IsActive = active }); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byEmail, a.Email)
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, q models.ListQuery) (*models.Page, error) {
	q.Normalize()
	search := strings.ToLower(strings.TrimSpace(q.Search))

	r.mu.RLock()
	matched := make([]*models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		if q.Role != nil && a.Role != *q.Role {
			continue
		}
		if q.IsActive != nil && a.IsActive != *q.IsActive {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.FirstName), search) &&
			!strings.Contains(strings.ToLower(a.LastName), search) &&
			!strings.Contains(strings.ToLower(a.Email), search) {
			continue
		}
		matched = append(matched, clone(a))
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *models.Account) int {
		c := compareBy(q.SortBy, a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.SortDesc {
			return -c
		}
		return c
	})

	page := &models.Page{Page: q.Page, Limit: q.Limit, Total: len(matched), Items: []*models.Account{}}
	if start := q.Offset(); start >= 0 && start < len(matched) {
		end := min(start+q.Limit, len(matched))
		page.Items = matched[start:end]
	}
	return page, nil
}

func compareBy(field string, a, b *models.Account) int {
	switch field {
	case models.SortEmail:
		return cmp.Compare(a.Email, b.Email)
	case models.SortFirstName:
		return cmp.Compare(a.FirstName, b.FirstName)
	case models.SortLastName:
		return cmp.Compare(a.LastName, b.LastName)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *MemoryRepository) mutate(id string, fn func(a *models.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(a)
	a.UpdatedAt = r.now()
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clone(a *models.Account) *models.Account {
	c := *a
	c.Avatar = copyPtr(a.Avatar)
	c.RefreshToken = copyPtr(a.RefreshToken)
	c.PasswordChangedAt = copyPtr(a.PasswordChangedAt)
	c.LastLoginAt = copyPtr(a.LastLoginAt)
	return &c
}
