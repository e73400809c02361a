package client

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// ExchangeFunc trades a refresh token for a new pair.
type ExchangeFunc func(ctx context.Context, refreshToken string) (access, refresh string, err error)

// Refresher coordinates token refreshes for one client. Concurrent callers
// holding the same stale access token share a single exchange.
type Refresher struct {
	store    TokenStore
	exchange ExchangeFunc
	onLogout func()

	group singleflight.Group
}

// NewRefresher builds a Refresher. onLogout may be nil; it runs after the
// stored tokens are cleared because a refresh failed.
func NewRefresher(store TokenStore, exchange ExchangeFunc, onLogout func()) *Refresher {
	return &Refresher{store: store, exchange: exchange, onLogout: onLogout}
}

// Refresh returns an access token newer than stale. If another caller has
// already replaced stale, the stored token is returned without an exchange.
//
// The exchange itself is detached from ctx: a caller whose ctx ends stops
// waiting, but the exchange completes for everyone else.
func (r *Refresher) Refresh(ctx context.Context, stale string) (string, error) {
	if access, ok, err := r.current(ctx, stale); err != nil || ok {
		return access, err
	}

	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return r.run(context.WithoutCancel(ctx), stale)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Refresher) current(ctx context.Context, stale string) (string, bool, error) {
	access, _, err := r.store.Tokens(ctx)
	if err != nil {
		return "", false, fmt.Errorf("read tokens: %w", err)
	}
	return access, access != "" && access != stale, nil
}

func (r *Refresher) run(ctx context.Context, stale string) (string, error) {
	if access, ok, err := r.current(ctx, stale); err != nil || ok {
		return access, err
	}

	current, refresh, err := r.store.Tokens(ctx)
	if err != nil {
		return "", fmt.Errorf("read tokens: %w", err)
	}
	if refresh == "" {
		// An empty store means an earlier failure already logged out.
		if current != "" {
			r.logout(ctx)
		}
		return "", ErrNotLoggedIn
	}

	access, refresh, err := r.exchange(ctx, refresh)
	if err != nil {
		// The server never saw the refresh token, so it is still good.
		if errors.Is(err, ErrUnavailable) {
			return "", err
		}
		r.logout(ctx)
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if err := r.store.Save(ctx, access, refresh); err != nil {
		return "", fmt.Errorf("save tokens: %w", err)
	}
	return access, nil
}

func (r *Refresher) logout(ctx context.Context) {
	_ = r.store.Clear(ctx)
	if r.onLogout != nil {
		r.onLogout()
	}
}
