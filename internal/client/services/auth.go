// Package services contains application services for the userhub CLI.
// This file defines the session service: register, login and logout with
// local token persistence, plus the profile and admin calls the REPL uses.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userhub/internal/client/client"
	"github.com/dmitrijs2005/userhub/internal/client/models"
)

// AuthService defines the session operations for the CLI.
//
// Contract:
//   - Register and Login persist the issued token pair.
//   - Logout always clears local tokens, even when the server call fails.
//   - UpdatePassword stores the replacement pair returned by the server.
//   - LoggedIn reports whether a refresh token is stored locally.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, in client.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	UpdatePassword(ctx context.Context, current, next []byte) error
	LoggedIn(ctx context.Context) (bool, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	tokens client.TokenStore
}

// NewAuthService constructs an AuthService bound to the given API client and
// token store.
func NewAuthService(c client.Client, tokens client.TokenStore) AuthService {
	return &authService{client: c, tokens: tokens}
}

func (a *authService) Register(ctx context.Context, in client.RegisterInput) (*models.User, error) {
	s, err := a.client.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return a.save(ctx, s)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	s, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return a.save(ctx, s)
}

func (a *authService) save(ctx context.Context, s *models.Session) (*models.User, error) {
	if err := a.tokens.Save(ctx, s.AccessToken, s.RefreshToken); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}
	return s.User, nil
}

func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	if cerr := a.tokens.Clear(ctx); cerr != nil {
		return cerr
	}
	// The server session is gone either way once the tokens are dropped.
	if errors.Is(err, client.ErrUnauthorized) {
		return nil
	}
	return err
}

func (a *authService) Me(ctx context.Context) (*models.User, error) {
	return a.client.Me(ctx)
}

func (a *authService) UpdatePassword(ctx context.Context, current, next []byte) error {
	pair, err := a.client.UpdatePassword(ctx, string(current), string(next))
	if err != nil {
		return err
	}
	return a.tokens.Save(ctx, pair.AccessToken, pair.RefreshToken)
}

func (a *authService) LoggedIn(ctx context.Context) (bool, error) {
	_, refresh, err := a.tokens.Tokens(ctx)
	if err != nil {
		return false, err
	}
	return refresh != "", nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
