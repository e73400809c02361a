// Package services contains server-side business logic: the credential and
// token issuer (AuthService) and account administration (UsersService).
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/repositories/accounts"
)

// Messages returned to clients by the issuer and the session guard.
const (
	MsgInvalidCredentials  = "Invalid email or password"
	MsgEmailTaken          = "Email already registered"
	MsgAccountDeactivated  = "Your account has been deactivated"
	MsgInvalidRefreshToken = "Invalid refresh token"
	MsgWrongPassword       = "Current password is incorrect"
	MsgUserNotFound        = "User not found"

	MsgNoToken          = "No authentication token provided"
	MsgInvalidToken     = "Invalid token"
	MsgTokenExpired     = "Token has expired"
	MsgUserGone         = "User no longer exists"
	MsgUserDeactivated  = "User account is deactivated"
	MsgPasswordChanged  = "Password was changed. Please log in again"
	MsgPermissionDenied = "You do not have permission to perform this action"
)

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Account *models.Account
	Tokens  *auth.TokenPair
}

// AuthService issues, rotates and verifies credentials.
//
// The stored refresh token is read and then overwritten without a
// compare-and-swap: two concurrent refreshes with the same token may both
// succeed, and only the last one written stays valid.
type AuthService struct {
	repo   accounts.Repository
	issuer *auth.TokenIssuer
	hasher *auth.PasswordHasher
	log    logging.Logger
}

func NewAuthService(repo accounts.Repository, issuer *auth.TokenIssuer, hasher *auth.PasswordHasher, log logging.Logger) *AuthService {
	return &AuthService{repo: repo, issuer: issuer, hasher: hasher, log: log}
}

func (s *AuthService) now() time.Time { return s.issuer.Now() }

// Register creates an active account with role user and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := models.NormalizeEmail(in.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, common.Conflict(MsgEmailTaken)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.repo.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         models.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(MsgEmailTaken)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	pair, err := s.issuer.IssuePair(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.repo.SetRefreshToken(ctx, account.ID, &pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	account.RefreshToken = &pair.RefreshToken

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return &AuthResult{Account: account, Tokens: pair}, nil
}

// Login checks credentials and rotates the refresh token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CheckDummy(password)
			return nil, common.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	ok, err := s.hasher.Check(account.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, common.Unauthorized(MsgInvalidCredentials)
	}
	if !account.IsActive {
		return nil, common.Unauthorized(MsgAccountDeactivated)
	}

	pair, err := s.issuer.IssuePair(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	now := s.now()
	if err := s.repo.RecordLogin(ctx, account.ID, pair.RefreshToken, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	account.RefreshToken = &pair.RefreshToken
	account.LastLoginAt = &now

	return &AuthResult{Account: account, Tokens: pair}, nil
}

// Refresh exchanges the current refresh token for a new pair. The presented
// token must equal the stored one, so each refresh token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, common.Unauthorized(MsgInvalidRefreshToken)
	}

	account, err := s.repo.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized(MsgInvalidRefreshToken)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !account.HasRefreshToken(refreshToken) {
		s.log.Warn(ctx, "stale refresh token presented", "account_id", account.ID)
		return nil, common.Unauthorized(MsgInvalidRefreshToken)
	}
	if !account.IsActive {
		return nil, common.Unauthorized(MsgUserDeactivated)
	}

	pair, err := s.issuer.IssuePair(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.repo.SetRefreshToken(ctx, account.ID, &pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// UpdatePassword verifies the current password, stores the new hash and
// returns a fresh pair. Access tokens issued before the change stop passing
// the guard.
func (s *AuthService) UpdatePassword(ctx context.Context, accountID, current, next string) (*auth.TokenPair, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Check(account.PasswordHash, current)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, common.Validation(MsgWrongPassword)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// one second back so the pair minted below is not itself stale
	changedAt := s.now().Add(-time.Second)

	pair, err := s.issuer.IssuePair(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, account.ID, hash, changedAt, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	s.log.Info(ctx, "password changed", "account_id", account.ID)
	return pair, nil
}

// Logout clears the stored refresh token. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	err := s.repo.SetRefreshToken(ctx, accountID, nil)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, accountID string) (*models.Account, error) {
	return s.loadAccount(ctx, accountID)
}

// Authenticate runs the session guard checks for an access token and returns
// the live account it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Account, *auth.Claims, error) {
	claims, err := s.issuer.ParseAccess(token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, nil, common.Unauthorized(MsgTokenExpired)
		}
		return nil, nil, common.Unauthorized(MsgInvalidToken)
	}

	account, err := s.repo.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.Unauthorized(MsgUserGone)
		}
		return nil, nil, fmt.Errorf("load account: %w", err)
	}
	if !account.IsActive {
		return nil, nil, common.Unauthorized(MsgUserDeactivated)
	}
	if account.ChangedPasswordAfter(claims.IssuedAtUnix()) {
		return nil, nil, common.Unauthorized(MsgPasswordChanged)
	}

	return account, claims, nil
}

func (s *AuthService) loadAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(MsgUserNotFound)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}
