// Package auth mints and verifies the access/refresh JWT pair, hashes
// passwords and decides role gates.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are carried by both access and refresh tokens. Subject mirrors ID
// and the random jti makes two tokens minted in the same second distinct.
type Claims struct {
	jwt.RegisteredClaims
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IssuedAtUnix returns iat in unix seconds, or 0 when absent.
func (c *Claims) IssuedAtUnix() int64 {
	if c.IssuedAt == nil {
		return 0
	}
	return c.IssuedAt.Unix()
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IssuerConfig holds the two independent secret/lifetime pairs.
type IssuerConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HS256 tokens. Now is the clock used for
// both iat/exp and expiry checks.
type TokenIssuer struct {
	cfg IssuerConfig
	Now func() time.Time
}

func NewTokenIssuer(cfg IssuerConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, Now: time.Now}
}

// IssuePair mints a fresh access and refresh token for the account.
func (i *TokenIssuer) IssuePair(accountID, email string) (*TokenPair, error) {
	access, err := i.sign(accountID, email, i.cfg.AccessSecret, i.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(accountID, email, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token. Expired tokens yield
// common.ErrTokenExpired, everything else common.ErrInvalidToken.
func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, i.cfg.AccessSecret)
}

// ParseRefresh verifies a refresh token signed with the refresh secret.
func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, i.cfg.RefreshSecret)
}

func (i *TokenIssuer) sign(accountID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := i.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		ID:    accountID,
		Email: email,
	})

	return token.SignedString(secret)
}

func (i *TokenIssuer) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
