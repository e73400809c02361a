package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer(IssuerConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
}

func TestIssuePair_ParseBack(t *testing.T) {
	t.Parallel()
	iss := newIssuer()

	pair, err := iss.IssuePair("user-123", "a@x.com")
	require.NoError(t, err)
	assert.Len(t, strings.Split(pair.AccessToken, "."), 3)

	claims, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.ID)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.RegisteredClaims.ID)

	rc, err := iss.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", rc.ID)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	t.Parallel()
	iss := newIssuer()

	pair, err := iss.IssuePair("u1", "u1@x.com")
	require.NoError(t, err)

	_, err = iss.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = iss.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSameSecondTokensDiffer(t *testing.T) {
	t.Parallel()
	iss := newIssuer()
	fixed := time.Unix(1_700_000_000, 0)
	iss.Now = func() time.Time { return fixed }

	a, err := iss.IssuePair("u1", "u1@x.com")
	require.NoError(t, err)
	b, err := iss.IssuePair("u1", "u1@x.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
}

func TestParseAccess_Expired(t *testing.T) {
	t.Parallel()
	iss := newIssuer()
	start := time.Now()
	iss.Now = func() time.Time { return start }

	pair, err := iss.IssuePair("u1", "u1@x.com")
	require.NoError(t, err)

	iss.Now = func() time.Time { return start.Add(16 * time.Minute) }
	_, err = iss.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	// the refresh token lives longer
	_, err = iss.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()
	other := NewTokenIssuer(IssuerConfig{
		AccessSecret:  []byte("other"),
		RefreshSecret: []byte("other-refresh"),
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	})
	pair, err := other.IssuePair("u2", "u2@x.com")
	require.NoError(t, err)

	_, err = newIssuer().ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()
	_, err := newIssuer().ParseAccess("not.a.jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		ID:               "u3",
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newIssuer().ParseAccess(s)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClaims_IssuedAtUnix(t *testing.T) {
	c := &Claims{}
	assert.Equal(t, int64(0), c.IssuedAtUnix())
	c.IssuedAt = jwt.NewNumericDate(time.Unix(42, 0))
	assert.Equal(t, int64(42), c.IssuedAtUnix())
}
