package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/userhub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := metadata.NewSQLiteRepository(db)
	store := NewMetadataTokenStore(repo)

	access, refresh, err := store.Tokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	require.NoError(t, store.Save(ctx, "acc", "ref"))
	raw, err := repo.Get(ctx, common.AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "acc", string(raw))

	access, refresh, err = store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc", access)
	assert.Equal(t, "ref", refresh)

	require.NoError(t, store.Clear(ctx))
	access, refresh, err = store.Tokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestAPIError_Is(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: 401}, ErrUnauthorized)
	assert.NotErrorIs(t, &APIError{StatusCode: 403}, ErrUnauthorized)

	e := newAPIError(404, nil)
	assert.Equal(t, "Not Found", e.Message)
	e = newAPIError(502, &envelope{Message: "upstream secret"})
	assert.Equal(t, common.GenericInternalMessage, e.Message)
}
