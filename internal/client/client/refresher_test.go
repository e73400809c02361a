package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresher_SkipsExchangeWhenTokenAlreadyReplaced(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "new", "r"))

	var calls atomic.Int32
	r := NewRefresher(store, func(context.Context, string) (string, string, error) {
		calls.Add(1)
		return "x", "y", nil
	}, nil)

	got, err := r.Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.Zero(t, calls.Load())
}

func TestRefresher_ConcurrentCallersShareOneExchange(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "stale", "r1"))

	release := make(chan struct{})
	var calls atomic.Int32
	r := NewRefresher(store, func(_ context.Context, refresh string) (string, string, error) {
		calls.Add(1)
		<-release
		return "fresh", "r2", nil
	}, nil)

	const n = 16
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := r.Refresh(context.Background(), "stale")
			assert.NoError(t, err)
			results[i] = tok
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, tok := range results {
		assert.Equal(t, "fresh", tok)
	}
	access, refresh, _ := store.Tokens(context.Background())
	assert.Equal(t, "fresh", access)
	assert.Equal(t, "r2", refresh)
}

func TestRefresher_CancelledCallerDoesNotCancelExchange(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "stale", "r1"))

	started := make(chan struct{})
	release := make(chan struct{})
	var exchangeCtxErr atomic.Value
	r := NewRefresher(store, func(ctx context.Context, _ string) (string, string, error) {
		close(started)
		<-release
		if ctx.Err() != nil {
			exchangeCtxErr.Store(ctx.Err())
		}
		return "fresh", "r2", nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := r.Refresh(ctx, "stale")
		errCh <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	waiter := make(chan string, 1)
	go func() {
		tok, _ := r.Refresh(context.Background(), "stale")
		waiter <- tok
	}()
	close(release)

	assert.Equal(t, "fresh", <-waiter)
	assert.Nil(t, exchangeCtxErr.Load())
}

func TestRefresher_FailureClearsTokensAndLogsOut(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "stale", "r1"))

	var logouts atomic.Int32
	r := NewRefresher(store, func(context.Context, string) (string, string, error) {
		return "", "", errors.New("invalid refresh token")
	}, func() { logouts.Add(1) })

	_, err := r.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), logouts.Load())

	access, refresh, _ := store.Tokens(context.Background())
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestRefresher_UnavailableKeepsTokens(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "stale", "r1"))

	var logouts atomic.Int32
	r := NewRefresher(store, func(context.Context, string) (string, string, error) {
		return "", "", ErrUnavailable
	}, func() { logouts.Add(1) })

	_, err := r.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, logouts.Load())

	_, refresh, _ := store.Tokens(context.Background())
	assert.Equal(t, "r1", refresh)
}

func TestRefresher_NoRefreshToken(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "stale", ""))

	called := false
	r := NewRefresher(store, func(context.Context, string) (string, string, error) {
		called = true
		return "", "", nil
	}, nil)

	_, err := r.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.False(t, called)
}

func TestRefresher_LateCallersAfterFailureDoNotLogOutAgain(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "stale", "r1"))

	var exchanges, logouts atomic.Int32
	r := NewRefresher(store, func(context.Context, string) (string, string, error) {
		exchanges.Add(1)
		return "", "", errors.New("invalid refresh token")
	}, func() { logouts.Add(1) })

	_, err := r.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, ErrUnauthorized)

	for range 3 {
		_, err = r.Refresh(context.Background(), "stale")
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	}
	assert.Equal(t, int32(1), exchanges.Load())
	assert.Equal(t, int32(1), logouts.Load())
}

func TestRefresher_AccessWithoutRefreshLogsOutOnce(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(context.Background(), "stale", ""))

	var logouts atomic.Int32
	r := NewRefresher(store, func(context.Context, string) (string, string, error) {
		return "", "", nil
	}, func() { logouts.Add(1) })

	for range 2 {
		_, err := r.Refresh(context.Background(), "stale")
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	}
	assert.Equal(t, int32(1), logouts.Load())

	access, _, _ := store.Tokens(context.Background())
	assert.Empty(t, access)
}
