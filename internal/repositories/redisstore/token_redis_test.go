package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/course-service/internal/repositories"
)

func newTestTokenRepo(t *testing.T) (repositories.TokenRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewTokenRedis(client), mr
}

func TestTokenStoreAndValidate(t *testing.T) {
	repo, mr := newTestTokenRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "tok-1", time.Hour))

	email, err := repo.Validate(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.Validate(ctx, "never-issued")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)
		_, err := repo.Validate(ctx, "tok-1")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestTokenRevoke(t *testing.T) {
	repo, _ := newTestTokenRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "bob@example.com", "tok-a", time.Hour))
	require.NoError(t, repo.Store(ctx, "bob@example.com", "tok-b", time.Hour))

	require.NoError(t, repo.Revoke(ctx, "bob@example.com", "tok-a"))

	_, err := repo.Validate(ctx, "tok-a")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	email, err := repo.Validate(ctx, "tok-b")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", email)
}

func TestTokenRevokeAll(t *testing.T) {
	repo, _ := newTestTokenRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "carol@example.com", "tok-1", time.Hour))
	require.NoError(t, repo.Store(ctx, "carol@example.com", "tok-2", time.Hour))
	require.NoError(t, repo.Store(ctx, "dave@example.com", "tok-3", time.Hour))

	require.NoError(t, repo.RevokeAll(ctx, "carol@example.com"))

	_, err := repo.Validate(ctx, "tok-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repo.Validate(ctx, "tok-2")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// Other users' tokens are untouched
	email, err := repo.Validate(ctx, "tok-3")
	require.NoError(t, err)
	assert.Equal(t, "dave@example.com", email)
}
