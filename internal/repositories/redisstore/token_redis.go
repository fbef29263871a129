package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learnforge/course-service/internal/repositories"
)

const (
	tokenKeyPrefix    = "refresh_token:"
	userTokensPrefix  = "user_tokens:"
	userTokensPadding = 24 * time.Hour
)

// TokenRedis stores refresh tokens in Redis. Each token maps to its
// owner's email with the refresh TTL; a per-email set tracks the user's
// outstanding tokens so logout can revoke them all. The set lives a day
// longer than any token so members are never orphaned by the set's key
// expiring first.
type TokenRedis struct {
	client *redis.Client
}

func NewTokenRedis(client *redis.Client) repositories.TokenRepository {
	return &TokenRedis{client: client}
}

func (r *TokenRedis) Store(ctx context.Context, email, token string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("token store not available")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+token, email, ttl)
	pipe.SAdd(ctx, userTokensPrefix+email, token)
	pipe.Expire(ctx, userTokensPrefix+email, ttl+userTokensPadding)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *TokenRedis) Validate(ctx context.Context, token string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("token store not available")
	}

	email, err := r.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repositories.ErrNotFound
		}
		return "", fmt.Errorf("failed to validate refresh token: %w", err)
	}
	return email, nil
}

func (r *TokenRedis) Revoke(ctx context.Context, email, token string) error {
	if r.client == nil {
		return fmt.Errorf("token store not available")
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, tokenKeyPrefix+token)
	pipe.SRem(ctx, userTokensPrefix+email, token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRedis) RevokeAll(ctx context.Context, email string) error {
	if r.client == nil {
		return fmt.Errorf("token store not available")
	}

	tokens, err := r.client.SMembers(ctx, userTokensPrefix+email).Result()
	if err != nil {
		return fmt.Errorf("failed to list refresh tokens: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, tokenKeyPrefix+token)
	}
	pipe.Del(ctx, userTokensPrefix+email)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}
