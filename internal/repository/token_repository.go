package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisapp "pyeongsan_church/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

const refreshTokenPrefix = "church:refresh:"

// RedisTokenRepo хранит действующие refresh-токены администраторов.
// Ключ удаляется при выходе, поэтому отозванный токен нельзя обновить.
type RedisTokenRepo struct {
	Client *redisapp.Client
}

func NewRedisTokenRepo(client *redisapp.Client) *RedisTokenRepo {
	return &RedisTokenRepo{Client: client}
}

func (r *RedisTokenRepo) SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error {
	const op = "repository.RedisTokenRepo.SaveRefreshToken"

	if err := r.Client.Set(ctx, refreshTokenKey(userID, token), "1", exp).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisTokenRepo) GetRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	const op = "repository.RedisTokenRepo.GetRefreshToken"

	val, err := r.Client.Get(ctx, refreshTokenKey(userID, token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return val == "1", nil
}

func (r *RedisTokenRepo) DeleteRefreshToken(ctx context.Context, userID, token string) error {
	const op = "repository.RedisTokenRepo.DeleteRefreshToken"

	if err := r.Client.Del(ctx, refreshTokenKey(userID, token)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteAllUserTokens завершает все сессии пользователя
func (r *RedisTokenRepo) DeleteAllUserTokens(ctx context.Context, userID string) error {
	const op = "repository.RedisTokenRepo.DeleteAllUserTokens"

	keys, err := r.Client.Keys(ctx, refreshTokenKey(userID, "*")).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := r.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func refreshTokenKey(userID, token string) string {
	return refreshTokenPrefix + userID + ":" + token
}
