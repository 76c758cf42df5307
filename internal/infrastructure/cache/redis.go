package cache

import (
	"context"
	"fmt"
	"time"

	"ayurveda-clinic-backend/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Info("Successfully connected to Redis")

	return client, nil
}

// TokenKey is the allow-list key of one issued token, e.g.
// access_token:<user id>:<token id>.
func TokenKey(kind string, userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s_token:%s:%s", kind, userID.String(), tokenID)
}

// TokenStore is the Redis allow-list of issued JWTs. A token is valid only while its
// key exists.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func (s *TokenStore) Store(ctx context.Context, kind string, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, TokenKey(kind, userID, tokenID), "valid", ttl).Err()
}

func (s *TokenStore) Exists(ctx context.Context, kind string, userID uuid.UUID, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, TokenKey(kind, userID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke deletes the given token ids. Unknown ids are ignored.
func (s *TokenStore) Revoke(ctx context.Context, kind string, userID uuid.UUID, tokenIDs ...string) error {
	keys := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if id != "" {
			keys = append(keys, TokenKey(kind, userID, id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
