package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

const redisKeyPrefix = "challenge:"

// RedisStore implements Store on Redis with one JSON value per visitor.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store from an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// key hashes the visitor id so raw cookie subjects never appear in Redis.
func (s *RedisStore) key(visitorID string) string {
	sum := blake2b.Sum256([]byte(visitorID))
	return redisKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *RedisStore) Get(ctx context.Context, visitorID string) (*domain.ChallengeSession, error) {
	raw, err := s.client.Get(ctx, s.key(visitorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup challenge session: %w", err)
	}

	var cs domain.ChallengeSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("unmarshal challenge session: %w", err)
	}
	return &cs, nil
}

func (s *RedisStore) Put(ctx context.Context, visitorID string, cs *domain.ChallengeSession) error {
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("marshal challenge session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(visitorID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save challenge session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, visitorID string) error {
	if err := s.client.Del(ctx, s.key(visitorID)).Err(); err != nil {
		return fmt.Errorf("delete challenge session: %w", err)
	}
	return nil
}
