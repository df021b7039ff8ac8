package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), s
}

func TestRedisStoreSaveAndLookup(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cs := domain.NewChallengeSession(domain.Ticket{
		ID:       9,
		Title:    "Server down",
		Priority: domain.TicketPriorityUrgent,
		Status:   domain.TicketStatusPending,
	}, start)
	cs.AttemptsRemaining = 2

	if err := store.Put(ctx, "visitor-1", cs); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Draft.ID != 9 || got.Draft.Title != "Server down" || got.AttemptsRemaining != 2 || !got.StartTime.Equal(start) {
		t.Errorf("unexpected session: %+v", got)
	}
}

func TestRedisStoreMissingSession(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	if _, err := store.Get(context.Background(), "nobody"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestRedisStoreExpiredSession(t *testing.T) {
	store, s := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "visitor-1", domain.NewChallengeSession(domain.Ticket{ID: 1}, time.Now())); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "visitor-1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after expiry, got %v", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	_ = store.Put(ctx, "visitor-1", domain.NewChallengeSession(domain.Ticket{ID: 1}, time.Now()))
	if err := store.Delete(ctx, "visitor-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "visitor-1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after delete, got %v", err)
	}
	if err := store.Delete(ctx, "visitor-1"); err != nil {
		t.Errorf("deleting a missing session should not fail: %v", err)
	}
}

func TestRedisStoreHashesVisitorKeys(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	_ = store.Put(context.Background(), "visitor-secret", domain.NewChallengeSession(domain.Ticket{ID: 1}, time.Now()))

	keys := s.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %v", keys)
	}
	if !strings.HasPrefix(keys[0], redisKeyPrefix) || strings.Contains(keys[0], "visitor-secret") {
		t.Errorf("unexpected key %q", keys[0])
	}
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	if err := s.Set(store.key("visitor-1"), "not-json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := store.Get(context.Background(), "visitor-1")
	if err == nil || errors.Is(err, ErrNoSession) {
		t.Errorf("expected decode error, got %v", err)
	}
}
