package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/edukit/eduhub/core"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if _, err := store.Get(ctx, "missing"); err != core.ErrKeyNotFound {
		t.Errorf("Get(missing) error = %v; expected ErrKeyNotFound", err)
	}

	if err := store.Set(ctx, "demoMode", "true", 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	val, err := store.Get(ctx, "demoMode")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if val != "true" {
		t.Errorf("Get() = %q; expected %q", val, "true")
	}

	if err = store.Remove(ctx, "demoMode"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err = store.Get(ctx, "demoMode"); err != core.ErrKeyNotFound {
		t.Errorf("Get() after Remove error = %v; expected ErrKeyNotFound", err)
	}

	// removing an absent key is not an error
	if err = store.Remove(ctx, "demoMode"); err != nil {
		t.Errorf("Remove(absent) failed: %v", err)
	}

	if err = store.Set(ctx, "rememberMe", "true", time.Minute); err != nil {
		t.Fatalf("Set() with ttl failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err = store.Get(ctx, "rememberMe"); err != core.ErrKeyNotFound {
		t.Errorf("Get() after expiry error = %v; expected ErrKeyNotFound", err)
	}
}

func TestInMemStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore()

	if _, err := store.Get(ctx, "missing"); err != core.ErrKeyNotFound {
		t.Errorf("Get(missing) error = %v; expected ErrKeyNotFound", err)
	}
	if err := store.Set(ctx, "demoRole", "student:", 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	val, err := store.Get(ctx, "demoRole")
	if err != nil || val != "student:" {
		t.Errorf("Get() = %q, %v; expected %q, nil", val, err, "student:")
	}
	if err = store.Remove(ctx, "demoRole"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err = store.Get(ctx, "demoRole"); err != core.ErrKeyNotFound {
		t.Errorf("Get() after Remove error = %v; expected ErrKeyNotFound", err)
	}
}
