package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestTokenBucket(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bucket := NewTokenBucket(client, 2, 1, time.Minute)

	allowed, _, err := bucket.Allow(ctx, "203.0.113.7")
	if err != nil || !allowed {
		t.Fatalf("expected first submission allowed got allowed=%v err=%v", allowed, err)
	}
	allowed, _, _ = bucket.Allow(ctx, "203.0.113.7")
	if !allowed {
		t.Fatalf("expected second submission allowed")
	}
	allowed, _, _ = bucket.Allow(ctx, "203.0.113.7")
	if allowed {
		t.Fatalf("expected third submission to be rejected")
	}

	// A different client has its own bucket.
	allowed, _, _ = bucket.Allow(ctx, "198.51.100.9")
	if !allowed {
		t.Fatalf("expected fresh client to be allowed")
	}

	// Note: refill cannot be tested with miniredis.FastForward() because the Lua
	// script receives time from Go's time.Now(), not Redis's internal clock.
}
