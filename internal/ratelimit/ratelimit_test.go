package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLimiterWindow(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	limiter := New(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "login:1.2.3.4")
		if err != nil {
			t.Fatalf("allow error: %v", err)
		}
		if !allowed {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "login:1.2.3.4")
	if err != nil {
		t.Fatalf("allow error: %v", err)
	}
	if allowed {
		t.Fatalf("expected request over the limit to be denied")
	}

	// A different key has its own window.
	allowed, err = limiter.Allow(ctx, "login:5.6.7.8")
	if err != nil {
		t.Fatalf("allow error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected separate key to be allowed")
	}

	server.FastForward(2 * time.Minute)

	allowed, err = limiter.Allow(ctx, "login:1.2.3.4")
	if err != nil {
		t.Fatalf("allow error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected request to be allowed after the window reset")
	}
}

func TestLimiterDisabled(t *testing.T) {
	var limiter *Limiter
	for i := 0; i < 100; i++ {
		allowed, err := limiter.Allow(context.Background(), "login:1.2.3.4")
		if err != nil || !allowed {
			t.Fatalf("expected nil limiter to allow everything")
		}
	}

	limiter = New(nil, 3, time.Minute)
	allowed, err := limiter.Allow(context.Background(), "login:1.2.3.4")
	if err != nil || !allowed {
		t.Fatalf("expected limiter without redis to allow everything")
	}
}
