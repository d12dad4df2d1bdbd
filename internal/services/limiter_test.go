package services

import (
	"context"
	"testing"
	"time"
)

func TestParseLimiter_AcquireRelease(t *testing.T) {
	limiter := NewParseLimiter(1)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if stats := limiter.Stats(); stats.Active != 1 || stats.Max != 1 {
		t.Fatalf("stats = %+v, want 1/1", stats)
	}

	// Second acquire blocks until the context expires.
	ctx2, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(ctx2); err == nil {
		t.Fatal("expected second acquire to time out")
	}

	limiter.Release()
	if stats := limiter.Stats(); stats.Active != 0 {
		t.Fatalf("expected 0 active, got %d", stats.Active)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestParseLimiter_ReleaseWithoutAcquire(t *testing.T) {
	limiter := NewParseLimiter(0)
	limiter.Release()
	if stats := limiter.Stats(); stats.Active != 0 || stats.Max != 4 {
		t.Fatalf("stats = %+v, want 0/4", stats)
	}
}
