package services

import (
	"context"
	"sync/atomic"
)

// ParseLimiter bounds how many structured parses talk to the completion
// provider at once. It is a channel-based counting semaphore.
type ParseLimiter struct {
	slots  chan struct{}
	active atomic.Int64
}

// NewParseLimiter creates a limiter with max slots (default 4).
func NewParseLimiter(max int) *ParseLimiter {
	if max <= 0 {
		max = 4
	}
	return &ParseLimiter{slots: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (l *ParseLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot.
func (l *ParseLimiter) Release() {
	select {
	case <-l.slots:
		l.active.Add(-1)
	default:
	}
}

// LimiterStats reports current usage.
type LimiterStats struct {
	Active int `json:"active"`
	Max    int `json:"max"`
}

// Stats returns the current usage.
func (l *ParseLimiter) Stats() LimiterStats {
	return LimiterStats{Active: int(l.active.Load()), Max: cap(l.slots)}
}
