package parse

import (
	"context"
	"math"
	"time"
)

// RetryPolicy bounds the attempts made against the completion service
// before the parser degrades to Heuristic.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy makes three attempts, waiting 2s and then 4s between
// them. The cap allows 8s if MaxAttempts is raised.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  2 * time.Second,
		MaxDelay:      8 * time.Second,
		BackoffFactor: 2.0,
	}
}

// calculateBackoff returns the delay after the zero-based attempt.
func calculateBackoff(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.BackoffFactor, float64(attempt))
	if policy.MaxDelay > 0 && time.Duration(delay) > policy.MaxDelay {
		return policy.MaxDelay
	}
	return time.Duration(delay)
}

// sleepWithBackoff waits for the backoff delay. It returns false if ctx was
// cancelled first.
func sleepWithBackoff(ctx context.Context, policy RetryPolicy, attempt int) bool {
	timer := time.NewTimer(calculateBackoff(policy, attempt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
