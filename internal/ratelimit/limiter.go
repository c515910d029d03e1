// Package ratelimit paces the tick loop at a target frame rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// FrameLimiter hands out one frame slot at a time at the configured rate.
// A rate of zero disables pacing.
type FrameLimiter struct {
	limiter *rate.Limiter
	fps     int
}

func NewFrameLimiter(fps int) *FrameLimiter {
	if fps < 0 {
		fps = 0
	}
	return &FrameLimiter{
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		fps:     fps,
	}
}

// Wait blocks until the next frame is due or ctx is done.
func (f *FrameLimiter) Wait(ctx context.Context) error {
	if f.fps == 0 {
		return ctx.Err()
	}
	return f.limiter.Wait(ctx)
}

// Rate returns the target frames per second.
func (f *FrameLimiter) Rate() int {
	return f.fps
}
