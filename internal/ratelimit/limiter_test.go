package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewFrameLimiter(t *testing.T) {
	fl := NewFrameLimiter(60)
	if fl == nil {
		t.Fatal("expected non-nil frame limiter")
	}
	if fl.Rate() != 60 {
		t.Errorf("expected rate 60, got %d", fl.Rate())
	}
}

func TestNewFrameLimiter_NegativeClampsToZero(t *testing.T) {
	fl := NewFrameLimiter(-5)
	if fl.Rate() != 0 {
		t.Errorf("expected rate 0, got %d", fl.Rate())
	}
}

func TestFrameLimiter_ZeroRateDoesNotBlock(t *testing.T) {
	fl := NewFrameLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 1000; i++ {
		if err := fl.Wait(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("zero rate should not block, took %v", elapsed)
	}
}

func TestFrameLimiter_ZeroRateHonorsCancellation(t *testing.T) {
	fl := NewFrameLimiter(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fl.Wait(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFrameLimiter_FirstFrameIsImmediate(t *testing.T) {
	fl := NewFrameLimiter(1)

	start := time.Now()
	if err := fl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first frame took too long: %v", elapsed)
	}
}

func TestFrameLimiter_ContextCancelled(t *testing.T) {
	fl := NewFrameLimiter(1)
	_ = fl.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fl.Wait(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFrameLimiter_Paces(t *testing.T) {
	fl := NewFrameLimiter(100)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 6; i++ {
		if err := fl.Wait(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Five intervals of 10ms after the first immediate frame.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected frames to be paced, 6 frames took %v", elapsed)
	}
}
