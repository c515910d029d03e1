package core

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("RealClock.Now() returned %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_SinceIsNonNegative(t *testing.T) {
	clock := RealClock{}
	start := clock.Now()

	if elapsed := clock.Since(start); elapsed < 0 {
		t.Errorf("RealClock.Since() returned %v, expected >= 0", elapsed)
	}
}

func TestFakeClock_AdvanceAndSince(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	if clock.Since(start) != 0 {
		t.Errorf("FakeClock.Since(start) = %v, expected 0", clock.Since(start))
	}

	clock.Advance(16 * time.Millisecond)
	clock.Advance(17 * time.Millisecond)
	if got := clock.Since(start); got != 33*time.Millisecond {
		t.Errorf("after two frames, Since(start) = %v, expected 33ms", got)
	}
}

func TestFakeClock_AdvanceBackwards(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	clock.Advance(-time.Second)
	if got := clock.Since(start); got != -time.Second {
		t.Errorf("after rewinding, Since(start) = %v, expected -1s", got)
	}
}

func TestFakeClock_ConcurrentAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	if got := clock.Since(start); got != 50*time.Millisecond {
		t.Errorf("Since(start) = %v, expected 50ms", got)
	}
}
