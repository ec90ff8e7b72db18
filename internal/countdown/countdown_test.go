package countdown

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWaitForNextIterationNaturalCompletion(t *testing.T) {
	var mu sync.Mutex
	var ticks []TickEvent
	s := New(func(e TickEvent) {
		mu.Lock()
		ticks = append(ticks, e)
		mu.Unlock()
	}, nil)

	start := time.Now()
	s.WaitForNextIteration(context.Background(), 0) // clamps to 1s minimum
	if elapsed := time.Since(start); elapsed < minDuration {
		t.Fatalf("returned before minimum duration elapsed: %v", elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) == 0 {
		t.Fatal("expected at least one tick")
	}
	last := ticks[len(ticks)-1]
	if last.SecondsRemaining != 0 {
		t.Fatalf("expected final tick to have SecondsRemaining=0, got %d", last.SecondsRemaining)
	}
}

func TestCancelRestEmitsFinalTick(t *testing.T) {
	var mu sync.Mutex
	var ticks []TickEvent
	s := New(func(e TickEvent) {
		mu.Lock()
		ticks = append(ticks, e)
		mu.Unlock()
	}, nil)

	done := make(chan struct{})
	go func() {
		s.WaitForNextIteration(context.Background(), 5)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	s.CancelRest()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNextIteration did not return after CancelRest")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) == 0 || ticks[len(ticks)-1].SecondsRemaining != 0 {
		t.Fatalf("expected final tick with SecondsRemaining=0 after cancel, got %+v", ticks)
	}
}

func TestOverrideRestDurationCancelsActiveWait(t *testing.T) {
	s := New(nil, nil)

	done := make(chan struct{})
	go func() {
		s.WaitForNextIteration(context.Background(), 5)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	s.OverrideRestDuration(1)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNextIteration did not return after override")
	}
}

func TestWaitForNextIterationExternalCancel(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.WaitForNextIteration(ctx, 5)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNextIteration did not return after context cancellation")
	}
}

func TestWaitForNextRestFallsBackOnEmptyCron(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.WaitForNextRest(ctx, "", 5)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	s.CancelRest()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNextRest did not return after cancel")
	}
}

func TestWaitForNextRestFallsBackOnInvalidCron(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.WaitForNextRest(ctx, "not a cron expression", 5)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	s.CancelRest()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNextRest did not return after cancel")
	}
}

func TestWaitForNextRestHonorsValidCron(t *testing.T) {
	var mu sync.Mutex
	var ticks []TickEvent
	s := New(func(e TickEvent) {
		mu.Lock()
		ticks = append(ticks, e)
		mu.Unlock()
	}, nil)

	// "* * * * *" matches every minute boundary, so the computed wait is at
	// most one minute - short enough to cancel and observe a tick without
	// the test itself waiting a full minute.
	done := make(chan struct{})
	go func() {
		s.WaitForNextRest(context.Background(), "* * * * *", 5)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	s.CancelRest()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNextRest did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) == 0 {
		t.Fatal("expected at least one tick")
	}
}
