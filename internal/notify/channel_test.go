package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// waitForWaiters blocks until the channel reports at least n blocked
// waiters, failing the test after a generous deadline.
func waitForWaiters(t *testing.T, ch *Channel, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for ch.Waiters() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d waiters, have %d", n, ch.Waiters())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSignalIncrementsGeneration(t *testing.T) {
	ch := NewChannel()

	if got := ch.Generation(); got != 0 {
		t.Fatalf("fresh channel generation = %d, want 0", got)
	}

	for i := 1; i <= 5; i++ {
		gen, err := ch.Signal()
		if err != nil {
			t.Fatalf("Signal #%d failed: %v", i, err)
		}
		if gen != uint64(i) {
			t.Errorf("Signal #%d returned generation %d, want %d", i, gen, i)
		}
	}

	if got := ch.Generation(); got != 5 {
		t.Errorf("generation after 5 signals = %d, want 5", got)
	}
}

func TestConcurrentSignalsAllCounted(t *testing.T) {
	ch := NewChannel()

	const goroutines = 4
	const perGoroutine = 100

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if _, err := ch.Signal(); err != nil {
					t.Errorf("Signal failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := ch.Generation(); got != goroutines*perGoroutine {
		t.Errorf("generation = %d, want %d", got, goroutines*perGoroutine)
	}
}

func TestAwaitChangeTimesOut(t *testing.T) {
	ch := NewChannel()

	const budget = 50 * time.Millisecond
	start := time.Now()
	res, err := ch.AwaitChange(context.Background(), budget)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("AwaitChange failed: %v", err)
	}
	if res.Outcome != TimedOut {
		t.Fatalf("outcome = %v, want %v", res.Outcome, TimedOut)
	}
	if res.Remaining != 0 {
		t.Errorf("remaining on timeout = %v, want 0", res.Remaining)
	}
	if elapsed < budget {
		t.Errorf("returned after %v, before the %v budget elapsed", elapsed, budget)
	}
	if elapsed > budget+time.Second {
		t.Errorf("returned after %v, far past the %v budget", elapsed, budget)
	}
}

func TestAwaitChangeZeroDurationNeverBlocks(t *testing.T) {
	ch := NewChannel()

	start := time.Now()
	res, err := ch.AwaitChange(context.Background(), 0)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("AwaitChange failed: %v", err)
	}
	if res.Outcome != TimedOut {
		t.Fatalf("outcome = %v, want %v", res.Outcome, TimedOut)
	}
	if elapsed > 50*time.Millisecond {
		t.Errorf("zero-duration wait took %v, expected an immediate return", elapsed)
	}
}

func TestAwaitChangeRejectsNegativeDuration(t *testing.T) {
	ch := NewChannel()

	_, err := ch.AwaitChange(context.Background(), -time.Second)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestSignalWakesBlockedWaiter(t *testing.T) {
	ch := NewChannel()

	const budget = 5 * time.Second

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := ch.AwaitChange(context.Background(), budget)
		done <- outcome{res, err}
	}()

	waitForWaiters(t, ch, 1)
	if _, err := ch.Signal(); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	select {
	case o := <-done:
		if o.err != nil {
			t.Fatalf("AwaitChange failed: %v", o.err)
		}
		if o.res.Outcome != Signaled {
			t.Fatalf("outcome = %v, want %v", o.res.Outcome, Signaled)
		}
		if o.res.Remaining <= 0 || o.res.Remaining > budget {
			t.Errorf("remaining = %v, want within (0, %v]", o.res.Remaining, budget)
		}
		if o.res.Generation != 1 {
			t.Errorf("generation = %d, want 1", o.res.Generation)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken by Signal")
	}
}

func TestSignalWakesAllWaiters(t *testing.T) {
	ch := NewChannel()

	const waiters = 8
	results := make(chan Result, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			res, err := ch.AwaitChange(context.Background(), 10*time.Second)
			if err != nil {
				t.Errorf("AwaitChange failed: %v", err)
			}
			results <- res
		}()
	}

	waitForWaiters(t, ch, waiters)
	if _, err := ch.Signal(); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	for i := 0; i < waiters; i++ {
		select {
		case res := <-results:
			if res.Outcome != Signaled {
				t.Errorf("waiter %d outcome = %v, want %v", i, res.Outcome, Signaled)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d waiters woke up", i, waiters)
		}
	}
}

func TestEarlierSignalIsNotReported(t *testing.T) {
	ch := NewChannel()

	// A signal that completes before the snapshot must be invisible:
	// the waiter blocks for the next one.
	if _, err := ch.Signal(); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	res, err := ch.AwaitChange(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("AwaitChange failed: %v", err)
	}
	if res.Outcome != TimedOut {
		t.Errorf("outcome = %v, want %v (stale signal falsely reported)", res.Outcome, TimedOut)
	}
}

func TestAwaitChangeContextCancellation(t *testing.T) {
	ch := NewChannel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() {
		res, err := ch.AwaitChange(ctx, 10*time.Second)
		if err != nil {
			t.Errorf("AwaitChange failed: %v", err)
		}
		done <- res
	}()

	waitForWaiters(t, ch, 1)
	cancel()

	select {
	case res := <-done:
		if res.Outcome != Cancelled {
			t.Errorf("outcome = %v, want %v", res.Outcome, Cancelled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not unblocked by context cancellation")
	}
}

func TestCloseCancelsWaitersAndRejectsSignal(t *testing.T) {
	ch := NewChannel()

	done := make(chan Result, 1)
	go func() {
		res, err := ch.AwaitChange(context.Background(), 10*time.Second)
		if err != nil {
			t.Errorf("AwaitChange failed: %v", err)
		}
		done <- res
	}()

	waitForWaiters(t, ch, 1)
	ch.Close()

	select {
	case res := <-done:
		if res.Outcome != Cancelled {
			t.Errorf("outcome = %v, want %v", res.Outcome, Cancelled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not unblocked by Close")
	}

	if _, err := ch.Signal(); !errors.Is(err, ErrClosed) {
		t.Errorf("Signal after Close: error = %v, want ErrClosed", err)
	}

	res, err := ch.AwaitChange(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("AwaitChange after Close failed: %v", err)
	}
	if res.Outcome != Cancelled {
		t.Errorf("AwaitChange after Close: outcome = %v, want %v", res.Outcome, Cancelled)
	}

	// Idempotent.
	ch.Close()
}

func TestWaitersCountTracksBlockedCallers(t *testing.T) {
	ch := NewChannel()

	if got := ch.Waiters(); got != 0 {
		t.Fatalf("fresh channel waiters = %d, want 0", got)
	}

	const waiters = 3
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.AwaitChange(context.Background(), 10*time.Second)
		}()
	}

	waitForWaiters(t, ch, waiters)
	if _, err := ch.Signal(); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}
	wg.Wait()

	if got := ch.Waiters(); got != 0 {
		t.Errorf("waiters after all returned = %d, want 0", got)
	}
}
