// Package notify implements the multi-channel blocking-notification
// primitive at the heart of notifyd: a fixed set of independent channels,
// each supporting Signal (wake every current waiter) and AwaitChange
// (block until the next signal, a timeout, or cancellation). No payload
// is transferred, only the fact that a change occurred.
package notify

import (
	"context"
	"sync"
	"time"
)

// Outcome classifies how an AwaitChange call ended.
type Outcome int

const (
	// Signaled means a Signal arrived before the deadline.
	Signaled Outcome = iota
	// TimedOut means the full wait budget elapsed with no signal.
	TimedOut
	// Cancelled means the wait was interrupted externally (context
	// cancellation or channel shutdown). It is a normal third outcome,
	// not an error.
	Cancelled
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Signaled:
		return "signaled"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result carries the outcome of a completed AwaitChange call.
type Result struct {
	Outcome Outcome
	// Remaining is the unused portion of the wait budget. Non-zero only
	// when the outcome is Signaled; each waiter computes its own value
	// from the moment it personally woke.
	Remaining time.Duration
	// Generation is the channel generation observed on return.
	Generation uint64
}

// Channel is one independent signal/await-change rendezvous point.
//
// State is a generation counter that only ever grows, guarded by a single
// mutex. Waiters snapshot the counter under the lock and block until it
// moves; Signal advances it and wakes all of them at once by closing the
// broadcast channel. Channels never share state, so operations on
// different channels never contend.
type Channel struct {
	mu         sync.Mutex
	generation uint64
	broadcast  chan struct{} // closed and replaced on every Signal
	waiters    int
	closed     bool
}

// NewChannel creates a channel with generation zero and no waiters.
func NewChannel() *Channel {
	return &Channel{broadcast: make(chan struct{})}
}

// Signal advances the generation and wakes every goroutine currently
// blocked in AwaitChange on this channel. Wake order among waiters is
// unspecified. Signalling with no waiters is harmless beyond the counter
// increment. Returns the new generation, or ErrClosed after Close.
func (c *Channel) Signal() (uint64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	c.generation++
	gen := c.generation
	close(c.broadcast)
	c.broadcast = make(chan struct{})
	c.mu.Unlock()
	return gen, nil
}

// AwaitChange blocks the caller until the channel is signalled, maxWait
// elapses, or the wait is cancelled, whichever happens first.
//
// A maxWait of zero never blocks: it reports TimedOut immediately unless
// a signal raced in between the snapshot and the check. A negative
// maxWait is a contract violation and returns ErrInvalidArgument.
//
// A Signal that completed before this call takes its snapshot is not
// reported; the caller waits for the next one. A Signal that lands after
// the snapshot and before the deadline is guaranteed to wake the caller.
func (c *Channel) AwaitChange(ctx context.Context, maxWait time.Duration) (Result, error) {
	if maxWait < 0 {
		return Result{}, ErrInvalidArgument
	}

	c.mu.Lock()
	if c.closed {
		gen := c.generation
		c.mu.Unlock()
		return Result{Outcome: Cancelled, Generation: gen}, nil
	}
	observed := c.generation
	wake := c.broadcast
	c.waiters++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.waiters--
		c.mu.Unlock()
	}()

	// A signal that raced in between the snapshot and blocking is
	// reported with the full budget remaining: no time was spent waiting.
	select {
	case <-wake:
		c.mu.Lock()
		gen := c.generation
		c.mu.Unlock()
		if gen != observed {
			return Result{Outcome: Signaled, Remaining: maxWait, Generation: gen}, nil
		}
		return Result{Outcome: Cancelled, Generation: observed}, nil
	default:
	}

	if maxWait == 0 {
		return Result{Outcome: TimedOut, Generation: observed}, nil
	}

	start := time.Now()
	timer := time.NewTimer(maxWait)
	defer timer.Stop()

	select {
	case <-wake:
		if res, ok := c.tryResolve(observed, maxWait, start); ok {
			return res, nil
		}
		// The broadcast channel was closed without a generation
		// change: the channel itself is shutting down.
		return Result{Outcome: Cancelled, Generation: observed}, nil
	case <-timer.C:
		return Result{Outcome: TimedOut, Generation: observed}, nil
	case <-ctx.Done():
		return Result{Outcome: Cancelled, Generation: observed}, nil
	}
}

// tryResolve re-checks the wake condition under the lock. It reports a
// Signaled result when the generation moved past observed, computing the
// caller's remaining budget from its own wake time.
func (c *Channel) tryResolve(observed uint64, maxWait time.Duration, start time.Time) (Result, bool) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	if gen == observed {
		return Result{}, false
	}

	remaining := maxWait - time.Since(start)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Outcome: Signaled, Remaining: remaining, Generation: gen}, true
}

// Generation returns the current generation counter.
func (c *Channel) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Waiters returns the number of goroutines currently blocked in
// AwaitChange on this channel.
func (c *Channel) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters
}

// Close shuts the channel down. Every goroutine currently blocked in
// AwaitChange is promptly woken with the Cancelled outcome; later Signal
// calls return ErrClosed and later AwaitChange calls report Cancelled
// immediately. Close is idempotent and does not wait for in-flight
// waiters to return.
func (c *Channel) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.broadcast)
	}
	c.mu.Unlock()
}
