package notify

import (
	"fmt"
	"sync"
)

// Registry owns a fixed set of channels, indexed 0..N-1. The set is
// built as a unit, immutable afterwards, and torn down as a unit; lookup
// after construction needs no locking.
type Registry struct {
	channels []*Channel
	teardown TeardownHook

	destroyOnce sync.Once
}

// InitHook is called for each channel right after it is created, in
// index order. Returning an error aborts construction; channels built
// before the failing index are rolled back.
type InitHook func(index int, ch *Channel) error

// TeardownHook is called for each channel as it is released, both during
// rollback of a failed construction and during Destroy.
type TeardownHook func(index int, ch *Channel)

// Option configures registry construction.
type Option func(*registryOptions)

type registryOptions struct {
	init     InitHook
	teardown TeardownHook
}

// WithInitHook installs a per-channel initialization hook.
func WithInitHook(h InitHook) Option {
	return func(o *registryOptions) { o.init = h }
}

// WithTeardownHook installs a per-channel teardown hook.
func WithTeardownHook(h TeardownHook) Option {
	return func(o *registryOptions) { o.teardown = h }
}

// NewRegistry constructs count channels in index order. A non-positive
// count is rejected before any allocation. If the init hook fails at
// index k, channels 0..k-1 are torn down in reverse order and the
// failure is reported as a *ConstructionError carrying k; no partially
// usable registry is ever returned.
func NewRegistry(count int, opts ...Option) (*Registry, error) {
	if count <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d: %w", count, ErrInvalidArgument)
	}

	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}

	channels := make([]*Channel, 0, count)
	for i := 0; i < count; i++ {
		ch := NewChannel()
		if o.init != nil {
			if err := o.init(i, ch); err != nil {
				ch.Close()
				for k := len(channels) - 1; k >= 0; k-- {
					if o.teardown != nil {
						o.teardown(k, channels[k])
					}
					channels[k].Close()
				}
				return nil, &ConstructionError{Index: i, Err: err}
			}
		}
		channels = append(channels, ch)
	}

	return &Registry{channels: channels, teardown: o.teardown}, nil
}

// Channel returns the channel at index, or ErrOutOfRange.
func (r *Registry) Channel(index int) (*Channel, error) {
	if index < 0 || index >= len(r.channels) {
		return nil, ErrOutOfRange
	}
	return r.channels[index], nil
}

// Len returns the number of channels in the registry.
func (r *Registry) Len() int {
	return len(r.channels)
}

// Destroy tears down every channel in index order. Goroutines blocked in
// AwaitChange at that moment are promptly woken with the Cancelled
// outcome; Destroy does not block waiting for them to return. Repeated
// calls are no-ops.
func (r *Registry) Destroy() {
	r.destroyOnce.Do(func() {
		for i, ch := range r.channels {
			if r.teardown != nil {
				r.teardown(i, ch)
			}
			ch.Close()
		}
	})
}
