package refresh

import (
	"context"
	"errors"
	"sync"
)

// ErrNoRenewFunc is an exported constant or variable used by the refresh
// coordinator.
var ErrNoRenewFunc = errors.New("refresh: coordinator has no renew function")

// RenewFunc performs one renewal attempt. It must be idempotent from the
// caller's perspective: the coordinator may hand its outcome to many waiters.
type RenewFunc func(ctx context.Context) error

// inflightRenewal is the shared slot joiners wait on. err is written exactly
// once, before done is closed.
type inflightRenewal struct {
	done chan struct{}
	err  error
}

// Coordinator defines a public type used by tmauth APIs.
//
// Coordinator serializes renewals: concurrent Refresh calls collapse into a
// single execution of the renew function and share its outcome.
type Coordinator struct {
	mu       sync.Mutex
	inflight *inflightRenewal

	renew    RenewFunc
	joinHook func()
}

// CoordinatorOption describes the coordinator option operation and its
// observable behavior.
type CoordinatorOption func(*Coordinator)

// WithJoinHook installs a callback invoked each time a caller joins an
// already-running renewal instead of starting its own. Used for metrics.
func WithJoinHook(hook func()) CoordinatorOption {
	return func(c *Coordinator) { c.joinHook = hook }
}

// NewCoordinator describes the new coordinator operation and its observable
// behavior.
func NewCoordinator(renew RenewFunc, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{renew: renew}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh runs or joins a renewal and returns its outcome.
//
// The leader detaches the renewal from its own context so a canceled joiner
// cannot poison the shared result; a waiting joiner whose context is canceled
// gets its context error while the renewal keeps running for the others.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if c == nil || c.renew == nil {
		return ErrNoRenewFunc
	}

	c.mu.Lock()
	if in := c.inflight; in != nil {
		c.mu.Unlock()
		if c.joinHook != nil {
			c.joinHook()
		}
		select {
		case <-in.done:
			return in.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	in := &inflightRenewal{done: make(chan struct{})}
	c.inflight = in
	c.mu.Unlock()

	in.err = c.renew(context.WithoutCancel(ctx))

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(in.done)

	return in.err
}
