package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/shared"
)

// Starter starts a replacement session on the backend. Implemented by the API
// client; declared here so the coordinator does not depend on the transport
// package.
type Starter interface {
	StartSession(ctx context.Context, useCase UseCase) (*Session, error)
}

// Navigator moves the user to the workflow's safe entry checkpoint after a
// successful recovery. The TUI jumps back to the staging view; the plain CLI
// prints where to resume.
type Navigator interface {
	NavigateToCheckpoint(useCase UseCase)
}

// Coordinator replaces a dead session during an active library-creation
// workflow.
//
// It is a two-state machine, idle and recovering. Concurrent triggers while a
// recovery is in flight share that recovery's outcome rather than starting
// their own, so a burst of simultaneously failing requests produces exactly
// one replacement session and one navigation.
type Coordinator struct {
	registry  *Registry
	starter   Starter
	navigator Navigator
	logger    *log.Logger

	// dispatch defers the checkpoint navigation off the failing request's
	// call path. Defaults to running in a fresh goroutine.
	dispatch func(func())

	mu       sync.Mutex
	inflight *recoveryFlight // non-nil while recovering
}

// recoveryFlight carries one recovery attempt's outcome to every caller that
// joined it.
type recoveryFlight struct {
	done chan struct{}
	err  error
}

// CoordinatorOpts contains configuration options for creating a Coordinator.
type CoordinatorOpts struct {
	Registry  *Registry
	Starter   Starter
	Navigator Navigator
	Logger    *log.Logger
	Dispatch  func(func())
}

// NewCoordinator creates a recovery Coordinator.
func NewCoordinator(opts CoordinatorOpts) *Coordinator {
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = func(f func()) { go f() }
	}
	return &Coordinator{
		registry:  opts.Registry,
		starter:   opts.Starter,
		navigator: opts.Navigator,
		logger:    opts.Logger,
		dispatch:  dispatch,
	}
}

// Recover replaces the dead session with a fresh one tagged with the same use
// case, then schedules a navigation to the safe checkpoint.
//
// At most one recovery runs per dead-session event: callers arriving while
// one is in flight block until it settles and receive its outcome. If
// starting the replacement fails the coordinator gives up silently; the
// original request error is what the user sees.
func (c *Coordinator) Recover(ctx context.Context) error {
	c.mu.Lock()
	if c.inflight != nil {
		f := c.inflight
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f := &recoveryFlight{done: make(chan struct{})}
	c.inflight = f
	c.mu.Unlock()

	f.err = c.recover(ctx)

	// Back to idle regardless of outcome.
	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(f.done)

	return f.err
}

// recover performs the actual replacement. Runs outside the state lock.
func (c *Coordinator) recover(ctx context.Context) error {
	dead := c.registry.Get()
	if dead == nil {
		return shared.ErrNoSession
	}
	useCase := dead.UseCase

	c.registry.Clear()

	replacement, err := c.starter.StartSession(ctx, useCase)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("failed to start replacement session", "err", err)
		}
		return shared.ErrRecoveryFailed
	}

	c.registry.Set(replacement.ID, useCase)
	if c.logger != nil {
		c.logger.Info("recovered workflow session", "old", dead.ID, "new", replacement.ID)
	}

	if c.navigator != nil {
		c.dispatch(func() { c.navigator.NavigateToCheckpoint(useCase) })
	}

	return nil
}
