package session

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Store persists the session handle across process restarts.
//
// Implemented by repositories.WorkflowRepository; a nil Store keeps the
// registry memory-only, which tests rely on.
type Store interface {
	Save(id string, useCase UseCase) error
	Load() (id string, useCase UseCase, ok bool, err error)
	Clear() error
}

// Registry holds the current workflow session for this profile.
//
// Exactly one session is tracked at a time; Set replaces any previous handle.
// Absence is a valid state meaning "no active workflow", never an error.
type Registry struct {
	mu        sync.Mutex
	current   *Session
	store     Store
	logger    *log.Logger
	bootstrap *Session // one-time handle from a shared link, consumed on first Get
	loaded    bool
}

// RegistryOpts contains configuration options for creating a Registry.
type RegistryOpts struct {
	Store  Store
	Logger *log.Logger

	// BootstrapID/BootstrapUseCase seed the registry from an externally
	// provided handle (the --session flag or LITSTAGE_SESSION) when no
	// session is tracked yet.
	BootstrapID      string
	BootstrapUseCase UseCase
}

// NewRegistry creates a Registry, optionally backed by a durable store.
func NewRegistry(opts RegistryOpts) *Registry {
	r := &Registry{store: opts.Store, logger: opts.Logger}
	if opts.BootstrapID != "" {
		uc := opts.BootstrapUseCase
		if uc == "" {
			uc = UseCaseLibraryCreation
		}
		r.bootstrap = &Session{ID: opts.BootstrapID, UseCase: uc}
	}
	return r
}

// Get returns the current session, or nil when no workflow is active.
//
// When the registry is empty it first consumes the one-time bootstrap handle,
// then falls back to the durable store. Store read failures degrade to "no
// session"; a page that needs one treats that as a redirect-to-start
// condition, not an error.
func (r *Registry) Get() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		s := *r.current
		return &s
	}

	if r.bootstrap != nil {
		r.current = r.bootstrap
		r.bootstrap = nil
		r.persist(r.current)
		s := *r.current
		return &s
	}

	if r.store != nil && !r.loaded {
		r.loaded = true
		id, uc, ok, err := r.store.Load()
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("failed to load saved session", "err", err)
			}
			return nil
		}
		if ok {
			r.current = &Session{ID: id, UseCase: uc}
			s := *r.current
			return &s
		}
	}

	return nil
}

// Set replaces the tracked session. Starting a new workflow implicitly
// invalidates tracking of the old one.
func (r *Registry) Set(id string, useCase UseCase) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = &Session{ID: id, UseCase: useCase}
	r.loaded = true
	r.persist(r.current)
}

// Clear forgets the tracked session.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = nil
	r.bootstrap = nil
	r.loaded = true
	if r.store != nil {
		if err := r.store.Clear(); err != nil && r.logger != nil {
			r.logger.Warn("failed to clear saved session", "err", err)
		}
	}
}

// persist writes the handle through to the store. Callers hold r.mu.
func (r *Registry) persist(s *Session) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(s.ID, s.UseCase); err != nil && r.logger != nil {
		r.logger.Warn("failed to save session", "err", err)
	}
}
