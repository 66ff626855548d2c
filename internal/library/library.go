// package library wraps the persisted-library operations: previewing and
// committing a creation, staging and committing an edit round, and crawling
// for related papers. Creation and edit-commit both finalize the session, so
// the service also owns clearing the local session registry afterwards.
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
)

// Backend is the slice of the API client the service depends on.
type Backend interface {
	PreviewLibrary(ctx context.Context, sessionID string) (*api.LibraryPreview, error)
	CreateLibrary(ctx context.Context, sessionID, name, path, description string) (*api.Library, error)
	SelectLibrary(ctx context.Context, libraryID string) (*api.Library, error)
	ListLibraries(ctx context.Context) ([]api.Library, error)
	StageLibraryEdit(ctx context.Context, libraryID string) (*session.Session, error)
	CommitLibraryEdit(ctx context.Context, sessionID string) (*api.Library, error)
	DiscoverRelated(ctx context.Context, libraryID string) ([]api.ExternalRecord, error)
}

// Service coordinates library operations with the session registry.
type Service struct {
	backend  Backend
	registry *session.Registry
	logger   *log.Logger
}

// NewService creates the library service.
func NewService(backend Backend, registry *session.Registry, logger *log.Logger) *Service {
	return &Service{backend: backend, registry: registry, logger: logger}
}

// Preview returns what Create would commit for the session.
func (s *Service) Preview(ctx context.Context, sessionID string) (*api.LibraryPreview, error) {
	return s.backend.PreviewLibrary(ctx, sessionID)
}

// Create commits the session's confirmed matches as a persisted library.
// The server finalizes the session as part of the commit; on success the
// local registry is cleared so a stale id cannot trigger spurious recovery.
func (s *Service) Create(ctx context.Context, sessionID, name, path, description string) (*api.Library, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: library name", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: library path", shared.ErrMissingArgument)
	}

	lib, err := s.backend.CreateLibrary(ctx, sessionID, name, path, description)
	if err != nil {
		return nil, err
	}

	if s.registry != nil {
		s.registry.Clear()
	}
	if s.logger != nil {
		s.logger.Info("created library", "library", lib.LibraryID, "papers", lib.PaperCount)
	}
	return lib, nil
}

// Get fetches one library by id.
func (s *Service) Get(ctx context.Context, libraryID string) (*api.Library, error) {
	if strings.TrimSpace(libraryID) == "" {
		return nil, fmt.Errorf("%w: library id", shared.ErrMissingArgument)
	}
	return s.backend.SelectLibrary(ctx, libraryID)
}

// List returns every persisted library.
func (s *Service) List(ctx context.Context) ([]api.Library, error) {
	return s.backend.ListLibraries(ctx)
}

// StageEdit starts a library-edit session seeded from the library's papers
// and records it as the current session.
func (s *Service) StageEdit(ctx context.Context, libraryID string) (*session.Session, error) {
	sess, err := s.backend.StageLibraryEdit(ctx, libraryID)
	if err != nil {
		return nil, err
	}
	if s.registry != nil {
		s.registry.Set(sess.ID, sess.UseCase)
	}
	return sess, nil
}

// CommitEdit applies an edit session back onto its library and clears the
// local registry.
func (s *Service) CommitEdit(ctx context.Context, sessionID string) (*api.Library, error) {
	lib, err := s.backend.CommitLibraryEdit(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.registry != nil {
		s.registry.Clear()
	}
	return lib, nil
}

// Discover asks the backend's crawler for papers related to a library.
func (s *Service) Discover(ctx context.Context, libraryID string) ([]api.ExternalRecord, error) {
	return s.backend.DiscoverRelated(ctx, libraryID)
}
