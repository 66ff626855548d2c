package library

import (
	"context"
	"errors"
	"testing"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
)

// stubLibraries doubles the library endpoints.
type stubLibraries struct {
	Calls   []string
	failErr error
}

func (s *stubLibraries) PreviewLibrary(ctx context.Context, sessionID string) (*api.LibraryPreview, error) {
	s.Calls = append(s.Calls, "PreviewLibrary")
	return &api.LibraryPreview{Count: 2}, nil
}

func (s *stubLibraries) CreateLibrary(ctx context.Context, sessionID, name, path, description string) (*api.Library, error) {
	s.Calls = append(s.Calls, "CreateLibrary")
	if s.failErr != nil {
		return nil, s.failErr
	}
	return &api.Library{LibraryID: "lib-1", Name: name, Path: path, PaperCount: 2}, nil
}

func (s *stubLibraries) SelectLibrary(ctx context.Context, libraryID string) (*api.Library, error) {
	s.Calls = append(s.Calls, "SelectLibrary")
	return &api.Library{LibraryID: libraryID}, nil
}

func (s *stubLibraries) ListLibraries(ctx context.Context) ([]api.Library, error) {
	s.Calls = append(s.Calls, "ListLibraries")
	return []api.Library{{LibraryID: "lib-1"}}, nil
}

func (s *stubLibraries) StageLibraryEdit(ctx context.Context, libraryID string) (*session.Session, error) {
	s.Calls = append(s.Calls, "StageLibraryEdit")
	if s.failErr != nil {
		return nil, s.failErr
	}
	return &session.Session{ID: "edit-1", UseCase: session.UseCaseLibraryEdit}, nil
}

func (s *stubLibraries) CommitLibraryEdit(ctx context.Context, sessionID string) (*api.Library, error) {
	s.Calls = append(s.Calls, "CommitLibraryEdit")
	if s.failErr != nil {
		return nil, s.failErr
	}
	return &api.Library{LibraryID: "lib-1", PaperCount: 3}, nil
}

func (s *stubLibraries) DiscoverRelated(ctx context.Context, libraryID string) ([]api.ExternalRecord, error) {
	s.Calls = append(s.Calls, "DiscoverRelated")
	return []api.ExternalRecord{{IndexID: "idx-1"}}, nil
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates And Clears Registry", func(t *testing.T) {
		registry := session.NewRegistry(session.RegistryOpts{})
		registry.Set("sess-1", session.UseCaseLibraryCreation)
		svc := NewService(&stubLibraries{}, registry, nil)

		lib, err := svc.Create(ctx, "sess-1", "Deep Learning", "/libraries/dl", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lib.LibraryID != "lib-1" {
			t.Errorf("unexpected library %+v", lib)
		}
		if registry.Get() != nil {
			t.Error("create must clear the tracked session")
		}
	})

	t.Run("Validates Name And Path", func(t *testing.T) {
		backend := &stubLibraries{}
		svc := NewService(backend, nil, nil)

		if _, err := svc.Create(ctx, "sess-1", "  ", "/p", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for name, got %v", err)
		}
		if _, err := svc.Create(ctx, "sess-1", "n", "", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for path, got %v", err)
		}
		if len(backend.Calls) != 0 {
			t.Error("validation failures must not reach the backend")
		}
	})

	t.Run("Backend Failure Keeps Session", func(t *testing.T) {
		registry := session.NewRegistry(session.RegistryOpts{})
		registry.Set("sess-1", session.UseCaseLibraryCreation)
		svc := NewService(&stubLibraries{failErr: errors.New("no confirmed records")}, registry, nil)

		if _, err := svc.Create(ctx, "sess-1", "n", "/p", ""); err == nil {
			t.Fatal("expected error")
		}
		if registry.Get() == nil {
			t.Error("failed create must keep the session tracked")
		}
	})
}

func TestServiceEditRound(t *testing.T) {
	ctx := context.Background()

	t.Run("StageEdit Tracks The Edit Session", func(t *testing.T) {
		registry := session.NewRegistry(session.RegistryOpts{})
		svc := NewService(&stubLibraries{}, registry, nil)

		sess, err := svc.StageEdit(ctx, "lib-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sess.UseCase != session.UseCaseLibraryEdit {
			t.Errorf("expected library_edit session, got %s", sess.UseCase)
		}

		tracked := registry.Get()
		if tracked == nil || tracked.ID != "edit-1" {
			t.Fatalf("edit session not tracked: %+v", tracked)
		}
	})

	t.Run("CommitEdit Clears Registry", func(t *testing.T) {
		registry := session.NewRegistry(session.RegistryOpts{})
		registry.Set("edit-1", session.UseCaseLibraryEdit)
		svc := NewService(&stubLibraries{}, registry, nil)

		lib, err := svc.CommitEdit(ctx, "edit-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lib.PaperCount != 3 {
			t.Errorf("unexpected library %+v", lib)
		}
		if registry.Get() != nil {
			t.Error("commit must clear the tracked session")
		}
	})

	t.Run("Get Requires An Id", func(t *testing.T) {
		svc := NewService(&stubLibraries{}, nil, nil)
		if _, err := svc.Get(ctx, " "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})
}
