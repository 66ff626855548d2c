package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/shared"
)

// stubImports doubles every import endpoint.
type stubImports struct {
	Calls []string

	identifiers []string
	collection  string
	uploaded    string
	candidates  []string

	failErr       error
	extractionErr error
}

func (s *stubImports) ImportIdentifiers(ctx context.Context, sessionID string, identifiers []string) (int, error) {
	s.Calls = append(s.Calls, "ImportIdentifiers")
	if s.failErr != nil {
		return 0, s.failErr
	}
	s.identifiers = identifiers
	return len(identifiers), nil
}

func (s *stubImports) ImportCollection(ctx context.Context, sessionID, collectionID string) (int, error) {
	s.Calls = append(s.Calls, "ImportCollection")
	if s.failErr != nil {
		return 0, s.failErr
	}
	s.collection = collectionID
	return 3, nil
}

func (s *stubImports) UploadDocument(ctx context.Context, sessionID, filename string, contents io.Reader) (*api.UploadResponse, error) {
	s.Calls = append(s.Calls, "UploadDocument")
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.uploaded = filename
	return &api.UploadResponse{UploadID: "up-1", Filename: filename}, nil
}

func (s *stubImports) ExtractDocument(ctx context.Context, sessionID, uploadID string) ([]api.DocumentCandidate, error) {
	s.Calls = append(s.Calls, "ExtractDocument")
	if s.extractionErr != nil {
		return nil, s.extractionErr
	}
	return []api.DocumentCandidate{{CandidateID: "cand-1", Title: "Found Reference"}}, nil
}

func (s *stubImports) ReviewDocumentCandidates(ctx context.Context, sessionID string) ([]api.DocumentCandidate, error) {
	s.Calls = append(s.Calls, "ReviewDocumentCandidates")
	return []api.DocumentCandidate{{CandidateID: "cand-1", Matched: true}}, nil
}

func (s *stubImports) MatchDocumentCandidates(ctx context.Context, sessionID string) (int, int, error) {
	s.Calls = append(s.Calls, "MatchDocumentCandidates")
	return 1, 0, nil
}

func (s *stubImports) ConfirmDocumentCandidates(ctx context.Context, sessionID string, candidateIDs []string) (int, error) {
	s.Calls = append(s.Calls, "ConfirmDocumentCandidates")
	if s.failErr != nil {
		return 0, s.failErr
	}
	s.candidates = candidateIDs
	return len(candidateIDs), nil
}

// countRefresh returns a Refresher that counts invocations.
func countRefresh(n *int) Refresher {
	return func(ctx context.Context) error {
		*n++
		return nil
	}
}

func TestManualImporter(t *testing.T) {
	ctx := context.Background()

	t.Run("Trims And Submits Identifiers", func(t *testing.T) {
		backend := &stubImports{}
		refreshes := 0
		manual := NewManual(backend, countRefresh(&refreshes), nil)

		added, err := manual.AddIdentifiers(ctx, "sess-1", []string{" 10.1/abc ", "", "arXiv:2017.1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if added != 2 {
			t.Errorf("expected 2 added, got %d", added)
		}
		if len(backend.identifiers) != 2 || backend.identifiers[0] != "10.1/abc" {
			t.Errorf("unexpected identifiers %v", backend.identifiers)
		}
		if refreshes != 1 {
			t.Errorf("expected one refresh, got %d", refreshes)
		}
	})

	t.Run("All Blank Is Invalid", func(t *testing.T) {
		backend := &stubImports{}
		refreshes := 0
		manual := NewManual(backend, countRefresh(&refreshes), nil)

		_, err := manual.AddIdentifiers(ctx, "sess-1", []string{"", "   "})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if len(backend.Calls) != 0 {
			t.Error("validation failure must not call the backend")
		}
		if refreshes != 0 {
			t.Error("validation failure must not refresh")
		}
	})

	t.Run("Backend Failure Skips Refresh", func(t *testing.T) {
		backend := &stubImports{failErr: errors.New("boom")}
		refreshes := 0
		manual := NewManual(backend, countRefresh(&refreshes), nil)

		if _, err := manual.AddIdentifiers(ctx, "sess-1", []string{"10.1/abc"}); err == nil {
			t.Fatal("expected error")
		}
		if refreshes != 0 {
			t.Error("failed import must not refresh")
		}
	})
}

func TestReferenceManagerImporter(t *testing.T) {
	ctx := context.Background()

	t.Run("Imports Collection", func(t *testing.T) {
		backend := &stubImports{}
		refreshes := 0
		ref := NewReferenceManager(backend, countRefresh(&refreshes), nil)

		added, err := ref.ImportCollection(ctx, "sess-1", "col-ml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if added != 3 {
			t.Errorf("expected 3 added, got %d", added)
		}
		if backend.collection != "col-ml" {
			t.Errorf("collection id not forwarded: %q", backend.collection)
		}
		if refreshes != 1 {
			t.Errorf("expected one refresh, got %d", refreshes)
		}
	})

	t.Run("Blank Collection Id", func(t *testing.T) {
		ref := NewReferenceManager(&stubImports{}, countRefresh(new(int)), nil)
		if _, err := ref.ImportCollection(ctx, "sess-1", "  "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestDocumentImporter(t *testing.T) {
	ctx := context.Background()

	t.Run("UploadFile Uses Base Name", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "survey.pdf")
		if err := os.WriteFile(path, []byte("pdf"), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		backend := &stubImports{}
		doc := NewDocument(backend, countRefresh(new(int)), nil)

		upload, err := doc.UploadFile(ctx, "sess-1", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if upload.UploadID != "up-1" {
			t.Errorf("unexpected upload id %s", upload.UploadID)
		}
		if backend.uploaded != "survey.pdf" {
			t.Errorf("expected base filename, got %q", backend.uploaded)
		}
	})

	t.Run("UploadFile Missing File", func(t *testing.T) {
		doc := NewDocument(&stubImports{}, countRefresh(new(int)), nil)
		if _, err := doc.UploadFile(ctx, "sess-1", "/nope/missing.pdf"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Extract Surfaces Outage Sentinel", func(t *testing.T) {
		outage := shared.ErrExtractionUnavailable
		backend := &stubImports{extractionErr: outage}
		doc := NewDocument(backend, countRefresh(new(int)), nil)

		_, err := doc.Extract(ctx, "sess-1", "up-1")
		if !errors.Is(err, shared.ErrExtractionUnavailable) {
			t.Fatalf("expected outage sentinel, got %v", err)
		}
	})

	t.Run("Confirm Requires Candidates", func(t *testing.T) {
		refreshes := 0
		doc := NewDocument(&stubImports{}, countRefresh(&refreshes), nil)

		_, err := doc.Confirm(ctx, "sess-1", nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if refreshes != 0 {
			t.Error("validation failure must not refresh")
		}
	})

	t.Run("Confirm Stages And Refreshes", func(t *testing.T) {
		backend := &stubImports{}
		refreshes := 0
		doc := NewDocument(backend, countRefresh(&refreshes), nil)

		added, err := doc.Confirm(ctx, "sess-1", []string{"cand-1", "cand-2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if added != 2 {
			t.Errorf("expected 2 added, got %d", added)
		}
		if refreshes != 1 {
			t.Errorf("expected one refresh, got %d", refreshes)
		}
	})
}
