package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/shared"
)

// DocumentBackend is the API surface the document-upload adapter uses.
type DocumentBackend interface {
	UploadDocument(ctx context.Context, sessionID, filename string, contents io.Reader) (*api.UploadResponse, error)
	ExtractDocument(ctx context.Context, sessionID, uploadID string) ([]api.DocumentCandidate, error)
	ReviewDocumentCandidates(ctx context.Context, sessionID string) ([]api.DocumentCandidate, error)
	MatchDocumentCandidates(ctx context.Context, sessionID string) (matched, unmatched int, err error)
	ConfirmDocumentCandidates(ctx context.Context, sessionID string, candidateIDs []string) (int, error)
}

// Document stages rows extracted from uploaded documents.
//
// The flow has five steps (upload, extract, review, match, confirm), each an
// independent endpoint call. No step holds client-side state: every step is
// re-enterable from the session's server state, so a restart mid-flow loses
// nothing.
type Document struct {
	backend DocumentBackend
	refresh Refresher
	logger  *log.Logger
}

// NewDocument creates the document-upload adapter.
func NewDocument(backend DocumentBackend, refresh Refresher, logger *log.Logger) *Document {
	return &Document{backend: backend, refresh: refresh, logger: logger}
}

// UploadFile uploads one document from disk.
func (d *Document) UploadFile(ctx context.Context, sessionID, path string) (*api.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	return d.backend.UploadDocument(ctx, sessionID, filepath.Base(path), f)
}

// Extract runs reference extraction over an uploaded document. An extraction
// service outage surfaces as [shared.ErrExtractionUnavailable], carrying the
// remediation-guide link; callers present that separately from transport
// failures.
func (d *Document) Extract(ctx context.Context, sessionID, uploadID string) ([]api.DocumentCandidate, error) {
	candidates, err := d.backend.ExtractDocument(ctx, sessionID, uploadID)
	if err != nil {
		return nil, err
	}
	if d.logger != nil {
		d.logger.Info("extracted candidates", "upload", uploadID, "candidates", len(candidates))
	}
	return candidates, nil
}

// Review re-reads the session's candidates from the server.
func (d *Document) Review(ctx context.Context, sessionID string) ([]api.DocumentCandidate, error) {
	return d.backend.ReviewDocumentCandidates(ctx, sessionID)
}

// MatchCandidates reconciles the extracted candidates against the index.
func (d *Document) MatchCandidates(ctx context.Context, sessionID string) (matched, unmatched int, err error) {
	return d.backend.MatchDocumentCandidates(ctx, sessionID)
}

// Confirm stages the chosen candidates as rows and refreshes the engine.
func (d *Document) Confirm(ctx context.Context, sessionID string, candidateIDs []string) (int, error) {
	if len(candidateIDs) == 0 {
		return 0, fmt.Errorf("%w: no candidates selected", shared.ErrInvalidInput)
	}

	added, err := d.backend.ConfirmDocumentCandidates(ctx, sessionID, candidateIDs)
	if err != nil {
		return 0, err
	}

	if err := d.refresh(ctx); err != nil {
		return added, err
	}
	return added, nil
}
