// package importer turns heterogeneous sources into staged rows.
//
// Each adapter is a self-contained request/response cycle against its own
// endpoint, followed by the engine's refresh callback. Adapters never mutate
// staging rows directly; additions are observed only through the refetch, so
// the engine stays the single source of truth for what is staged.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/shared"
)

// Refresher is the engine's refetch callback, invoked after a successful
// import cycle.
type Refresher func(ctx context.Context) error

// ManualBackend is the API surface the manual-identifier adapter uses.
type ManualBackend interface {
	ImportIdentifiers(ctx context.Context, sessionID string, identifiers []string) (int, error)
}

// Manual stages rows from manually entered identifiers (DOIs, arXiv ids).
type Manual struct {
	backend ManualBackend
	refresh Refresher
	logger  *log.Logger
}

// NewManual creates the manual-identifier adapter.
func NewManual(backend ManualBackend, refresh Refresher, logger *log.Logger) *Manual {
	return &Manual{backend: backend, refresh: refresh, logger: logger}
}

// AddIdentifiers submits a batch of identifiers and refreshes the engine.
// Blank entries are dropped; an all-blank batch is a validation error.
func (m *Manual) AddIdentifiers(ctx context.Context, sessionID string, identifiers []string) (int, error) {
	cleaned := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		id = strings.TrimSpace(id)
		if id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return 0, fmt.Errorf("%w: no identifiers provided", shared.ErrInvalidInput)
	}

	added, err := m.backend.ImportIdentifiers(ctx, sessionID, cleaned)
	if err != nil {
		return 0, err
	}
	if m.logger != nil {
		m.logger.Info("staged manual identifiers", "requested", len(cleaned), "added", added)
	}

	if err := m.refresh(ctx); err != nil {
		return added, err
	}
	return added, nil
}

// ReferenceBackend is the API surface the reference-manager adapter uses.
type ReferenceBackend interface {
	ImportCollection(ctx context.Context, sessionID, collectionID string) (int, error)
}

// ReferenceManager stages rows from a reference-manager collection.
type ReferenceManager struct {
	backend ReferenceBackend
	refresh Refresher
	logger  *log.Logger
}

// NewReferenceManager creates the reference-manager adapter.
func NewReferenceManager(backend ReferenceBackend, refresh Refresher, logger *log.Logger) *ReferenceManager {
	return &ReferenceManager{backend: backend, refresh: refresh, logger: logger}
}

// ImportCollection imports one collection and refreshes the engine.
func (r *ReferenceManager) ImportCollection(ctx context.Context, sessionID, collectionID string) (int, error) {
	if strings.TrimSpace(collectionID) == "" {
		return 0, fmt.Errorf("%w: collection id", shared.ErrMissingArgument)
	}

	added, err := r.backend.ImportCollection(ctx, sessionID, collectionID)
	if err != nil {
		return 0, err
	}
	if r.logger != nil {
		r.logger.Info("staged reference-manager collection", "collection", collectionID, "added", added)
	}

	if err := r.refresh(ctx); err != nil {
		return added, err
	}
	return added, nil
}
