// package match drives the review step between staging and library creation:
// the selected rows are reconciled against the metadata index, partitioned
// into matched and unmatched, and the matched side is confirmed row by row.
package match

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/shared"
)

// Backend is the slice of the API client the review flow depends on.
type Backend interface {
	Match(ctx context.Context, sessionID string, stagingIDs []string) (*api.MatchResponse, error)
	ConfirmMatches(ctx context.Context, sessionID string, stagingIDs []string) error
	Rematch(ctx context.Context, sessionID, stagingID string) (*api.RematchResponse, error)
	PatchRow(ctx context.Context, sessionID, stagingID string, fields map[string]*string) error
}

// Matched is one reconciled row plus its per-row confirmation toggle.
type Matched struct {
	api.MatchedRow
	Confirm bool
}

// Review holds the matched/unmatched partition for one session.
//
// The partition is only ever replaced wholesale by a successful server read.
// A failed reload keeps the previous partition on screen; the view trusts the
// last successful read rather than guessing at partial movement.
type Review struct {
	backend   Backend
	sessionID string
	logger    *log.Logger

	matched   []Matched
	unmatched []api.UnmatchedRow
	ran       bool
}

// NewReview creates a review flow bound to one session.
func NewReview(backend Backend, sessionID string, logger *log.Logger) *Review {
	return &Review{backend: backend, sessionID: sessionID, logger: logger}
}

// Matched returns the matched partition.
func (r *Review) Matched() []Matched { return r.matched }

// Unmatched returns the unmatched partition.
func (r *Review) Unmatched() []api.UnmatchedRow { return r.unmatched }

// Ran reports whether at least one reconciliation has completed.
func (r *Review) Ran() bool { return r.ran }

// Run reconciles the session's selected rows and replaces the partition.
// Every matched row starts confirmed; review is opt-out per row. On failure
// the previous partition is left untouched.
func (r *Review) Run(ctx context.Context) error {
	resp, err := r.backend.Match(ctx, r.sessionID, nil)
	if err != nil {
		return err
	}

	matched := make([]Matched, 0, len(resp.Matched))
	for _, m := range resp.Matched {
		matched = append(matched, Matched{MatchedRow: m, Confirm: true})
	}
	r.matched = matched
	r.unmatched = resp.Unmatched
	r.ran = true

	if r.logger != nil {
		r.logger.Info("reconciled staged rows",
			"matched", len(r.matched), "unmatched", len(r.unmatched))
	}
	return nil
}

// SetConfirm toggles one matched row's confirmation.
func (r *Review) SetConfirm(stagingID string, confirm bool) error {
	for i := range r.matched {
		if r.matched[i].Row.StagingID == stagingID {
			r.matched[i].Confirm = confirm
			return nil
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrRowNotFound, stagingID)
}

// ConfirmedIDs returns the staging ids still marked for confirmation.
func (r *Review) ConfirmedIDs() []string {
	ids := make([]string, 0, len(r.matched))
	for _, m := range r.matched {
		if m.Confirm {
			ids = append(ids, m.Row.StagingID)
		}
	}
	return ids
}

// Confirm commits the confirmed subset. Confirming nothing is a validation
// error, not a server call.
func (r *Review) Confirm(ctx context.Context) (int, error) {
	ids := r.ConfirmedIDs()
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no matched rows confirmed", shared.ErrInvalidInput)
	}
	if err := r.backend.ConfirmMatches(ctx, r.sessionID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// EditAndRematch patches an unmatched row's metadata, re-submits it for
// reconciliation, and reloads the full partition. The row only moves between
// partitions through the reload: a rematch that reports success but whose
// reload fails leaves the row where the last successful read put it, and the
// reload error is returned alongside the rematch outcome so the view can say
// "rematched, refresh to see it".
func (r *Review) EditAndRematch(ctx context.Context, stagingID string, fields map[string]*string) (*api.RematchResponse, error) {
	if len(fields) > 0 {
		if err := r.backend.PatchRow(ctx, r.sessionID, stagingID, fields); err != nil {
			return nil, err
		}
	}

	resp, err := r.backend.Rematch(ctx, r.sessionID, stagingID)
	if err != nil {
		return nil, err
	}

	if err := r.Run(ctx); err != nil {
		return resp, fmt.Errorf("rematch applied but reload failed: %w", err)
	}
	return resp, nil
}
