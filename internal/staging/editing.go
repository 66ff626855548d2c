package staging

import (
	"context"
	"fmt"

	"github.com/imanmossavat/litstage/internal/shared"
)

// Edit is the working copy of one row's editable fields. At most one row may
// be in edit mode at a time; the working copy lives here until it is
// committed or cancelled and never leaks into the displayed snapshot.
type Edit struct {
	StagingID string
	original  map[Column]string
	working   map[Column]string

	// Err holds the last commit failure so the view can surface it while
	// keeping the edit open.
	Err string
}

// Value returns the working value for a column.
func (ed *Edit) Value(col Column) string { return ed.working[col] }

// Dirty reports whether any field differs from the original.
func (ed *Edit) Dirty() bool {
	for col, v := range ed.working {
		if ed.original[col] != v {
			return true
		}
	}
	return false
}

// Editing returns the open edit, or nil.
func (e *Engine) Editing() *Edit { return e.editing }

// StartEditing opens an edit for the given row. Only one edit may be open
// per engine.
func (e *Engine) StartEditing(stagingID string) error {
	if e.editing != nil {
		return fmt.Errorf("%w: row %s", shared.ErrEditInProgress, e.editing.StagingID)
	}
	row, ok := e.findRow(stagingID)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrRowNotFound, stagingID)
	}

	original := make(map[Column]string, len(EditableColumns))
	working := make(map[Column]string, len(EditableColumns))
	for _, col := range EditableColumns {
		v := row.Field(col)
		original[col] = v
		working[col] = v
	}
	e.editing = &Edit{StagingID: stagingID, original: original, working: working}
	return nil
}

// UpdateEditingValue changes one field of the working copy.
func (e *Engine) UpdateEditingValue(col Column, value string) error {
	if e.editing == nil {
		return shared.ErrNoEdit
	}
	if _, ok := e.editing.working[col]; !ok {
		return fmt.Errorf("%w: column %s is not editable", shared.ErrInvalidArgument, col)
	}
	e.editing.working[col] = value
	return nil
}

// CommitEditing sends the changed fields to the server and refetches.
//
// Only changed fields are sent; an empty string is normalized to an explicit
// unset. A commit failure leaves the edit open with Err set so the user can
// retry or cancel; unsaved input is never silently discarded. A successful
// commit closes the edit even if the follow-up fetch fails.
func (e *Engine) CommitEditing(ctx context.Context) (*Snapshot, error) {
	if e.editing == nil {
		return nil, shared.ErrNoEdit
	}

	if y := e.editing.working[ColumnYear]; y != e.editing.original[ColumnYear] {
		if err := validateYear(y); err != nil {
			e.editing.Err = fmt.Sprintf("year must be a number, got %q", y)
			return nil, fmt.Errorf("%w: year %q", shared.ErrInvalidInput, y)
		}
	}

	fields := make(map[string]*string)
	for col, v := range e.editing.working {
		if v == e.editing.original[col] {
			continue
		}
		if v == "" {
			fields[string(col)] = nil // unset
			continue
		}
		value := v
		fields[string(col)] = &value
	}

	if len(fields) == 0 {
		e.editing = nil
		return e.snapshot, nil
	}

	if err := e.backend.PatchRow(ctx, e.sessionID, e.editing.StagingID, fields); err != nil {
		e.editing.Err = err.Error()
		return nil, err
	}

	e.editing = nil
	return e.Fetch(ctx)
}

// CancelEditing discards the working copy.
func (e *Engine) CancelEditing() {
	e.editing = nil
}
