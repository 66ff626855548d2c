package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
)

// WorkflowRepository persists the session handle this profile is attached to.
//
// At most one row is live at a time: saving a new handle soft-deletes the
// previous one, and Load returns the newest non-deleted row. The history of
// soft-deleted rows is kept for debugging abandoned workflows.
//
// Implements [session.Store].
type WorkflowRepository struct {
	db *sql.DB
}

// NewWorkflowRepository creates a WorkflowRepository over an open database.
func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Save records the session handle, replacing any previously saved one.
func (r *WorkflowRepository) Save(id string, useCase session.UseCase) error {
	if err := r.Clear(); err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "workflow_sessions")
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.Exec(
		`INSERT INTO workflow_sessions (id, sequence, session_id, use_case, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		shared.GenerateID(), sequence, id, string(useCase), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow session: %w", err)
	}
	return nil
}

// Load returns the saved session handle. ok is false when none is saved;
// that is the normal state before any workflow has started.
func (r *WorkflowRepository) Load() (string, session.UseCase, bool, error) {
	var sessionID, useCase string
	err := r.db.QueryRow(
		`SELECT session_id, use_case FROM workflow_sessions
		 WHERE deleted_at IS NULL
		 ORDER BY sequence DESC LIMIT 1`,
	).Scan(&sessionID, &useCase)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("failed to load workflow session: %w", err)
	}

	uc, err := session.ParseUseCase(useCase)
	if err != nil {
		// A row written by a newer or older build; treat as unsaved.
		return "", "", false, nil
	}
	return sessionID, uc, true, nil
}

// Clear soft-deletes every live handle.
func (r *WorkflowRepository) Clear() error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(
		`UPDATE workflow_sessions SET deleted_at = ?, updated_at = ? WHERE deleted_at IS NULL`,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to clear workflow session: %w", err)
	}
	return nil
}
