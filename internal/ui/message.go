package ui

import (
	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/staging"
)

// snapshotMsg carries a fresh staging snapshot (or the fetch failure).
type snapshotMsg struct {
	snap *staging.Snapshot
	err  error
}

// matchRanMsg reports a completed reconciliation run.
type matchRanMsg struct {
	err error
}

// rematchDoneMsg reports a single-row rematch outcome.
type rematchDoneMsg struct {
	resp *api.RematchResponse
	err  error
}

// confirmDoneMsg reports how many matched rows were confirmed.
type confirmDoneMsg struct {
	count int
	err   error
}

// libraryCreatedMsg reports the committed library (or the commit failure).
type libraryCreatedMsg struct {
	lib *api.Library
	err error
}

// sweepDoneMsg reports a retraction sweep outcome.
type sweepDoneMsg struct {
	resp *api.RetractionCheckResponse
	err  error
}

// sessionRecoveredMsg is injected by the recovery coordinator after a dead
// session was silently replaced; the view jumps back to the staging
// checkpoint.
type sessionRecoveredMsg struct {
	useCase session.UseCase
}
