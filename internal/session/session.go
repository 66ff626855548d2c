// package session tracks the workflow session handle shared by every
// component of the client.
//
// A session is the server-side handle for one multi-step workflow (library
// creation, library edit, or a crawler rerun). The [Registry] holds the
// current handle, the store keeps it durable across process restarts, and the
// [Coordinator] replaces a dead session mid-workflow without surfacing the
// failure to the user.
package session

import "fmt"

// UseCase tags a session with the workflow it belongs to.
type UseCase string

const (
	UseCaseLibraryCreation UseCase = "library_creation"
	UseCaseLibraryEdit     UseCase = "library_edit"
	UseCaseCrawlerRerun    UseCase = "crawler_rerun"
)

// ParseUseCase validates a use-case tag received from flags or the backend.
func ParseUseCase(s string) (UseCase, error) {
	switch UseCase(s) {
	case UseCaseLibraryCreation, UseCaseLibraryEdit, UseCaseCrawlerRerun:
		return UseCase(s), nil
	}
	return "", fmt.Errorf("unknown use case %q", s)
}

// Session is the client's view of an in-progress workflow: an opaque server
// identifier plus the use case it was started for.
type Session struct {
	ID      string
	UseCase UseCase
}
