package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Session errors
	ErrNoSession        = fmt.Errorf("no active session")
	ErrSessionExpired   = fmt.Errorf("session not found")
	ErrRecoveryFailed   = fmt.Errorf("session recovery failed")
	ErrSessionFinalized = fmt.Errorf("session already finalized")

	// API and service errors
	ErrAPIRequest             = fmt.Errorf("API request failed")
	ErrServiceUnavailable     = fmt.Errorf("service unavailable")
	ErrExtractionUnavailable  = fmt.Errorf("extraction service unavailable")
	ErrRowNotFound            = fmt.Errorf("staging row not found")
	ErrLibraryNotFound        = fmt.Errorf("library not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Staging engine errors
	ErrEditInProgress = fmt.Errorf("another row is already being edited")
	ErrNoEdit         = fmt.Errorf("no row is being edited")
)

// ExtractionGuideURL points at the remediation guide shown when the document
// extraction service is down.
const ExtractionGuideURL = "https://docs.litstage.dev/guides/extraction-service"
