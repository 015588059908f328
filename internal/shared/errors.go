package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Request errors
	ErrInvalidRequest  = fmt.Errorf("invalid request")
	ErrInvalidHash     = fmt.Errorf("invalid content hash")
	ErrMissingArgument = fmt.Errorf("missing required argument")

	// Orchestration errors, one per failure kind a download request can end with
	ErrResolution         = fmt.Errorf("track resolution failed")
	ErrBackend            = fmt.Errorf("streaming backend failed")
	ErrSelectionExhausted = fmt.Errorf("track can't be saved: no files available")
	ErrPersistence        = fmt.Errorf("failed to persist artifact")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrInternalFault      = fmt.Errorf("internal fault")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Ledger errors
	ErrJobNotFound = fmt.Errorf("download job not found")
)
