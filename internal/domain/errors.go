package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested catalog item does not exist
	ErrItemNotFound = errors.New("catalog item not found")

	// ErrServerOffline indicates the catalog API is unreachable
	ErrServerOffline = errors.New("catalog API is unreachable")

	// ErrAuthFailed indicates the catalog API rejected the tokens
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNotAuthenticated indicates no tokens are configured yet
	ErrNotAuthenticated = errors.New("catalog tokens are not configured")

	// ErrLibraryUnavailable indicates the library id set could not be resolved
	// this time (missing tokens or a failed fetch); callers should retry later
	ErrLibraryUnavailable = errors.New("library catalog ids unavailable")
)
