package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotSupported indicates an operation the connector does not implement,
	// such as Download on a link-only provider.
	ErrNotSupported = errors.New("not supported")

	// Configuration errors. These fail fast, before any network activity.

	// ErrMissingParameter indicates a required configuration field has no value.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrPluginContract indicates a dynamic connector plugin returned a value
	// violating the adapter's shape contract.
	ErrPluginContract = errors.New("plugin contract violation")

	// Authentication errors.

	// ErrAuthRequired indicates the connector requires authentication but none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the provider rejected the stored credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrAuthInProgress indicates an authorization flow for the connector is
	// already in flight. Only one flow per connector may run at a time.
	ErrAuthInProgress = errors.New("authorization already in progress")

	// ErrAuthTimeout indicates the authorization callback never arrived.
	ErrAuthTimeout = errors.New("authorization timed out")

	// ErrTokenRefreshFailed indicates a token refresh operation failed.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// Listing and transfer errors. The engine does not retry these; they are
	// surfaced to the caller for a manual retry.

	// ErrItemNotFound indicates the provider no longer has the requested item.
	ErrItemNotFound = errors.New("item no longer exists at provider")

	// ErrStatusRegression indicates an attempt to move a sync item backwards
	// in its lifecycle.
	ErrStatusRegression = errors.New("file status cannot regress")

	// ErrJobCompleted indicates a mutation attempt on a completed job.
	ErrJobCompleted = errors.New("job already completed")

	// ErrJobActive indicates a job is already running.
	ErrJobActive = errors.New("job already active")
)
