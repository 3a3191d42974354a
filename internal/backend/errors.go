package backend

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBackend wraps failures of the document store or file storage.
	ErrBackend = errors.New("backend request failed")
	// ErrInvalidInput is returned when required arguments are missing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("already exists")
	// ErrUnauthorized is returned for bad credentials or an expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCompensationFailed is joined to a workflow error when deleting the
	// file it uploaded failed. The file is then in the orphan ledger.
	ErrCompensationFailed = errors.New("compensation failed")
)
