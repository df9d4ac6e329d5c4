package domain

import "errors"

var (
	// ErrNotInitialized indicates the workspace has no .pulse directory.
	ErrNotInitialized = errors.New("workspace not initialized")

	// ErrAlreadyInitialized is returned by init when .pulse exists.
	ErrAlreadyInitialized = errors.New("workspace already initialized")

	// ErrNoProjects indicates no project is in scope for the report.
	ErrNoProjects = errors.New("no projects in scope")
)

// CollectorError records a collector that degraded to its zero value.
type CollectorError struct {
	Collector string
	Err       error
}

func (e *CollectorError) Error() string {
	return e.Collector + " collector: " + e.Err.Error()
}

func (e *CollectorError) Unwrap() error { return e.Err }
