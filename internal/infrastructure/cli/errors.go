package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch {
	case errors.Is(err, domain.ErrNotInitialized):
		return NewCLIError("workspace not initialized", "Run 'pulse init <project>' to create .pulse", err)
	case errors.Is(err, domain.ErrAlreadyInitialized):
		return NewCLIError("workspace already initialized", "Edit the files under .pulse or point --project at another directory", err)
	case errors.Is(err, domain.ErrNoProjects):
		return NewCLIError("no projects in scope", "List project ids under 'projects' in .pulse/projects.yaml", err)
	case errors.Is(err, wbs.ErrNotWBS):
		return NewCLIError("document is not a WBS workbook", `Set "type": "wbs" and a non-empty "rows" array`, err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewCLIError("collection timed out", "Raise collector_timeout in .pulse/pulse.yaml", err)
	}

	return err
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	var cliErr *CLIError
	if errors.As(MapError(err), &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	return 1
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		_, _ = fmt.Fprintln(w, hintStyle.Render("Hint: "+cliErr.Hint))
	}
}
