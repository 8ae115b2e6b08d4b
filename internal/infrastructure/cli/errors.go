package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/carwash/internal/infrastructure/validate"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/carwash/pkg/api"
	"github.com/felixgeelhaar/carwash/pkg/storage"
)

// Exit codes beyond the default 1.
const (
	ExitUnauthorized = 2
	ExitUnavailable  = 3
)

// CLIError wraps client errors with user-facing messages and actionable hints.
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

// MapError converts known client errors into CLIErrors with actionable hints.
// Unmapped errors and existing CLIErrors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		return NewCLIError("booking is incomplete", "Fix the listed fields and retry", err)
	}

	switch {
	case errors.Is(err, wiring.ErrNotLoggedIn), errors.Is(err, storage.ErrNoCredential):
		e := NewCLIError("not logged in", "Run 'carwash admin login' first", err)
		e.ExitCode = ExitUnauthorized
		return e
	case errors.Is(err, api.ErrUnauthorized):
		e := NewCLIError("session rejected", "Your login expired; run 'carwash admin login' again", err)
		e.ExitCode = ExitUnauthorized
		return e
	case errors.Is(err, api.ErrNotFound):
		return NewCLIError("not found", "Check the order number or unit id", err)
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status == 0 {
		e := NewCLIError("backend unreachable", "Check --api-url or CARWASH_API_URL and that the backend is running", err)
		e.ExitCode = ExitUnavailable
		return e
	}

	return err
}
