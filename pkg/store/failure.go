package store

import (
	"encoding/json"
	"errors"

	"github.com/felixgeelhaar/carwash/pkg/api"
)

// Failure is the error held in a slice. Payload is the server's JSON error
// body when one was returned.
type Failure struct {
	Status  int             `json:"status,omitempty"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Unauthorized reports whether the failure was an authentication failure.
func (f *Failure) Unauthorized() bool {
	return f != nil && f.Status == 401
}

func failureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return &Failure{Status: apiErr.Status, Message: apiErr.Message, Payload: apiErr.Payload}
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Message: err.Error()}
}
