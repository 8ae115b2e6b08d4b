package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any Error with status 401.
	ErrUnauthorized = errors.New("carwash: unauthorized")
	// ErrNotFound matches any Error with status 404.
	ErrNotFound = errors.New("carwash: not found")
)

// Error is returned for every failed call. Status is zero for transport
// failures and timeouts; Payload holds the server's JSON error body when one
// was returned.
type Error struct {
	Op      string
	Status  int
	Message string
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("carwash: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("carwash: %s: %d %s", e.Op, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// statusError builds the error for a non-2xx response.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{
		Op:      op,
		Status:  status,
		Message: fmt.Sprintf("request failed with status %d", status),
	}
	var payload map[string]any
	if json.Unmarshal(body, &payload) != nil {
		return e
	}
	e.Payload = json.RawMessage(body)
	for _, key := range []string{"error", "message"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			e.Message = msg
			break
		}
	}
	return e
}

// transportError wraps a failure that produced no response.
func transportError(op string, err error) *Error {
	return &Error{Op: op, Message: err.Error(), Err: err}
}
