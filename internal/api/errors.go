package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusError indicates the service answered with a non-2xx status.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Code, e.Message)
}

// NetworkError indicates no response was received (DNS, connection refused,
// timeout, truncated body).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying: network failures,
// timeouts, throttling and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var st *StatusError
	if errors.As(err, &st) {
		switch st.Code {
		case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
			return true
		}
		return st.Code >= 500
	}
	return false
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var st *StatusError
	if errors.As(err, &st) {
		return st.Code
	}
	return 0
}

// newStatusError builds a StatusError, preferring the server's own
// "message" or "error" field over the generic status text.
func newStatusError(op string, code int, body []byte) *StatusError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := http.StatusText(code)
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	return &StatusError{Op: op, Code: code, Message: msg}
}
