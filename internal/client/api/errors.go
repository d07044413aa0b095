package api

import (
	"fmt"
	"time"
)

// ConnectivityError means the server could not be reached at all.
type ConnectivityError struct {
	BaseURL string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot connect to server: make sure the backend is running at %s", e.BaseURL)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ServerRejectedError is a non-2xx response. Message is the server's `error`
// field when present, and Code the category from the error code header.
type ServerRejectedError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerRejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server rejected the request (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server rejected the request (%d): %s", e.StatusCode, e.Message)
}

// ProtocolMismatchError is a 2xx response whose body is not what this client
// understands.
type ProtocolMismatchError struct {
	Reason string
	Err    error
}

func (e *ProtocolMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from server: %s: %v", e.Reason, e.Err)
	}
	return "unexpected response from server: " + e.Reason
}

func (e *ProtocolMismatchError) Unwrap() error { return e.Err }

// TimeoutError means no complete response arrived within After.
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("request timed out after %s", e.After)
	}
	return "request timed out"
}

func (e *TimeoutError) Unwrap() error { return e.Err }
