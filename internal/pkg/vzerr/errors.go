package vzerr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeMalformedInput  = "MALFORMED_INPUT"
	CodeSchemaMismatch  = "SCHEMA_MISMATCH"
	CodeEmptyDataset    = "EMPTY_DATASET"
	CodeStorageFailure  = "STORAGE_UNAVAILABLE"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeKeyReused       = "IDEMPOTENCY_KEY_REUSED"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")

	// ErrMalformedInput is returned when an uploaded payload cannot be parsed as delimited tabular data.
	ErrMalformedInput = New(fiber.StatusBadRequest, CodeMalformedInput, "Invalid CSV file")

	// ErrSchema is returned when an uploaded table lacks a required column or carries a value of the wrong kind.
	ErrSchema = New(fiber.StatusBadRequest, CodeSchemaMismatch, "CSV must contain: Type, Flowrate, Pressure, Temperature columns")

	// ErrEmptyDataset is returned when an uploaded table has a header but no data rows.
	ErrEmptyDataset = New(fiber.StatusBadRequest, CodeEmptyDataset, "CSV contains no data rows")

	// ErrStorage is returned when the summary history could not be read or written.
	ErrStorage = New(fiber.StatusInternalServerError, CodeStorageFailure, "summary storage is unavailable")

	// ErrTooManyRequests is returned when a request conflicts with one still in flight.
	ErrTooManyRequests = New(fiber.StatusTooManyRequests, CodeTooManyRequests, "too many requests")

	// ErrIdempotencyConflict is returned when an Idempotency-Key is reused for a different file.
	ErrIdempotencyConflict = New(fiber.StatusConflict, CodeKeyReused, "Idempotency-Key was already used for a different file")
)

type Extras map[string]interface{}

type VizError struct {
	StatusCode int    `example:"400"`
	ErrorCode  string `example:"SCHEMA_MISMATCH"`
	Message    string `example:"CSV must contain: Type, Flowrate, Pressure, Temperature columns"`
	Extras     *Extras

	cause error
}

func New(statusCode int, errorCode string, message string) *VizError {
	return &VizError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func (e VizError) Msg(format string, parts ...interface{}) *VizError {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e VizError) WithExtras(extras Extras) *VizError {
	e.Extras = &extras
	return &e
}

// Wrap returns a copy of e carrying err as its cause. The cause is never
// rendered to clients; it only shows up in logs and in errors.Unwrap chains.
func (e VizError) Wrap(err error) *VizError {
	e.cause = err
	return &e
}

func NewInvalidViolations(violations interface{}) *VizError {
	// copy ErrInvalidReq as e
	e := *ErrInvalidReq
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

func (e *VizError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrorCode, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

func (e *VizError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a *VizError of the same category, so that
// errors.Is(err, vzerr.ErrSchema) holds for copies made by Msg or Wrap.
func (e *VizError) Is(target error) bool {
	t, ok := target.(*VizError)
	if !ok {
		return false
	}
	return e.ErrorCode == t.ErrorCode
}
