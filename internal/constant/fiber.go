package constant

import "time"

const (
	ContextKeyRequestID = "requestid"

	RequestIDHeader = "X-Equipviz-Request-ID"

	// ErrorCodeHeader carries the error category of a failed request, so the
	// response body can stay a single `error` field.
	ErrorCodeHeader = "X-Equipviz-Error-Code"

	IdempotencyHeader    = "X-Equipviz-Idempotency"
	IdempotencyKeyHeader = "Idempotency-Key"

	IdempotencyKeyLengthLimit = 128

	UploadIdempotencyRedisHashKey = "equipviz:idempotency:upload"

	UploadFormField = "file"

	DefaultIdempotencyLifetime = 24 * time.Hour
)
