package domain

import "errors"

var (
	// ErrIndexUnavailable means the underlying store cannot be opened,
	// committed to, or read. Surfaced to callers, never retried here.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrQueryInvalid means the query text produced no usable terms.
	ErrQueryInvalid = errors.New("invalid query")
)
