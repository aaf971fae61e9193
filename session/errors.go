package session

import (
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

var errRegistry = errx.NewRegistry("SESSION")

// Error codes for the session store.
var (
	ErrCodeStoreUnavailable = errRegistry.Register(
		"STORE_UNAVAILABLE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Session store unavailable",
	)

	ErrCodeDecodeFailed = errRegistry.Register(
		"DECODE_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Session record could not be decoded",
	)

	ErrCodeNotFound = errRegistry.Register(
		"NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Session not found",
	)
)

// ErrStoreUnavailable wraps a store connectivity failure.
func ErrStoreUnavailable(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeStoreUnavailable, cause)
}

// ErrDecodeFailed wraps a record that could not be unmarshalled.
func ErrDecodeFailed(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeDecodeFailed, cause)
}

// ErrNotFound reports a missing or expired session.
func ErrNotFound(sessionID string) *errx.Error {
	return errRegistry.New(ErrCodeNotFound).WithDetail("session_id", sessionID)
}
