// conversation/errors.go
package conversation

import (
	"fmt"
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

var errRegistry = errx.NewRegistry("CONVERSATION")

// Error codes for the conversation entry points.
var (
	ErrCodeEmptyMessage = errRegistry.Register(
		"EMPTY_MESSAGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message must not be empty",
	)

	ErrCodeMessageTooLong = errRegistry.Register(
		"MESSAGE_TOO_LONG",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message is too long",
	)

	ErrCodeSessionUnavailable = errRegistry.Register(
		"SESSION_UNAVAILABLE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Session store unavailable",
	)

	ErrCodeVoiceNotConfigured = errRegistry.Register(
		"VOICE_NOT_CONFIGURED",
		errx.TypeInternal,
		http.StatusServiceUnavailable,
		"Voice processing is not configured",
	)

	ErrCodeMissingBookingInfo = errRegistry.Register(
		"MISSING_BOOKING_INFO",
		errx.TypeBusiness,
		http.StatusPreconditionFailed,
		"Missing required booking information",
	)
)

// ErrEmptyMessage reports a blank chat message.
func ErrEmptyMessage() *errx.Error {
	return errRegistry.New(ErrCodeEmptyMessage)
}

// ErrMessageTooLong reports a chat message over the length limit.
func ErrMessageTooLong(limit int) *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeMessageTooLong,
		fmt.Sprintf("Message must not exceed %d characters", limit)).
		WithDetail("limit", limit)
}

// ErrSessionUnavailable wraps a session store failure. The turn cannot
// proceed without the store.
func ErrSessionUnavailable(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeSessionUnavailable, cause)
}

// ErrVoiceNotConfigured reports a voice turn against a server without
// speech dependencies.
func ErrVoiceNotConfigured() *errx.Error {
	return errRegistry.New(ErrCodeVoiceNotConfigured)
}

func errMissingBookingInfo() *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeMissingBookingInfo, "Missing required booking information")
}
