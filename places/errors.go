// places/errors.go
package places

import (
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

var errRegistry = errx.NewRegistry("PLACES")

var (
	ErrCodeMissingAPIKey = errRegistry.Register(
		"MISSING_API_KEY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Google Maps API key is required",
	)

	ErrCodeClientInitFailed = errRegistry.Register(
		"CLIENT_INIT_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to initialize Google Maps client",
	)

	ErrCodeResolutionFailed = errRegistry.Register(
		"RESOLUTION_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to resolve location",
	)
)

func NewMissingAPIKeyError() *errx.Error {
	return errRegistry.New(ErrCodeMissingAPIKey)
}

func NewClientInitError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeClientInitFailed, cause)
}

func NewResolutionFailedError(input string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeResolutionFailed, cause).
		WithDetail("input", input)
}
