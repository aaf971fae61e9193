// translate/errors.go
package translate

import (
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

// Error registry for translate package
var errRegistry = errx.NewRegistry("TRANSLATE")

// Error codes
var (
	ErrCodeMissingAPIKey = errRegistry.Register(
		"MISSING_API_KEY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Google Translate API key is required",
	)

	ErrCodeClientInitFailed = errRegistry.Register(
		"CLIENT_INIT_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to initialize translation client",
	)

	ErrCodeTranslationFailed = errRegistry.Register(
		"TRANSLATION_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Translation request failed",
	)

	ErrCodeEmptyResult = errRegistry.Register(
		"EMPTY_RESULT",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Translation API returned no result",
	)
)

// Error constructors

func NewMissingAPIKeyError() *errx.Error {
	return errRegistry.New(ErrCodeMissingAPIKey)
}

func NewClientInitError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeClientInitFailed, cause)
}

func NewTranslationFailedError(from, to string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeTranslationFailed, cause).
		WithDetail("from", from).
		WithDetail("to", to)
}

func NewEmptyResultError(from, to string) *errx.Error {
	return errRegistry.New(ErrCodeEmptyResult).
		WithDetail("from", from).
		WithDetail("to", to)
}
