package auth

import (
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

// Error registry for auth package
var errRegistry = errx.NewRegistry("AUTH")

// Error codes
var (
	ErrCodeMissingSecret = errRegistry.Register(
		"MISSING_SECRET",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Auth secret key is required",
	)

	ErrCodeInvalidCredentials = errRegistry.Register(
		"INVALID_CREDENTIALS",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid client credentials",
	)

	ErrCodeMissingToken = errRegistry.Register(
		"MISSING_TOKEN",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Authorization token is required",
	)

	ErrCodeInvalidToken = errRegistry.Register(
		"INVALID_TOKEN",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid or expired token",
	)

	ErrCodeSigningFailed = errRegistry.Register(
		"SIGNING_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to sign access token",
	)
)

// Error constructors

func NewMissingSecretError() *errx.Error {
	return errRegistry.New(ErrCodeMissingSecret)
}

func NewInvalidCredentialsError() *errx.Error {
	return errRegistry.New(ErrCodeInvalidCredentials)
}

func NewMissingTokenError() *errx.Error {
	return errRegistry.New(ErrCodeMissingToken)
}

func NewInvalidTokenError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeInvalidToken, cause)
}

func NewSigningError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeSigningFailed, cause)
}
