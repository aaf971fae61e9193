// rideapi/errors.go
package rideapi

import (
	"fmt"
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

var errRegistry = errx.NewRegistry("RIDEAPI")

var (
	ErrCodeTimeout = errRegistry.Register(
		"API_TIMEOUT",
		errx.TypeExternal,
		http.StatusGatewayTimeout,
		"Ride booking API timeout",
	)

	ErrCodeConnection = errRegistry.Register(
		"CONNECTION_ERROR",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Could not connect to ride booking API",
	)

	ErrCodeHTTP = errRegistry.Register(
		"HTTP_ERROR",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Ride booking API HTTP error",
	)

	ErrCodeGeneral = errRegistry.Register(
		"GENERAL_ERROR",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Ride booking request failed",
	)

	ErrCodeCancellation = errRegistry.Register(
		"CANCELLATION_ERROR",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Ride cancellation failed",
	)

	ErrCodeStatusUnavailable = errRegistry.Register(
		"STATUS_UNAVAILABLE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Ride status is unavailable",
	)
)

func NewTimeoutError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeTimeout, cause)
}

func NewConnectionError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeConnection, cause)
}

func NewHTTPError(statusCode int) *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeHTTP,
		fmt.Sprintf("Ride booking API HTTP error: %d", statusCode)).
		WithDetail("status_code", statusCode)
}

func NewGeneralError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeGeneral, cause)
}

func NewCancellationError(rideID int64, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeCancellation, cause).
		WithDetail("ride_id", rideID)
}

func NewStatusUnavailableError(rideID int64, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeStatusUnavailable, cause).
		WithDetail("ride_id", rideID)
}
