package audiostore

import (
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

var errRegistry = errx.NewRegistry("AUDIO")

var (
	ErrCodeInitFailed = errRegistry.Register(
		"INIT_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to initialize audio store",
	)

	ErrCodeWriteFailed = errRegistry.Register(
		"WRITE_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to write audio file",
	)

	ErrCodeUploadFailed = errRegistry.Register(
		"UPLOAD_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to upload audio file",
	)

	ErrCodePresignFailed = errRegistry.Register(
		"PRESIGN_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to presign audio URL",
	)
)

func NewInitError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeInitFailed, cause)
}

func NewWriteError(name string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeWriteFailed, cause).
		WithDetail("name", name)
}

func NewUploadError(name string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeUploadFailed, cause).
		WithDetail("name", name)
}

func NewPresignError(name string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodePresignFailed, cause).
		WithDetail("name", name)
}
