// speech/errors.go
package speech

import (
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

// Error registry for speech package
var errRegistry = errx.NewRegistry("SPEECH")

// Error codes
var (
	ErrCodeMissingAPIKey = errRegistry.Register(
		"MISSING_API_KEY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"OpenAI API key is required",
	)

	ErrCodeClientInitFailed = errRegistry.Register(
		"CLIENT_INIT_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to initialize speech client",
	)

	ErrCodeEmptyAudio = errRegistry.Register(
		"EMPTY_AUDIO",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Audio file is empty",
	)

	ErrCodeAudioTooLarge = errRegistry.Register(
		"AUDIO_TOO_LARGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Audio file too large (max 25MB)",
	)

	ErrCodeUnsupportedFormat = errRegistry.Register(
		"UNSUPPORTED_FORMAT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Unsupported audio format",
	)

	ErrCodeTranscriptionFailed = errRegistry.Register(
		"TRANSCRIPTION_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Speech-to-text conversion failed",
	)

	ErrCodeSynthesisFailed = errRegistry.Register(
		"SYNTHESIS_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Text-to-speech conversion failed",
	)
)

// Error constructors

func NewMissingAPIKeyError() *errx.Error {
	return errRegistry.New(ErrCodeMissingAPIKey)
}

func NewClientInitError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeClientInitFailed, cause)
}

func NewEmptyAudioError() *errx.Error {
	return errRegistry.New(ErrCodeEmptyAudio)
}

func NewAudioTooLargeError(size int) *errx.Error {
	return errRegistry.New(ErrCodeAudioTooLarge).
		WithDetail("size_bytes", size).
		WithDetail("max_bytes", MaxAudioBytes)
}

func NewUnsupportedFormatError(format string) *errx.Error {
	return errRegistry.New(ErrCodeUnsupportedFormat).
		WithDetail("format", format)
}

func NewTranscriptionFailedError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeTranscriptionFailed, cause)
}

func NewSynthesisFailedError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeSynthesisFailed, cause)
}
