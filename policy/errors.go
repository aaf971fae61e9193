// policy/errors.go
package policy

import (
	"net/http"

	"github.com/vaahana-ai/vaahana/pkg/errx"
)

// Error registry for policy package
var errRegistry = errx.NewRegistry("POLICY")

// Error codes
var (
	ErrCodeMissingAgentConfig = errRegistry.Register(
		"MISSING_AGENT_CONFIG",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Bedrock agent ID and alias ID are required",
	)

	ErrCodeClientInitFailed = errRegistry.Register(
		"CLIENT_INIT_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to initialize Bedrock agent client",
	)

	ErrCodeInvokeFailed = errRegistry.Register(
		"INVOKE_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Bedrock agent invocation failed",
	)

	ErrCodeStreamFailed = errRegistry.Register(
		"STREAM_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Bedrock agent response stream failed",
	)
)

// Error constructors

func NewMissingAgentConfigError() *errx.Error {
	return errRegistry.New(ErrCodeMissingAgentConfig)
}

func NewClientInitError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeClientInitFailed, cause)
}

func NewInvokeError(sessionID string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeInvokeFailed, cause).
		WithDetail("session_id", sessionID)
}

func NewStreamError(sessionID string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeStreamFailed, cause).
		WithDetail("session_id", sessionID)
}
