package errx

import (
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error for HTTP mapping and handling decisions.
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeInternal      Type = "INTERNAL"
	TypeExternal      Type = "EXTERNAL"
	TypeBusiness      Type = "BUSINESS"
)

// Error is a registered application error. The zero value is not usable;
// construct instances through a Registry.
type Error struct {
	Code       string         `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"http_status"`
	Details    map[string]any `json:"details,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the underlying error, or nil.
func (e *Error) Cause() error {
	return e.cause
}

// WithDetail attaches a key/value pair and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches an underlying error and returns the error for chaining.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, t Type) bool {
	e, ok := err.(*Error)
	return ok && e.Type == t
}

// definition is the registered template for one error code.
type definition struct {
	errType    Type
	httpStatus int
	message    string
}

// Registry holds the error definitions for one package. Codes are
// namespaced with the registry prefix so they stay unique across the
// application.
type Registry struct {
	prefix string
	mu     sync.RWMutex
	defs   map[string]definition
}

// NewRegistry creates a registry whose codes carry the given prefix.
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		defs:   make(map[string]definition),
	}
}

// Register declares an error code and returns the fully qualified code.
// Registration happens in package var blocks, so later collisions are a
// programming error and overwrite the earlier definition.
func (r *Registry) Register(code string, t Type, httpStatus int, message string) string {
	full := r.prefix + "_" + code
	r.mu.Lock()
	r.defs[full] = definition{errType: t, httpStatus: httpStatus, message: message}
	r.mu.Unlock()
	return full
}

// New creates an error from a registered code with its default message.
func (r *Registry) New(code string) *Error {
	def := r.lookup(code)
	return &Error{
		Code:       code,
		Type:       def.errType,
		Message:    def.message,
		HTTPStatus: def.httpStatus,
	}
}

// NewWithMessage creates an error from a registered code, replacing the
// default message.
func (r *Registry) NewWithMessage(code, message string) *Error {
	e := r.New(code)
	e.Message = message
	return e
}

// NewWithCause creates an error from a registered code and records the
// underlying cause.
func (r *Registry) NewWithCause(code string, cause error) *Error {
	e := r.New(code)
	e.cause = cause
	return e
}

func (r *Registry) lookup(code string) definition {
	r.mu.RLock()
	def, ok := r.defs[code]
	r.mu.RUnlock()
	if !ok {
		return definition{
			errType:    TypeInternal,
			httpStatus: http.StatusInternalServerError,
			message:    "Unknown error",
		}
	}
	return def
}
