package protocol

import (
	"errors"
	"fmt"
)

// Code identifies a failure class on the wire. Codes are stable contract;
// messages are advisory text and may change.
type Code string

const (
	// CodeInitializationTimeout: engine startup did not resolve within the
	// ensure window.
	CodeInitializationTimeout Code = "initialization-timeout"
	// CodeInitializationFailure: engine startup resolved with an error.
	CodeInitializationFailure Code = "initialization-failure"
	// CodeEngineNotReady: an operation arrived before the engine finished
	// starting up.
	CodeEngineNotReady Code = "engine-not-ready"
	// CodeNoDocumentAvailable: apply or accept-all found neither a cached
	// document nor fallback bytes.
	CodeNoDocumentAvailable Code = "no-document-available"
	// CodeCommunicationFailure: the message channel itself broke; the
	// receiving endpoint no longer exists or did not answer.
	CodeCommunicationFailure Code = "communication-failure"
	// CodeInvalidRequest: the frame or payload failed structural validation.
	CodeInvalidRequest Code = "invalid-request"
	// CodeEngineFailure: the engine accepted the operation and failed while
	// executing it.
	CodeEngineFailure Code = "engine-failure"
)

// Common protocol errors. Decoded wire errors unwrap to these, so callers
// can match with errors.Is without looking at codes.
var (
	// ErrInitializationTimeout indicates engine startup did not resolve in time.
	ErrInitializationTimeout = errors.New("engine initialization timed out")

	// ErrInitializationFailure indicates engine startup failed.
	ErrInitializationFailure = errors.New("engine initialization failed")

	// ErrEngineNotReady indicates the engine has not finished starting up.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrNoDocumentAvailable indicates no document was cached or supplied.
	ErrNoDocumentAvailable = errors.New("no document available")

	// ErrCommunicationFailure indicates the receiving endpoint is gone.
	ErrCommunicationFailure = errors.New("endpoint unreachable")

	// ErrInvalidRequest indicates a malformed frame or payload.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEngineFailure indicates the engine failed while executing.
	ErrEngineFailure = errors.New("engine failure")
)

// Error is the wire form of a failure. Detail carries host-side diagnostic
// context (stack fragments, engine messages) and is stripped by the
// coordinator before a response is relayed to a client.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// NewError creates an Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of the error carrying diagnostic detail.
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap maps the error's code to its package sentinel, so wire errors
// participate in errors.Is chains.
func (e *Error) Unwrap() error {
	return sentinelFor(e.Code)
}

func sentinelFor(code Code) error {
	switch code {
	case CodeInitializationTimeout:
		return ErrInitializationTimeout
	case CodeInitializationFailure:
		return ErrInitializationFailure
	case CodeEngineNotReady:
		return ErrEngineNotReady
	case CodeNoDocumentAvailable:
		return ErrNoDocumentAvailable
	case CodeCommunicationFailure:
		return ErrCommunicationFailure
	case CodeInvalidRequest:
		return ErrInvalidRequest
	case CodeEngineFailure:
		return ErrEngineFailure
	default:
		return nil
	}
}

// FromError converts err into a wire Error. Existing wire errors pass
// through unchanged; sentinel matches keep their code; anything else is
// reported as an engine failure.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	for _, m := range []struct {
		sentinel error
		code     Code
	}{
		{ErrInitializationTimeout, CodeInitializationTimeout},
		{ErrInitializationFailure, CodeInitializationFailure},
		{ErrEngineNotReady, CodeEngineNotReady},
		{ErrNoDocumentAvailable, CodeNoDocumentAvailable},
		{ErrCommunicationFailure, CodeCommunicationFailure},
		{ErrInvalidRequest, CodeInvalidRequest},
		{ErrEngineFailure, CodeEngineFailure},
	} {
		if errors.Is(err, m.sentinel) {
			return NewError(m.code, err.Error())
		}
	}
	return NewError(CodeEngineFailure, err.Error())
}
