package pos

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation. Transport failures are indeterminate:
// the bank may or may not have acted on the request, so they must never be
// collapsed into a confirmed business failure.
type Kind int

const (
	// KindValidation marks malformed or missing caller input. Raised before
	// any network call.
	KindValidation Kind = iota
	// KindConfig marks a missing merchant credential. The call is never
	// attempted.
	KindConfig
	// KindSignature marks a callback signature or hash mismatch. Treated as
	// a security event.
	KindSignature
	// KindTransport marks a network, timeout or TLS failure with no known
	// business outcome.
	KindTransport
	// KindBusiness marks an explicit non-success response from the bank.
	KindBusiness
	// KindResponse marks a response the parser could not locate a result
	// node in.
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	case KindSignature:
		return "signature"
	case KindTransport:
		return "transport"
	case KindBusiness:
		return "business"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Error is the error type surfaced by adapters and the registry. Payload, when
// set, is a redacted snapshot of the inputs; raw secrets never appear here.
type Error struct {
	Kind          Kind
	Code          string
	Message       string
	CorrelationID string
	Payload       map[string]string
	Err           error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("pos: %s: %s (%s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("pos: %s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/As to inspect the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewValidation reports invalid caller input.
func NewValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// MissingField reports a required payload field that was not provided.
func MissingField(name string) *Error {
	return &Error{Kind: KindValidation, Code: "MISSING_FIELD", Message: "missing field: " + name}
}

// MissingConfig reports a required merchant credential that was not provided.
func MissingConfig(name string) *Error {
	return &Error{Kind: KindConfig, Code: "MISSING_CONFIG", Message: "missing config field: " + name}
}

// NewSignature reports a callback hash mismatch.
func NewSignature(message string) *Error {
	return &Error{Kind: KindSignature, Code: "SIGNATURE_MISMATCH", Message: message}
}

// NewTransport wraps a network-level failure.
func NewTransport(err error) *Error {
	return &Error{Kind: KindTransport, Code: "TRANSPORT", Message: "bank call failed", Err: err}
}

// NewBusiness reports an explicit rejection from the bank.
func NewBusiness(code, message string) *Error {
	if code == "" {
		code = "UNKNOWN_ERROR"
	}
	if message == "" {
		message = "bank rejected the operation"
	}
	return &Error{Kind: KindBusiness, Code: code, Message: message}
}

// ResponseNotFound reports a bank response without a recognisable result node.
func ResponseNotFound(detail string) *Error {
	return &Error{Kind: KindResponse, Code: "RESPONSE_NOT_FOUND", Message: detail}
}

// KindOf extracts the Kind from err, or KindTransport for foreign errors so
// callers never mistake an unknown failure for a confirmed outcome.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
