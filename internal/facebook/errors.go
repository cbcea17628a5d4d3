package facebook

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSessionKey  = errors.New("unsupported session key")
	ErrNoCABundle         = errors.New("no usable certificates in bundled CA file")
	ErrMissingAppID       = errors.New("facebook app id is required")
	ErrFileUploadDisabled = errors.New("file parameters require file upload support")
)

// ErrorTypeTransport tags failures raised by the HTTP transport.
const ErrorTypeTransport = "TransportException"

// Transport error codes, numbered like their curl counterparts.
const (
	CodeMalformedRequest = 3
	CodeCouldNotResolve  = 6
	CodeCouldNotConnect  = 7
	CodeUploadRead       = 26
	CodeTimeout          = 28
	CodeSSLConnect       = 35
	CodePeerFailedVerify = 51
	CodeReceive          = 56
	CodeCACertificate    = 60
)

// APIError is the structured error returned to callers of the request primitives.
type APIError struct {
	Code    int
	Type    string
	Message string
	Err     error
}

func newTransportError(code int, err error) *APIError {
	return &APIError{Code: code, Type: ErrorTypeTransport, Message: err.Error(), Err: err}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Type, e.Message, e.Code)
}

func (e *APIError) Unwrap() error { return e.Err }
