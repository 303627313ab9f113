package apperr

import (
  "errors"
  "fmt"
)

// Kind classifies every failure the chat subsystem can surface. Handlers map
// kinds to HTTP codes, the orchestrator maps them to user-visible messages.
type Kind string

const (
  AuthRequired      Kind = "auth_required"
  MissingCredential Kind = "missing_credential"
  ProviderError     Kind = "provider_error"
  NetworkError      Kind = "network_error"
  PersistenceError  Kind = "persistence_error"
  ValidationError   Kind = "validation_error"
)

type Error struct {
  Kind            Kind
  Message         string
  UpstreamStatus  int
  UpstreamBody    string
  NeedsSetup      bool
  Err             error
}

func (e *Error) Error() string {
  if e.Err != nil {
    return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
  }
  return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
  return e.Err
}

func New(kind Kind, message string) *Error {
  return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
  return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
  return &Error{Kind: kind, Message: message, Err: err}
}

// Upstream builds a ProviderError carrying the raw upstream status and body.
func Upstream(status int, body string, message string) *Error {
  return &Error{Kind: ProviderError, Message: message, UpstreamStatus: status, UpstreamBody: body}
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Kind
  }
  return ""
}

func IsKind(err error, kind Kind) bool {
  return KindOf(err) == kind
}

// AsError unwraps err into an *Error when possible.
func AsError(err error) (*Error, bool) {
  var ae *Error
  if errors.As(err, &ae) {
    return ae, true
  }
  return nil, false
}
