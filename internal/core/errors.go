package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeDuplicateKey      = "duplicate_key"
	ErrCodeNotFound          = "not_found"
	ErrCodeDisposed          = "disposed"
	ErrCodeUnrecognizedEvent = "unrecognized_event"
	ErrCodeMalformedMessage  = "malformed_message"
	ErrCodeTransportFailure  = "transport_failure"
)

var (
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrNotFound          = errors.New("not found")
	ErrDisposed          = errors.New("store disposed")
	ErrUnrecognizedEvent = errors.New("unrecognized event")
	ErrMalformedMessage  = errors.New("malformed message")
	ErrTransportFailure  = errors.New("transport failure")
)

// Error ties a store failure to the entity it concerns.
type Error struct {
	Code string
	Kind Kind
	Key  any
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err for the entity identified by kind and key.
func NewError(kind Kind, key any, err error) *Error {
	return &Error{Code: CodeOf(err), Kind: kind, Key: key, Err: err}
}

// CodeOf maps an error onto its stable code, or "" for unknown errors.
func CodeOf(err error) string {
	var coreErr *Error
	if errors.As(err, &coreErr) && coreErr.Code != "" {
		return coreErr.Code
	}
	switch {
	case errors.Is(err, ErrDuplicateKey):
		return ErrCodeDuplicateKey
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrDisposed):
		return ErrCodeDisposed
	case errors.Is(err, ErrUnrecognizedEvent):
		return ErrCodeUnrecognizedEvent
	case errors.Is(err, ErrMalformedMessage):
		return ErrCodeMalformedMessage
	case errors.Is(err, ErrTransportFailure):
		return ErrCodeTransportFailure
	default:
		return ""
	}
}
