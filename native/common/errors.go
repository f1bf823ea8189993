package common

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so callers can branch on the reason without
// matching message text.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindConfig marks an invalid configuration value rejected at write time.
	KindConfig
	// KindAuthorization marks a caller lacking the required role.
	KindAuthorization
	// KindNotFound marks a referenced attestation, dispute or range that is absent.
	KindNotFound
	// KindState marks an operation attempted in the wrong lifecycle state.
	KindState
	// KindLimitExceeded marks rate limit and counter overflow violations.
	KindLimitExceeded
	// KindResource marks token transfer failures propagated from the ledger.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every native engine. Packages declare
// their sentinels with NewError and add context with fmt.Errorf("%w: ...").
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

// NewError builds a sentinel error.
func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// KindOf extracts the kind of the first typed error in the chain.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnknown
}

// CodeOf returns the stable reason code of the first typed error in the chain.
func CodeOf(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return ""
}

// Wrap attaches a typed kind to an arbitrary error, e.g. a ledger failure that
// must surface as a resource error.
func Wrap(kind Kind, code string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return fmt.Errorf("%w: %w", NewError(kind, code, code), err)
}
