// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors. ErrInvalidToken covers malformed, badly signed and
	// expired tokens alike.
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSession    = errors.New("no active session")

	// Transport-level errors.
	ErrRateLimited = errors.New("rate limited")
)

// DetailError attaches a client-facing message to one of the sentinels
// above. errors.Is matches the sentinel.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string { return e.Kind.Error() + ": " + e.Detail }

// Unwrap exposes Kind to errors.Is.
func (e *DetailError) Unwrap() error { return e.Kind }

// WithDetail returns kind annotated with detail.
func WithDetail(kind error, detail string) error {
	return &DetailError{Kind: kind, Detail: detail}
}
