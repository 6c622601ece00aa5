package auth

import (
	"errors"
	"strings"
)

var (
	ErrInvalidBearerFormat = errors.New("authorization header is not a bearer token")
	ErrEmptyBearerToken    = errors.New("empty bearer token")
)

// ParseBearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func ParseBearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidBearerFormat
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyBearerToken
	}
	return token, nil
}
