// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenValidity applies when Issue is called without a validity.
const DefaultTokenValidity = 15 * time.Minute

// Claims is the token payload. Subject carries the username.
type Claims struct {
	jwt.RegisteredClaims
}

// NewClaims returns claims for subject.
func NewClaims(subject string) Claims {
	return Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}
}

// TokenIssuer signs and verifies HS256 tokens with one process-wide secret.
// It is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. An empty secret is
// refused: it would make every token forgeable.
func NewTokenIssuer(secret []byte) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenIssuer{secret: key, now: time.Now}, nil
}

// Issue signs claims with an absolute expiry validity from now. A zero
// validity means DefaultTokenValidity. Every token gets a fresh random ID, so
// two tokens for the same subject never collide.
func (i *TokenIssuer) Issue(claims Claims, validity time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("claims without subject")
	}
	if validity == 0 {
		validity = DefaultTokenValidity
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	now := i.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(validity))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature and expiry and returns the claims. Every failure
// is reported as common.ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
