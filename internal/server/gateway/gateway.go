// Package gateway decides what "authenticated" means. A request is let in
// only when its bearer token verifies and the session authority still holds
// exactly that token for the token's subject.
package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/server/auth"
	"github.com/dmitrijs2005/avatargate/internal/server/sessions"
)

// TokenIssuer mints and verifies access tokens.
type TokenIssuer interface {
	Issue(claims auth.Claims, validity time.Duration) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// Gateway holds no mutable state and is safe for concurrent use.
type Gateway struct {
	issuer        TokenIssuer
	sessions      sessions.Store
	tokenValidity time.Duration
	sessionTTL    time.Duration
}

// New builds a Gateway. sessionTTL must not exceed tokenValidity, so a
// session entry never vouches for a token that has already expired.
func New(issuer TokenIssuer, store sessions.Store, tokenValidity, sessionTTL time.Duration) (*Gateway, error) {
	if tokenValidity <= 0 || sessionTTL <= 0 {
		return nil, errors.New("token validity and session ttl must be positive")
	}
	if sessionTTL > tokenValidity {
		return nil, fmt.Errorf("session ttl %s exceeds token validity %s", sessionTTL, tokenValidity)
	}
	return &Gateway{
		issuer:        issuer,
		sessions:      store,
		tokenValidity: tokenValidity,
		sessionTTL:    sessionTTL,
	}, nil
}

// OpenSession mints a token for subject and makes it the subject's only
// active session, invalidating any token issued before.
func (g *Gateway) OpenSession(ctx context.Context, subject string) (string, error) {
	token, err := g.issuer.Issue(auth.NewClaims(subject), g.tokenValidity)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := g.sessions.Put(ctx, subject, token, g.sessionTTL); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return token, nil
}

// Authenticate runs the gate on an Authorization header value.
func (g *Gateway) Authenticate(ctx context.Context, authorization string) Outcome {
	token, err := auth.ParseBearerToken(authorization)
	if err != nil {
		return denied(DenyMissingToken, "", err)
	}
	return g.Check(ctx, token)
}

// Check runs the gate on an already extracted token.
func (g *Gateway) Check(ctx context.Context, token string) Outcome {
	claims, err := g.issuer.Verify(token)
	if err != nil {
		return denied(DenyInvalidToken, "", err)
	}
	subject := claims.Subject

	active, err := g.sessions.Get(ctx, subject)
	switch {
	case errors.Is(err, common.ErrNoSession):
		return denied(DenyNoSession, subject, err)
	case err != nil:
		return denied(DenyInternal, subject, err)
	}

	if subtle.ConstantTimeCompare([]byte(active), []byte(token)) != 1 {
		return denied(DenySessionMismatch, subject, nil)
	}
	return authorized(subject)
}
