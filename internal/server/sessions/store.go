// Package sessions is the session authority: for every username it holds at
// most one active access token, with a time-to-live.
package sessions

import (
	"context"
	"time"
)

// Store maps a subject to its single active token.
//
// Put replaces whatever the subject had before in one atomic write, so the
// newest login always invalidates older tokens, and concurrent logins for
// the same subject resolve as last write wins. Get returns
// common.ErrNoSession when nothing is stored or the entry has expired.
type Store interface {
	Put(ctx context.Context, subject, token string, ttl time.Duration) error
	Get(ctx context.Context, subject string) (string, error)
	Delete(ctx context.Context, subject string) error
}
