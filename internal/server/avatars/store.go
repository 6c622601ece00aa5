// Package avatars stores avatar images under per-user keys.
package avatars

import (
	"context"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Store persists avatar bytes by key. Open reports common.ErrorNotFound for
// a key with no object. Remove of a missing key is not an error.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// Key is the storage key for username's avatar with extension ext, of the
// form <user>/<user>.<ext>. The username is percent-escaped so that '/' and
// other reserved bytes stay inside one path segment, and a leading '.' is
// escaped too, so "." and ".." never act as directory references. Distinct
// usernames always give distinct keys.
func Key(username, ext string) string {
	seg := keySegment(username)
	return seg + "/" + seg + "." + ext
}

func keySegment(username string) string {
	s := url.PathEscape(username)
	if strings.HasPrefix(s, ".") {
		s = "%2E" + s[1:]
	}
	return s
}

// ContentType guesses the media type of key from its extension.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
