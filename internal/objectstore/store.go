// Package objectstore puts attachment blobs under a key and hands back a
// URL that clients can fetch them from.
package objectstore

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidKey = errors.New("objectstore: invalid key")

// MaxKeySegmentBytes is the longest single path component a key may carry,
// the common file name limit of local filesystems.
const MaxKeySegmentBytes = 255

type PutResult struct {
	Key  string
	URL  string
	Size int64
}

type Store interface {
	// Put stores data under key and returns a publicly resolvable URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (*PutResult, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// ValidateKey rejects keys that are empty or absolute, could escape the
// store's namespace, or have a segment longer than MaxKeySegmentBytes.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsAny(key, "\\\x00") {
		return ErrInvalidKey
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." || len(segment) > MaxKeySegmentBytes {
			return ErrInvalidKey
		}
	}

	return nil
}

// PublicURL joins base and key, escaping each key segment.
func PublicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
