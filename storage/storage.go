// Package storage defines the bucket collaborator reachable through the
// request Context. The router core never calls a bucket; handlers and
// middleware fetch it from the Context when they need object storage.
package storage

import (
	"context"
	"errors"

	"github.com/relaykit/relay"
)

// ErrNotFound is returned by Get for a key with no stored object.
var ErrNotFound = errors.New("storage: object not found")

// Bucket is a flat keyed object store. Implementations must be safe for
// concurrent use.
type Bucket interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

type bucketContextKey struct{}

// With attaches a Bucket to the request context.
func With(c *relay.Context, b Bucket) {
	c.Set(bucketContextKey{}, b)
}

// From returns the Bucket attached to the request context, or nil when
// none was attached.
func From(c *relay.Context) Bucket {
	if v, ok := c.Get(bucketContextKey{}); ok {
		if b, ok := v.(Bucket); ok {
			return b
		}
	}
	return nil
}
