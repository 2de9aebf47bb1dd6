// Package cache defines the response-cache collaborator contract consumed
// through the request Context. The router core never touches a cache
// itself; middleware opens a named cache and matches or stores responses
// against request descriptors. Backends: in-process memory and Redis.
package cache

import (
	"context"

	"github.com/relaykit/relay"
)

// Storage opens named caches. One Storage typically backs a whole process;
// names partition it into independent keyspaces.
type Storage interface {
	Open(ctx context.Context, name string) (Cache, error)
}

// Cache matches and stores responses keyed by request descriptor.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Match returns the stored response for req, or (nil, nil) on a miss.
	// The returned response is a private copy; callers may mutate it.
	Match(ctx context.Context, req *relay.Request) (*relay.Response, error)

	// Put stores res against req, replacing any previous entry.
	Put(ctx context.Context, req *relay.Request, res *relay.Response) error
}

// Key derives the cache key for a request: method plus the full current
// URL, so query strings produce distinct entries.
func Key(req *relay.Request) string {
	return req.Method + " " + req.URL
}

type storageContextKey struct{}

// With attaches a Storage to the request context so downstream middleware
// can reach it.
func With(c *relay.Context, s Storage) {
	c.Set(storageContextKey{}, s)
}

// From returns the Storage attached to the request context, or nil when
// none was attached.
func From(c *relay.Context) Storage {
	if v, ok := c.Get(storageContextKey{}); ok {
		if s, ok := v.(Storage); ok {
			return s
		}
	}
	return nil
}
