package cache

import (
	"context"
	"sync"
	"time"

	"github.com/relaykit/relay"
)

// MemoryStorage is an in-process Storage. Entries expire after the
// configured TTL; a zero TTL keeps them until overwritten.
type MemoryStorage struct {
	mu     sync.Mutex
	caches map[string]*memoryCache
	ttl    time.Duration
	now    func() time.Time
}

// MemoryOption configures MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithTTL sets the expiry applied to every stored response.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStorage) {
		s.ttl = ttl
	}
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

// NewMemoryStorage creates an in-process cache storage.
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	s := &MemoryStorage{
		caches: make(map[string]*memoryCache),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns the named cache, creating it on first use.
func (s *MemoryStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{
			entries: make(map[string]memoryEntry),
			ttl:     s.ttl,
			now:     s.now,
		}
		s.caches[name] = c
	}
	return c, nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	res     *relay.Response
	expires time.Time // zero means no expiry
}

func (c *memoryCache) Match(_ context.Context, req *relay.Request) (*relay.Response, error) {
	key := Key(req)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	// Clone so later header mutation cannot corrupt the stored copy.
	return e.res.Clone(), nil
}

func (c *memoryCache) Put(_ context.Context, req *relay.Request, res *relay.Response) error {
	e := memoryEntry{res: res.Clone()}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[Key(req)] = e
	c.mu.Unlock()
	return nil
}
