package middleware

import (
	"net/http"

	"github.com/relaykit/relay"
	"github.com/relaykit/relay/cache"
)

// CacheConfig configures the response cache middleware.
type CacheConfig struct {
	// Name is the cache namespace opened on the attached storage
	// (default: "responses").
	Name string

	// Cacheable decides whether a downstream response should be stored.
	// The default stores 200s for GET requests.
	Cacheable func(req *relay.Request, res *relay.Response) bool
}

// Cache creates response cache middleware with default configuration. The
// cache storage is the collaborator attached to the request Context with
// cache.With; without one the middleware is a transparent passthrough. On
// a hit the stored response short-circuits the rest of the pipeline.
func Cache() relay.Middleware {
	return CacheWithConfig(CacheConfig{})
}

// CacheWithConfig creates response cache middleware with custom
// configuration.
func CacheWithConfig(cfg CacheConfig) relay.Middleware {
	if cfg.Name == "" {
		cfg.Name = "responses"
	}
	if cfg.Cacheable == nil {
		cfg.Cacheable = func(req *relay.Request, res *relay.Response) bool {
			return req.Method == http.MethodGet && res.StatusCode == http.StatusOK
		}
	}

	return relay.Wrap(func(req *relay.Request, c *relay.Context, next relay.Next) (*relay.Response, error) {
		s := cache.From(c)
		if s == nil || req.Method != http.MethodGet {
			return next()
		}

		cc, err := s.Open(c, cfg.Name)
		if err != nil {
			return nil, err
		}

		if hit, err := cc.Match(c, req); err != nil {
			return nil, err
		} else if hit != nil {
			hit.Header.Set("X-Cache", "HIT")
			return hit, nil
		}

		res, err := next()
		if err != nil {
			return nil, err
		}
		if res != nil && cfg.Cacheable(req, res) {
			if err := cc.Put(c, req, res); err != nil {
				return nil, err
			}
		}
		return res, nil
	})
}
