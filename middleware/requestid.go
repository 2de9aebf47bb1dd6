package middleware

import (
	"github.com/google/uuid"

	"github.com/relaykit/relay"
)

// requestIDContextKey is used as a key for storing the request ID in the
// request context.
type requestIDContextKey struct{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName specifies the response header for the request ID
	// (default: "X-Request-ID")
	HeaderName string
	// UseExisting reuses a request ID already present on the incoming
	// request instead of generating a new one
	UseExisting bool
}

// RequestID creates a request ID middleware with default configuration.
// It generates a new UUID for each request and exposes it in both the
// context and the response headers.
func RequestID() relay.Middleware {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig creates a request ID middleware with custom
// configuration. The ID is stored in the context before delegating and
// stamped onto whatever response comes back, including short-circuit and
// synthesized redirect responses.
func RequestIDWithConfig(cfg RequestIDConfig) relay.Middleware {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return relay.Wrap(func(req *relay.Request, c *relay.Context, next relay.Next) (*relay.Response, error) {
		var id string
		if cfg.UseExisting {
			id = req.Header.Get(cfg.HeaderName)
		}
		if id == "" {
			id = cfg.Generator()
		}
		c.Set(requestIDContextKey{}, id)

		res, err := next()
		if err != nil {
			return nil, err
		}
		if res != nil {
			res.Header.Set(cfg.HeaderName, id)
		}
		return res, nil
	})
}

// GetRequestID retrieves the request ID from the request context. The
// second return value reports whether one was set.
func GetRequestID(c *relay.Context) (string, bool) {
	v, ok := c.Get(requestIDContextKey{})
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
