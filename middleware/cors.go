package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/relaykit/relay"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins specifies allowed origins. Defaults to ["*"].
	AllowOrigins []string

	// AllowMethods specifies allowed HTTP methods. Defaults to
	// GET, HEAD, PUT, PATCH, POST, DELETE.
	AllowMethods []string

	// AllowHeaders specifies allowed request headers. Defaults to
	// Content-Type and Authorization.
	AllowHeaders []string

	// ExposeHeaders lists headers exposed to the client.
	ExposeHeaders []string

	// AllowCredentials permits cookies and authorization headers. It is
	// ignored for wildcard origins.
	AllowCredentials bool

	// MaxAge caches preflight results for the given number of seconds.
	MaxAge int
}

// CORS creates a CORS middleware with default configuration: all origins,
// common methods and standard headers. Preflight OPTIONS requests are
// answered directly without running the rest of the pipeline; other
// requests are delegated and the CORS headers are added to whatever
// response comes back.
func CORS() relay.Middleware {
	return CORSWithConfig(CORSConfig{})
}

// CORSWithConfig creates a CORS middleware with custom configuration.
func CORSWithConfig(cfg CORSConfig) relay.Middleware {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{"Content-Type", "Authorization"}
	}
	wildcard := slices.Contains(cfg.AllowOrigins, "*")

	apply := func(h http.Header, origin string) {
		if wildcard && !cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		if cfg.AllowCredentials && !wildcard {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if len(cfg.ExposeHeaders) > 0 {
			h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
		}
	}

	allowed := func(origin string) bool {
		return wildcard || slices.Contains(cfg.AllowOrigins, origin)
	}

	return relay.Wrap(func(req *relay.Request, c *relay.Context, next relay.Next) (*relay.Response, error) {
		origin := req.Header.Get("Origin")
		if origin == "" || !allowed(origin) {
			return next()
		}

		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			// Preflight: answer without delegating.
			res := relay.NewResponse(http.StatusNoContent)
			apply(res.Header, origin)
			res.Header.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			res.Header.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			if cfg.MaxAge > 0 {
				res.Header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			return res, nil
		}

		res, err := next()
		if err != nil {
			return nil, err
		}
		if res != nil {
			apply(res.Header, origin)
		}
		return res, nil
	})
}
