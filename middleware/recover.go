package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/relaykit/relay"
)

// RecoverConfig configures the recovery middleware.
type RecoverConfig struct {
	// Logger receives recovered panics and converted errors (default: the
	// context logger)
	Logger *slog.Logger

	// ErrorResponse builds the response for a downstream failure. The
	// default is a plain 500.
	ErrorResponse func(req *relay.Request, err error) *relay.Response
}

// Recover creates middleware that converts downstream errors and panics
// into 500 responses. The router itself never converts errors, so an
// application that wants HTTP error pages registers this as its outermost
// middleware.
func Recover() relay.Middleware {
	return RecoverWithConfig(RecoverConfig{})
}

// RecoverWithConfig creates a recovery middleware with custom
// configuration.
func RecoverWithConfig(cfg RecoverConfig) relay.Middleware {
	if cfg.ErrorResponse == nil {
		cfg.ErrorResponse = func(_ *relay.Request, _ error) *relay.Response {
			return relay.Text(http.StatusInternalServerError, "Internal Server Error")
		}
	}

	return relay.Wrap(func(req *relay.Request, c *relay.Context, next relay.Next) (res *relay.Response, err error) {
		log := cfg.Logger
		if log == nil {
			log = c.Logger()
		}

		defer func() {
			if r := recover(); r != nil {
				perr := toError(r)
				log.Error("panic recovered",
					slog.String("method", req.Method),
					slog.String("url", req.URL),
					slog.Any("error", perr))
				res, err = cfg.ErrorResponse(req, perr), nil
			}
		}()

		res, err = next()
		if err != nil {
			log.Error("request error",
				slog.String("method", req.Method),
				slog.String("url", req.URL),
				slog.Any("error", err))
			return cfg.ErrorResponse(req, err), nil
		}
		return res, nil
	})
}

func toError(v any) error {
	switch e := v.(type) {
	case error:
		return e
	case string:
		return fmt.Errorf("panic: %s", e)
	default:
		return fmt.Errorf("panic: %v", e)
	}
}
