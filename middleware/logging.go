package middleware

import (
	"log/slog"
	"time"

	"github.com/relaykit/relay"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Skip bypasses logging for specific requests (health checks etc.)
	Skip func(req *relay.Request) bool

	// Logger is the slog logger to use (default: the context logger)
	Logger *slog.Logger

	// Level for completed-request log lines (default: slog.LevelInfo)
	Level slog.Level

	// SlowRequestThreshold logs slow requests at warning level instead
	// (default: disabled)
	SlowRequestThreshold time.Duration
}

// Logging creates a request logging middleware with default configuration:
// one structured line per request with method, path, status and duration.
// Errors from downstream are logged and re-raised untouched.
func Logging() relay.Middleware {
	return LoggingWithConfig(LoggingConfig{})
}

// LoggingWithConfig creates a request logging middleware with custom
// configuration.
func LoggingWithConfig(cfg LoggingConfig) relay.Middleware {
	return relay.Wrap(func(req *relay.Request, c *relay.Context, next relay.Next) (*relay.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		log := cfg.Logger
		if log == nil {
			log = c.Logger()
		}

		start := time.Now()
		res, err := next()
		elapsed := time.Since(start)

		attrs := []any{
			slog.String("method", req.Method),
			slog.String("path", req.Path()),
			slog.Duration("duration", elapsed),
		}
		if id, ok := GetRequestID(c); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}

		if err != nil {
			log.Error("request failed", append(attrs, slog.Any("error", err))...)
			return nil, err
		}

		status := 0
		if res != nil {
			status = res.StatusCode
		}
		attrs = append(attrs, slog.Int("status", status))

		level := cfg.Level
		if cfg.SlowRequestThreshold > 0 && elapsed > cfg.SlowRequestThreshold {
			level = slog.LevelWarn
		}
		log.Log(c, level, "request completed", attrs...)

		return res, nil
	})
}
