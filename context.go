package relay

import (
	"context"
	"log/slog"
	"time"
)

// Context is the per-request key/value bag. One Context is created at the
// start of each top-level Dispatch call and shared by reference with every
// middleware and handler that runs while servicing that request, including
// those of mounted sub-routers. Exactly one logical execution is ever
// active against a Context; it is never accessed concurrently.
//
// Context implements context.Context by delegating to the base context
// supplied to Dispatch, so it can be passed straight into collaborator
// calls that take a standard context.
type Context struct {
	base   context.Context
	values map[any]any
	params map[string]string
}

func newContext(base context.Context) *Context {
	if base == nil {
		base = context.Background()
	}
	return &Context{base: base}
}

// Deadline delegates to the base context.
func (c *Context) Deadline() (time.Time, bool) { return c.base.Deadline() }

// Done delegates to the base context.
func (c *Context) Done() <-chan struct{} { return c.base.Done() }

// Err delegates to the base context.
func (c *Context) Err() error { return c.base.Err() }

// Value returns the value stored under key via Set, falling back to the
// base context.
func (c *Context) Value(key any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.base.Value(key)
}

// Set stores a value in the request-scoped bag.
func (c *Context) Set(key, value any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Get retrieves a value previously stored with Set.
func (c *Context) Get(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Param returns the URL parameter bound by the matched route pattern, or ""
// when no such parameter exists.
func (c *Context) Param(key string) string {
	return c.params[key]
}

// Params returns all URL parameters bound by the matched route pattern.
// The map is nil until a route matches.
func (c *Context) Params() map[string]string {
	return c.params
}

func (c *Context) setParams(params map[string]string) {
	c.params = params
}

type loggerContextKey struct{}

// SetLogger attaches a request-scoped structured logger to the context.
func (c *Context) SetLogger(log *slog.Logger) {
	c.Set(loggerContextKey{}, log)
}

// Logger returns the request-scoped logger, or slog.Default() when none was
// attached.
func (c *Context) Logger() *slog.Logger {
	if log, ok := c.Get(loggerContextKey{}); ok {
		if l, ok := log.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
