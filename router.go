package relay

import (
	"context"
	"fmt"
	"strings"
)

// Router owns an ordered middleware stack and an ordered route table, and
// exposes the single Dispatch entry point. Routers compose: Mount flattens
// a sub-router's middleware and routes into the parent under a path prefix,
// so dispatch never recurses through sub-router objects.
//
// Registration is not safe for concurrent use; register everything before
// the first Dispatch. Dispatch itself is safe to call from any number of
// goroutines once registration is done.
type Router struct {
	middlewares []middlewareEntry
	table       routeTable
}

// New creates an empty router.
func New() *Router {
	return &Router{}
}

// Route starts route registration for a path pattern. The returned builder
// carries one method per HTTP verb plus All.
func (r *Router) Route(pattern string) *RouteBuilder {
	return &RouteBuilder{router: r, pattern: pattern}
}

// Use appends middleware to the stack. Registration order is load-bearing:
// before phases run in this order and after phases of wrapping middleware
// unwind in reverse.
func (r *Router) Use(ms ...Middleware) {
	for _, m := range ms {
		r.use(middlewareEntry{mw: m})
	}
}

// UseAt appends middleware scoped to a path prefix. The prefix matches at
// segment boundaries only: "/admin" covers "/admin" and "/admin/users" but
// not "/administrator".
func (r *Router) UseAt(prefix string, ms ...Middleware) {
	if len(prefix) == 0 || prefix[0] != '/' {
		panic(fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix))
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		// "/" scopes to everything, same as an unprefixed entry.
		for _, m := range ms {
			r.use(middlewareEntry{mw: m})
		}
		return
	}
	for _, m := range ms {
		r.use(middlewareEntry{prefix: prefix, mw: m})
	}
}

func (r *Router) use(e middlewareEntry) {
	if e.mw.fn == nil && e.mw.wrap == nil {
		panic(fmt.Errorf("%w: use Func or Wrap to construct middleware", ErrNilMiddleware))
	}
	r.middlewares = append(r.middlewares, e)
}

// Mount attaches sub's routes and middleware under prefix, as if each had
// been registered on r with prefix prepended to its own prefix or pattern.
// Flattening happens here, at mount time: routes or middleware added to sub
// afterwards are not visible through r. The same sub-router instance may be
// mounted at several prefixes; the same handler and middleware closures
// then run under each composed prefix.
func (r *Router) Mount(prefix string, sub *Router) {
	if sub == nil {
		panic(fmt.Errorf("%w: mount %q", ErrNilRouter, prefix))
	}
	if len(prefix) == 0 || prefix[0] != '/' {
		panic(fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix))
	}
	prefix = strings.TrimSuffix(prefix, "/")

	for _, e := range sub.middlewares {
		composed := prefix + e.prefix // e.prefix == "" scopes to the mount itself
		if composed == "" {
			r.middlewares = append(r.middlewares, middlewareEntry{mw: e.mw})
			continue
		}
		r.middlewares = append(r.middlewares, middlewareEntry{prefix: composed, mw: e.mw})
	}

	for _, rt := range sub.table.routes {
		r.table.add(rt.method, joinPattern(prefix, rt.pattern.String()), rt.handler)
	}
}

// Routes returns all registered routes, including flattened mounts, in
// registration order.
func (r *Router) Routes() []RouteInfo {
	infos := make([]RouteInfo, 0, len(r.table.routes))
	for _, rt := range r.table.routes {
		infos = append(infos, RouteInfo{
			Method:  displayMethod(rt.method),
			Pattern: rt.pattern.String(),
		})
	}
	return infos
}

// Stats reports registration counts for introspection.
type Stats struct {
	RouteCount      int
	MiddlewareCount int
}

// Stats returns the number of registered routes and middleware entries,
// including those flattened in from mounts.
func (r *Router) Stats() Stats {
	return Stats{
		RouteCount:      len(r.table.routes),
		MiddlewareCount: len(r.middlewares),
	}
}

// Dispatch services one request: it creates a fresh Context, threads req
// through the middleware stack in order and, if nothing short-circuits,
// consults the route table — or synthesizes a redirect when middleware
// rewrote the request URL. The fallback for an unmatched route is a 404
// with body "Not Found".
//
// Errors returned by middleware or handlers propagate out unmodified; the
// router never converts them into responses. ctx is the embedding
// transport's context; it backs the request Context's context.Context
// implementation.
func (r *Router) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	return r.dispatchWith(newContext(ctx), req)
}

// joinPattern prepends a mount prefix to a route pattern. A root pattern
// collapses onto the prefix so that a sub-router's "/" answers at the mount
// point itself.
func joinPattern(prefix, pattern string) string {
	if pattern == "/" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return prefix + pattern
}
