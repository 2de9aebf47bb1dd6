package relay

import (
	"fmt"
	"net/http"
)

// methodAll is the stored method for routes registered via All.
const methodAll = ""

type route struct {
	method  string
	pattern *Pattern
	handler HandlerFunc
}

// RouteInfo describes a registered route for introspection.
type RouteInfo struct {
	Method  string // "*" for routes registered via All
	Pattern string
}

// routeTable is an ordered route collection. Lookup scans in registration
// order and the first (method, pattern) match wins; methods compare
// case-sensitively.
type routeTable struct {
	routes []route
}

func (t *routeTable) add(method, pattern string, handler HandlerFunc) {
	if handler == nil {
		panic(fmt.Errorf("%w: %s %s", ErrNilHandler, displayMethod(method), pattern))
	}
	p, err := CompilePattern(pattern)
	if err != nil {
		panic(err)
	}
	t.routes = append(t.routes, route{method: method, pattern: p, handler: handler})
}

func (t *routeTable) lookup(method, path string) (HandlerFunc, map[string]string, bool) {
	for _, rt := range t.routes {
		if rt.method != methodAll && rt.method != method {
			continue
		}
		if params, ok := rt.pattern.Match(path); ok {
			return rt.handler, params, true
		}
	}
	return nil, nil, false
}

func displayMethod(method string) string {
	if method == methodAll {
		return "*"
	}
	return method
}

// RouteBuilder registers handlers for one pattern, one HTTP verb per call.
// Calls chain, so a single pattern can carry several verbs:
//
//	r.Route("/users/:id").Get(show).Delete(remove)
type RouteBuilder struct {
	router  *Router
	pattern string
}

// Get registers handler for GET requests.
func (b *RouteBuilder) Get(handler HandlerFunc) *RouteBuilder {
	return b.method(http.MethodGet, handler)
}

// Post registers handler for POST requests.
func (b *RouteBuilder) Post(handler HandlerFunc) *RouteBuilder {
	return b.method(http.MethodPost, handler)
}

// Put registers handler for PUT requests.
func (b *RouteBuilder) Put(handler HandlerFunc) *RouteBuilder {
	return b.method(http.MethodPut, handler)
}

// Delete registers handler for DELETE requests.
func (b *RouteBuilder) Delete(handler HandlerFunc) *RouteBuilder {
	return b.method(http.MethodDelete, handler)
}

// Patch registers handler for PATCH requests.
func (b *RouteBuilder) Patch(handler HandlerFunc) *RouteBuilder {
	return b.method(http.MethodPatch, handler)
}

// Head registers handler for HEAD requests.
func (b *RouteBuilder) Head(handler HandlerFunc) *RouteBuilder {
	return b.method(http.MethodHead, handler)
}

// Options registers handler for OPTIONS requests.
func (b *RouteBuilder) Options(handler HandlerFunc) *RouteBuilder {
	return b.method(http.MethodOptions, handler)
}

// All registers handler for every request method.
func (b *RouteBuilder) All(handler HandlerFunc) *RouteBuilder {
	return b.method(methodAll, handler)
}

func (b *RouteBuilder) method(method string, handler HandlerFunc) *RouteBuilder {
	b.router.table.add(method, b.pattern, handler)
	return b
}
