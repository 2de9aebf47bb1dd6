package relay

import "fmt"

// HandlerFunc is a route handler. It receives the (possibly rewritten)
// request descriptor and the request-scoped Context and produces a response
// or an error. Errors are never converted into responses by the router;
// they propagate out of Dispatch unmodified.
type HandlerFunc func(req *Request, c *Context) (*Response, error)

// Next resumes the rest of the pipeline from inside a Wrap middleware. It
// returns the downstream response, or the error raised downstream — the
// exact error a later middleware or the handler returned, surfaced at the
// delegation point so the caller may convert it into a response. Next may
// be called at most once; a second call panics.
type Next func() (*Response, error)

// WrapFunc is the body of a wrapping middleware. Code before the next call
// is the before phase; it may rewrite req (the rewrite is visible
// downstream) or skip next entirely to short-circuit (non-nil response) or
// pass through (nil, nil). Code after the next call may mutate the
// downstream response and must return it.
type WrapFunc func(req *Request, c *Context, next Next) (*Response, error)

type middlewareKind uint8

const (
	kindFunc middlewareKind = iota
	kindWrap
)

// Middleware is a tagged middleware variant. Construct one with Func or
// Wrap; the calling convention is fixed at registration time, never
// inferred from the function's shape at dispatch time.
type Middleware struct {
	kind middlewareKind
	fn   HandlerFunc
	wrap WrapFunc
}

// Func tags fn as function middleware: it runs before the rest of the
// pipeline, short-circuits the whole chain when it returns a non-nil
// response, and otherwise continues without ever observing the downstream
// response. A nil fn panics.
func Func(fn HandlerFunc) Middleware {
	if fn == nil {
		panic(fmt.Errorf("%w: Func", ErrNilMiddleware))
	}
	return Middleware{kind: kindFunc, fn: fn}
}

// Wrap tags fn as wrapping middleware: it brackets the downstream pipeline
// via the next closure it receives. A nil fn panics.
func Wrap(fn WrapFunc) Middleware {
	if fn == nil {
		panic(fmt.Errorf("%w: Wrap", ErrNilMiddleware))
	}
	return Middleware{kind: kindWrap, wrap: fn}
}

// middlewareEntry is one element of a router's middleware stack. A
// non-empty prefix scopes the entry to requests whose path equals the
// prefix or continues past it at a segment boundary.
type middlewareEntry struct {
	prefix string
	mw     Middleware
}
