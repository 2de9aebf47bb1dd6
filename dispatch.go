package relay

import (
	"fmt"
	"net/http"
	"strings"
)

// dispatcher drives one request through the middleware stack and the route
// table. It is created per Dispatch call and carries the origin captured
// before any middleware had a chance to rewrite the URL.
type dispatcher struct {
	router     *Router
	origURL    string
	origScheme string
	origHost   string
}

// run executes the pipeline from middleware index i. Before phases run in
// registration order; after phases of wrapping middleware unwind in exact
// reverse order of the delegations, because each delegation is an ordinary
// nested call to run(i+1).
func (d *dispatcher) run(i int, req *Request, c *Context) (*Response, error) {
	if i >= len(d.router.middlewares) {
		return d.terminal(req, c)
	}

	e := d.router.middlewares[i]
	if e.prefix != "" && !prefixMatches(e.prefix, req.Path()) {
		return d.run(i+1, req, c)
	}

	if e.mw.kind == kindFunc {
		res, err := e.mw.fn(req, c)
		if err != nil {
			return nil, err
		}
		if res != nil {
			// Short-circuit: nothing downstream runs. Wrapping middleware
			// already entered higher up the stack still sees this response
			// as its downstream result.
			return res, nil
		}
		return d.run(i+1, req, c)
	}

	var (
		delegated  bool
		downstream *Response
	)
	next := Next(func() (*Response, error) {
		if delegated {
			panic(fmt.Sprintf("relay: middleware %d delegated more than once", i))
		}
		delegated = true
		res, err := d.run(i+1, req, c)
		downstream = res
		return res, err
	})

	res, err := e.mw.wrap(req, c, next)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	if !delegated {
		// The middleware opted out of wrapping entirely.
		return d.run(i+1, req, c)
	}
	// Delegated but returned nil: yield the downstream response unchanged.
	return downstream, nil
}

// terminal runs once the middleware stack is exhausted. A URL rewrite that
// survived to this point becomes a synthesized redirect; otherwise the
// route table decides, with a 404 fallback.
func (d *dispatcher) terminal(req *Request, c *Context) (*Response, error) {
	if req.URL != d.origURL {
		return d.synthesizeRedirect(req)
	}

	handler, params, ok := d.router.table.lookup(req.Method, req.Path())
	if !ok {
		return NotFound(), nil
	}
	c.setParams(params)
	return handler(req, c)
}

// synthesizeRedirect turns a rewritten request URL into a redirect response
// instead of invoking any handler. The response flows back up through
// pending after phases like any handler response would.
func (d *dispatcher) synthesizeRedirect(req *Request) (*Response, error) {
	u, err := req.parseURL()
	if err != nil {
		return nil, fmt.Errorf("%w: rewritten to %q", ErrMalformedURL, req.URL)
	}
	if u.Host != d.origHost {
		return nil, fmt.Errorf("%w: %q -> %q", ErrOriginViolation, d.origURL, req.URL)
	}

	status := http.StatusTemporaryRedirect
	switch {
	case u.Scheme != d.origScheme:
		status = http.StatusMovedPermanently
	case req.Method == http.MethodGet:
		status = http.StatusFound
	}
	return Redirect(status, req.URL), nil
}

// prefixMatches reports whether path falls under prefix at a segment
// boundary: "/admin" matches "/admin" and "/admin/users" but not
// "/administrator".
func prefixMatches(prefix, path string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
