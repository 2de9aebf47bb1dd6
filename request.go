package relay

import (
	"net/http"
	"net/url"
)

// Request is the inbound request descriptor handed to Dispatch. The URL
// field is mutable: middleware may rewrite it before delegating downstream,
// and the rewrite is visible to everything that runs after it. Rewrites must
// stay on the original origin; the router rejects cross-origin rewrites at
// the end of the pipeline.
type Request struct {
	Method string
	URL    string // absolute URL, including origin
	Header http.Header
	Body   []byte
}

// NewRequest builds a request descriptor with an empty header map.
func NewRequest(method, rawURL string) *Request {
	return &Request{
		Method: method,
		URL:    rawURL,
		Header: make(http.Header),
	}
}

// Path returns the path component of the request's current URL, or "/" when
// the URL has an empty path. A URL that does not parse yields ""; such a
// request matches no prefix and no route, and the terminal dispatch step
// reports it as malformed.
func (r *Request) Path() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func (r *Request) parseURL() (*url.URL, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, ErrMalformedURL
	}
	return u, nil
}
