package relay

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Handler adapts a Router to net/http. It builds a request descriptor from
// the inbound *http.Request, dispatches it, and writes the response back.
// A dispatch error is surfaced as a plain 500 and logged; the router core
// itself never converts errors, that choice belongs to this embedding
// layer.
func Handler(r *Router) http.Handler {
	return HandlerWithLogger(r, slog.Default())
}

// HandlerWithLogger is Handler with an explicit logger for dispatch
// failures. The logger is also attached to each request Context.
func HandlerWithLogger(r *Router, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, hr *http.Request) {
		body, err := io.ReadAll(hr.Body)
		if err != nil {
			http.Error(w, "400 Bad Request", http.StatusBadRequest)
			return
		}

		scheme := "http"
		if hr.TLS != nil {
			scheme = "https"
		}
		req := &Request{
			Method: hr.Method,
			URL:    scheme + "://" + hr.Host + hr.URL.RequestURI(),
			Header: hr.Header.Clone(),
			Body:   body,
		}

		ctx := newContext(hr.Context())
		ctx.SetLogger(log)

		res, err := r.dispatchWith(ctx, req)
		if err != nil {
			log.ErrorContext(hr.Context(), "dispatch failed",
				slog.String("method", req.Method),
				slog.String("url", req.URL),
				slog.Any("error", err))
			http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
			return
		}

		for key, values := range res.Header {
			for _, v := range values {
				w.Header().Add(key, v)
			}
		}
		w.WriteHeader(res.StatusCode)
		if len(res.Body) > 0 {
			_, _ = w.Write(res.Body)
		}
	})
}

// dispatchWith is Dispatch against a pre-built Context. The HTTP binding
// uses it to seed collaborator accessors before the pipeline starts.
func (r *Router) dispatchWith(c *Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	orig, err := req.parseURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedURL, req.URL)
	}
	d := &dispatcher{
		router:     r,
		origURL:    req.URL,
		origScheme: orig.Scheme,
		origHost:   orig.Host,
	}
	return d.run(0, req, c)
}
