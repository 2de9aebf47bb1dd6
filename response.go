package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the response descriptor handlers and middleware produce.
// Wrapping middleware may mutate a downstream response in place (typically
// to add headers) before returning it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse builds an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
}

// Clone returns a deep copy of the response. Cache backends clone before
// returning stored responses so later header mutation cannot corrupt the
// cached copy.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       append([]byte(nil), r.Body...),
	}
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	return c
}

// Text creates a plain-text response.
func Text(status int, body string) *Response {
	res := NewResponse(status)
	res.Header.Set("Content-Type", "text/plain; charset=utf-8")
	res.Body = []byte(body)
	return res
}

// JSON creates an application/json response by marshaling v. The two return
// values line up with a handler's signature, so handlers can write
// `return relay.JSON(http.StatusOK, v)` directly.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json response: %w", err)
	}
	res := NewResponse(status)
	res.Header.Set("Content-Type", "application/json")
	res.Body = data
	return res, nil
}

// NotFound creates the router's fallback response for an unmatched route.
func NotFound() *Response {
	return Text(http.StatusNotFound, "Not Found")
}

// Redirect creates a redirect response with the given 3xx status and
// Location header.
func Redirect(status int, location string) *Response {
	res := NewResponse(status)
	res.Header.Set("Location", location)
	return res
}

// RedirectPermanent creates a 301 Moved Permanently response.
func RedirectPermanent(location string) *Response {
	return Redirect(http.StatusMovedPermanently, location)
}

// RedirectTemporary creates a 302 Found response.
func RedirectTemporary(location string) *Response {
	return Redirect(http.StatusFound, location)
}

// RedirectPreserveMethod creates a 307 Temporary Redirect response. Unlike
// 302, the request method is preserved across the redirect.
func RedirectPreserveMethod(location string) *Response {
	return Redirect(http.StatusTemporaryRedirect, location)
}
