package relay

import "errors"

// Registration errors. These are raised as panics at registration time so
// that a misconfigured router fails during startup, never during dispatch.
var (
	ErrInvalidPattern = errors.New("routing pattern must begin with '/'")
	ErrEmptyParam     = errors.New("routing pattern contains ':' with no param name")
	ErrDuplicateParam = errors.New("routing pattern contains duplicate param key")
	ErrInvalidPrefix  = errors.New("middleware prefix must begin with '/'")
	ErrNilMiddleware  = errors.New("middleware function cannot be nil")
	ErrNilHandler     = errors.New("route handler cannot be nil")
	ErrNilRouter      = errors.New("cannot mount nil router")
)

// Dispatch errors. These are returned from Dispatch; the router never
// converts them into responses.
var (
	ErrNilRequest      = errors.New("dispatch called with nil request")
	ErrMalformedURL    = errors.New("request URL is not a parseable absolute URL")
	ErrOriginViolation = errors.New("request URL was rewritten to a different origin")
)
