// Package relay is a request router built around an ordered middleware
// pipeline. An inbound request descriptor is threaded through registered
// middleware in order and, once the stack is exhausted, matched against a
// route table; the matched handler's response flows back up through every
// wrapping middleware that delegated downstream.
//
// Two middleware calling conventions are supported, registered as explicit
// tagged variants:
//
//   - Func middleware runs before the rest of the pipeline and may
//     short-circuit by returning a response; it never observes the
//     downstream response.
//   - Wrap middleware receives a next closure: code before next is the
//     "before" phase, the return value of next is the downstream response,
//     and code after next may decorate it. An error returned by next is
//     observable at the call site, so a Wrap middleware can convert
//     downstream failures into ordinary responses.
//
// If middleware rewrites the request URL and nothing short-circuits, the
// router synthesizes a redirect at the end of the pipeline instead of
// invoking a handler: 301 for a scheme change, 302 for GET, 307 otherwise.
// Rewrites that leave the original origin are rejected as errors.
//
// Sub-routers attach with Mount; their routes and middleware run under the
// composed path prefix. A per-request Context carries URL parameters, an
// arbitrary key/value bag, and accessors for collaborators such as caches
// and loggers.
package relay
