// Package middleware provides ready-made relay middleware: request IDs,
// structured request logging, CORS, panic/error recovery, response caching
// and Prometheus metrics. Each middleware follows the same shape: a
// constructor with sensible defaults plus a WithConfig variant for
// fine-grained control.
package middleware
