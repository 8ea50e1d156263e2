// ABOUTME: Middleware composition for the proxy's HTTP pipeline
// ABOUTME: Wraps a handler so the first listed middleware runs outermost

package middleware

import "net/http"

// Middleware wraps an http.HandlerFunc with cross-cutting behavior.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain wraps h in the given middleware, outermost first:
// Chain(h, logging, cors) serves as logging(cors(h)).
func Chain(h http.HandlerFunc, wraps ...Middleware) http.HandlerFunc {
	for i := len(wraps) - 1; i >= 0; i-- {
		h = wraps[i](h)
	}
	return h
}
