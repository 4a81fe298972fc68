// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers in both the site server and the MP service use these helpers so
// that every endpoint answers with the same {"error": "..."} envelope the
// wizard client knows how to read.
package httputil
