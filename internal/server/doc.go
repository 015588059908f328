// Package server provides HTTP routing, middleware, and the download endpoint.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order so the first one added runs outermost.
//
// The [BasicRouter] implementation uses [http.ServeMux] patterns, including method
// prefixes, so wrong-method requests get a 405 from the mux.
//
// # Endpoints
//
//   - POST /dl : [DownloadHandler] validates {url, title, hash, token} against an
//     embedded JSON schema, runs the download, and replies {ok, error?, partial?, tiers?}
//   - GET /health : [HealthHandler] replies {"status": "ok"}
//
// Status mapping for /dl:
//   - 200 : at least one tier persisted (partial set when some failed)
//   - 400 : body is not valid JSON, misses a key, or carries an invalid hash
//   - 413 : body exceeds the configured limit (1 MiB by default)
//   - 500 : resolution, backend, selection, persistence, timeout, or internal failure
//
// # Middleware
//
//   - [RequestID] : assigns or propagates X-Request-ID
//   - [Logging] : one structured log line per request
//   - [Recover] : turns a handler panic into a 500
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
