// Package server provides HTTP routing, middleware and handlers for the serve command.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses gorilla/mux internally with method filtering, so a known path
// requested with the wrong method answers 405.
//
// # Endpoints
//
//	GET /playlist.m3u   the rewritten playlist, 404 until the first run writes it
//	GET /playlist.m3u8  alias of /playlist.m3u
//	GET /healthz        liveness plus a summary of the last scheduled run
//	GET /runs           run history as JSON, when a database is configured
//	GET /metrics        Prometheus exposition
//
// # Metrics
//
// [Metrics] keeps its collectors on a private registry. [Metrics.ObserveRun] and [Status.ObserveRun] both
// match the scheduler's run hook, and [Metrics.Instrument] counts requests by route template.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
