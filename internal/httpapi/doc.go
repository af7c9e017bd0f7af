// Package httpapi is the HTTP front door of the engine. Handlers decode a
// request, call one engine operation and encode its result; business
// outcomes map to 4xx statuses and everything else to an opaque 500.
//
// Routes:
//
//	GET  /api/             liveness
//	GET  /api/users/{id}   next level number for a worker
//	POST /api/start        allocate a level
//	POST /api/end          score a level
//	POST /api/submit       record task time and feedback
//	POST /api/log          append a client log message
//	GET  /health           store reachability
//	GET  /metrics          Prometheus exposition
package httpapi
