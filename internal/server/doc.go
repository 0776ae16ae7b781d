// Package server exposes the archive over HTTP.
//
// # Architecture
//
// The server wraps three concerns behind one chi router:
//
//   - Launching archive sessions as background tasks (POST /api/archives).
//     The handler answers 202 with a task id immediately; progress is
//     polled through /api/tasks.
//   - Listing what the archive root holds, read from session manifests.
//   - Serving the archived files themselves under /archive/, so a
//     snapshot can be browsed without leaving the server.
//
// Design decision: archive creation is asynchronous because:
//  1. A crawl takes seconds to minutes, far beyond a sane HTTP timeout.
//  2. A task id gives callers cancellation and progress for free.
//  3. The session code stays oblivious to HTTP; the tracker owns the
//     goroutines.
//
// The server never writes to the archive tree itself. Sessions do, and
// listings read manifests, so a crash between the two phases leaves no
// half-visible state.
package server
