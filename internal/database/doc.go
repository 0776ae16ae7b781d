// Package database provides SQLite-based storage for fetch diagnostics.
//
// This package implements the FetchLog, which stores:
//   - One record per attempted HTTP fetch, page or asset
//   - One summary record per completed session
//
// The log is a diagnostics sidecar: listing and serving read manifests
// only, never this database, so the archive stays fully usable with
// logging disabled.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
