// Package snapshot holds parsed pages in memory between a session's
// fetch phase and its rewrite phase. Keeping every document until the
// crawl finishes is what lets the rewriter classify links against the
// complete visited set instead of partial crawl state.
package snapshot
