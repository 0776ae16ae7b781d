// Package urlmap maps URLs to deterministic local filesystem paths.
//
// # Mapping Rules
//
// A page URL maps to a path that mirrors the site's own path structure:
//
//   - the URL path is stripped of leading and trailing slashes and
//     filesystem-unsafe characters are replaced with underscores
//   - an empty path (the site root) or a hostname other than the crawl
//     start hostname maps to index.html
//   - a path without a file extension is treated as a directory and
//     index.html is appended (so /blog maps to blog/index.html)
//
// Design decision: the mapping is a pure function of (url, start URL,
// archive root) because:
//  1. Phase 1 (asset placement) and phase 2 (link rewriting) must agree on
//     every page's location without sharing state
//  2. Re-running the mapper during rewriting must reproduce the exact path
//     chosen during fetching
//  3. Deterministic paths make archives diffable across sessions
//
// Paths are NFC-normalized before sanitization so a URL maps to the same
// file on every platform regardless of how the server encoded it.
package urlmap
