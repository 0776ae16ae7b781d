// Package dom wraps golang.org/x/net/html behind a small typed document
// and element API.
//
// # Why a wrapper
//
// Design decision: attribute rewriting goes through typed accessors
// instead of raw *html.Node manipulation because:
//  1. Rewriting logic becomes unit-testable without any network I/O
//  2. The two places that mutate markup (asset localization and link
//     rewriting) share one definition of get/set/remove semantics
//  3. Selection of anchors, stylesheets, images, and scripts lives in one
//     package instead of being re-walked ad hoc at each call site
//
// A Document is exclusively owned by the session that parsed it; nothing
// here is safe for concurrent mutation of the same node.
package dom
