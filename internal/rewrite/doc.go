// Package rewrite is the second crawl phase: it classifies every anchor
// against the final visited set and persists the rewritten pages.
//
// # Why a Second Phase
//
// A link inside page A pointing at page B can only be classified once
// the whole crawl is done, because B may be fetched after A, or never.
// Rewriting during the fetch phase would misclassify such links as
// live. The rewriter therefore runs over the snapshot store after the
// frontier drains.
//
// Anchors pointing at archived pages become relative file paths, so the
// tree browses offline. Everything else becomes an absolute URL, so
// links to unarchived pages degrade to the live site instead of a
// dead local file.
package rewrite
