// Package session orchestrates a complete archive run: crawl, asset
// localization, link rewriting, and manifest generation.
//
// # Architecture
//
// A Session owns one start URL and one page budget. Run executes two
// phases. Phase one walks the frontier breadth-first, fetching pages and
// downloading their assets into the session directory while parsed
// documents accumulate in an in-memory snapshot store. Phase two rewrites
// every anchor in every stored document against the final visited set and
// persists the pages to disk. Only then is the manifest written.
//
// Design decision: the manifest is written last, after every page file
// exists on disk, because:
//  1. A manifest is the marker that makes a session directory visible to
//     listings, so writing it first would advertise a half-built archive.
//  2. Readers can treat the presence of a manifest as a completeness
//     guarantee instead of re-validating page files.
//  3. Aborted sessions need no cleanup protocol: whatever they leave
//     behind carries no manifest and is ignored.
//
// A session that archives zero pages removes its directory and returns
// ErrNoPages instead of writing an empty manifest.
//
// # Background Execution
//
// Tracker runs sessions as cancellable background tasks with stable IDs,
// for callers that must return before the crawl finishes. Each task
// records its outcome so it can be polled later.
//
// # Usage
//
//	sess, err := session.New("https://example.com", cfg,
//		session.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	summary, err := sess.Run(ctx)
//	if err != nil {
//		return err
//	}
//	fmt.Printf("archived %d pages to %s\n", summary.Pages, summary.Dir)
package session
