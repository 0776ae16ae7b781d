// Package fetch retrieves single pages and localizes their assets.
//
// # Architecture
//
// The package is built around the Fetcher type. One Fetch call retrieves
// one page: it issues the HTTP GET, parses the markup into a dom.Document,
// extracts the same-host links that feed the crawl frontier, and downloads
// the page's stylesheets, images, and scripts into the session's asset
// tree, rewriting each element to its local file as it succeeds.
//
// Design decision: asset downloads are concurrent but the DOM is mutated
// only after every download has settled, because:
//  1. Asset fetches are independent network calls and overlap well
//  2. Collecting outcomes first keeps all tree mutation on one goroutine
//  3. A failed download must leave its element exactly as parsed
//
// # Failure Policy
//
// A page fetch fails only when the page document itself cannot be
// retrieved. Individual asset failures are logged, leave the original
// reference in place, and never fail the page. Nothing is retried.
//
// # Usage
//
//	client, _ := fetch.NewHTTPClient(15*time.Second, "")
//	fetcher := fetch.NewFetcher(client, fetch.WithAssetWorkers(8))
//	result, err := fetcher.Fetch(ctx, pageURL, startURL, sessionDir)
package fetch
