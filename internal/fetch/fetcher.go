package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sitevault/sitevault/internal/dom"
)

const (
	// defaultUserAgent identifies the archiver as a common desktop
	// browser. Some sites serve reduced or blocked content to unknown
	// agents.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	// defaultMaxBodySize caps how many bytes are read from a single
	// response body (10MB).
	defaultMaxBodySize = 10 * 1024 * 1024

	// defaultAssetWorkers is the number of concurrent asset downloads
	// per page.
	defaultAssetWorkers = 8
)

// Observation kinds recorded for each attempted fetch.
const (
	ObservationPage  = "page"
	ObservationAsset = "asset"
)

// Observation describes one attempted HTTP fetch, page or asset.
type Observation struct {
	// URL is the absolute URL that was requested.
	URL string
	// Kind is ObservationPage or ObservationAsset.
	Kind string
	// StatusCode is the HTTP status code, or zero when the request
	// never produced a response.
	StatusCode int
	// OK reports whether the fetch succeeded.
	OK bool
	// Detail holds the failure reason when OK is false.
	Detail string
	// Bytes is the number of body bytes read.
	Bytes int64
	// Elapsed is the wall-clock duration of the fetch.
	Elapsed time.Duration
}

// ObserverFunc receives one Observation per attempted fetch. Observers
// must be safe for concurrent use because asset fetches overlap.
type ObserverFunc func(Observation)

// Result holds the outcome of fetching a single page.
type Result struct {
	// URL is the page URL that was fetched.
	URL *url.URL
	// Doc is the parsed page with asset references already rewritten
	// to their local files.
	Doc *dom.Document
	// Links are the same-host page URLs discovered in the document,
	// absolute, fragment-free, and deduplicated in document order.
	Links []string
	// Assets is the number of assets downloaded and localized.
	Assets int
	// AssetFailures is the number of assets that could not be
	// downloaded and were left referencing their original URL.
	AssetFailures int
}

// Fetcher retrieves pages and localizes their assets.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxBodySize    int64
	assetWorkers   int
	ignorePatterns []string
	logger         *slog.Logger
	observer       ObserverFunc
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(f *Fetcher) {
		if agent != "" {
			f.userAgent = agent
		}
	}
}

// WithMaxBodySize caps how many bytes are read from a response body.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithAssetWorkers sets the number of concurrent asset downloads per
// page.
func WithAssetWorkers(workers int) Option {
	return func(f *Fetcher) {
		if workers > 0 {
			f.assetWorkers = workers
		}
	}
}

// WithIgnorePatterns sets glob patterns for URL paths that must not be
// followed as links.
func WithIgnorePatterns(patterns []string) Option {
	return func(f *Fetcher) {
		f.ignorePatterns = patterns
	}
}

// WithLogger sets the logger used for per-fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithObserver registers a callback invoked once per attempted fetch.
func WithObserver(observer ObserverFunc) Option {
	return func(f *Fetcher) {
		f.observer = observer
	}
}

// NewFetcher creates a Fetcher that issues requests through the given
// client.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       client,
		userAgent:    defaultUserAgent,
		maxBodySize:  defaultMaxBodySize,
		assetWorkers: defaultAssetWorkers,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch retrieves the page at pageURL, downloads its assets into the
// asset tree under archiveRoot, and rewrites successful asset
// references to local paths. start anchors same-host link extraction
// and local path mapping. Asset failures never fail the page.
func (f *Fetcher) Fetch(ctx context.Context, pageURL, start *url.URL, archiveRoot string) (*Result, error) {
	body, err := f.fetchDocument(ctx, pageURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	doc, err := dom.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	result := &Result{
		URL:   pageURL,
		Doc:   doc,
		Links: f.extractLinks(doc, pageURL, start),
	}
	result.Assets, result.AssetFailures, err = f.localizeAssets(ctx, doc, pageURL, start, archiveRoot)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// fetchDocument retrieves the raw bytes of a page document.
func (f *Fetcher) fetchDocument(ctx context.Context, rawURL string) ([]byte, error) {
	started := time.Now()
	req, err := f.newRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		f.observe(Observation{URL: rawURL, Kind: ObservationPage, Detail: err.Error(), Elapsed: time.Since(started)})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.observe(Observation{
			URL:        rawURL,
			Kind:       ObservationPage,
			StatusCode: resp.StatusCode,
			Detail:     resp.Status,
			Elapsed:    time.Since(started),
		})
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		f.observe(Observation{
			URL:        rawURL,
			Kind:       ObservationPage,
			StatusCode: resp.StatusCode,
			Detail:     err.Error(),
			Elapsed:    time.Since(started),
		})
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	f.observe(Observation{
		URL:        rawURL,
		Kind:       ObservationPage,
		StatusCode: resp.StatusCode,
		OK:         true,
		Bytes:      int64(len(body)),
		Elapsed:    time.Since(started),
	})
	return body, nil
}

// newRequest builds a GET request with the standard archiver headers.
func (f *Fetcher) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	return req, nil
}

// observe reports one fetch outcome to the registered observer, if any.
func (f *Fetcher) observe(obs Observation) {
	if f.observer != nil {
		f.observer(obs)
	}
}
