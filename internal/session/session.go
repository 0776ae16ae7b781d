package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sitevault/sitevault/internal/config"
	"github.com/sitevault/sitevault/internal/database"
	"github.com/sitevault/sitevault/internal/fetch"
	"github.com/sitevault/sitevault/internal/frontier"
	"github.com/sitevault/sitevault/internal/manifest"
	"github.com/sitevault/sitevault/internal/rewrite"
	"github.com/sitevault/sitevault/internal/snapshot"
	"github.com/sitevault/sitevault/internal/urlmap"
)

// timestampLayout names session directories. UTC and zero-padded, so
// lexicographic order equals chronological order.
const timestampLayout = "20060102-150405"

// Session archives one site into one timestamped directory.
type Session struct {
	startURL *url.URL
	cfg      *config.Config
	maxPages int
	client   *http.Client
	fetchLog *database.FetchLog
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMaxPages overrides the page budget for this session only. It takes
// precedence over both the site configuration and the global default.
func WithMaxPages(n int) Option {
	return func(s *Session) {
		s.maxPages = n
	}
}

// WithFetchLog records every fetch attempt and the session summary in the
// given log database.
func WithFetchLog(log *database.FetchLog) Option {
	return func(s *Session) {
		s.fetchLog = log
	}
}

// WithHTTPClient replaces the HTTP client built from the configuration.
// Site cookies and headers are still layered on top of it.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		s.client = client
	}
}

// New validates the target URL and prepares a session. Nothing touches
// the network or the filesystem until Run.
func New(target string, cfg *config.Config, opts ...Option) (*Session, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %s", ErrInvalidTarget, target)
	}

	s := &Session{
		startURL: u,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Summary describes a completed session.
type Summary struct {
	ID            string        `json:"id"`
	Domain        string        `json:"domain"`
	StartURL      string        `json:"startUrl"` //nolint:tagliatelle // matches the manifest schema
	Dir           string        `json:"dir"`
	Entrypoint    string        `json:"entrypoint"`
	Pages         int           `json:"pages"`
	Assets        int           `json:"assets"`
	AssetFailures int           `json:"assetFailures"` //nolint:tagliatelle // matches the manifest schema
	DroppedPages  int           `json:"droppedPages"`  //nolint:tagliatelle // matches the manifest schema
	ArchivedAt    time.Time     `json:"archivedAt"`    //nolint:tagliatelle // matches the manifest schema
	CrawledPages  []string      `json:"crawledPages"`  //nolint:tagliatelle // matches the manifest schema
	Duration      time.Duration `json:"-"`
}

// Run executes the crawl phase and the rewrite phase, then writes the
// manifest. It returns ErrNoPages when not even the start page could be
// archived; in that case the session directory is removed so listings
// never surface it. On cancellation or a fatal archive write error the
// partial directory is left behind for inspection, without a manifest.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	domain := s.startURL.Hostname()
	id := started.UTC().Format(timestampLayout)
	sessionDir := filepath.Join(s.cfg.ArchiveRoot, domain, id)

	if err := os.MkdirAll(sessionDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	var site config.SiteConfig
	if s.cfg.SiteConfigs != nil {
		site = s.cfg.SiteConfigs.SiteFor(domain)
	}
	budget := s.resolveBudget(site)

	fetcher, err := s.buildFetcher(ctx, site, id, domain)
	if err != nil {
		return nil, err
	}

	fr := frontier.New(s.startURL.String(), budget)
	store := snapshot.New()

	s.logger.Info("session started",
		"url", s.startURL.String(),
		"domain", domain,
		"budget", budget,
		"dir", sessionDir,
	)

	var assets, assetFailures, dropped int
	for {
		next, ok := fr.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.pause(ctx, fr.VisitedCount()); err != nil {
			return nil, err
		}

		pageURL, err := url.Parse(next)
		if err != nil {
			s.logger.Warn("skipping unparseable URL", "url", next, "error", err)
			continue
		}

		result, err := fetcher.Fetch(ctx, pageURL, s.startURL, sessionDir)
		if err != nil {
			if errors.Is(err, fetch.ErrAssetWrite) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, err
			}
			dropped++
			s.logger.Warn("dropping page", "url", next, "error", err)
			continue
		}

		fr.MarkVisited(next)
		store.Put(next, result.Doc)
		assets += result.Assets
		assetFailures += result.AssetFailures
		for _, link := range result.Links {
			fr.Enqueue(link)
		}

		s.logger.Debug("page archived",
			"url", next,
			"links", len(result.Links),
			"assets", result.Assets,
			"visited", fr.VisitedCount(),
			"pending", fr.Pending(),
		)
	}

	if fr.VisitedCount() == 0 {
		if err := os.RemoveAll(sessionDir); err != nil {
			s.logger.Warn("failed to remove empty session directory", "dir", sessionDir, "error", err)
		}
		return nil, ErrNoPages
	}

	rewriter := rewrite.New(s.startURL, sessionDir, fr.VisitedSet(), rewrite.WithLogger(s.logger))
	if err := rewriter.RewriteAll(store); err != nil {
		return nil, fmt.Errorf("failed to persist pages: %w", err)
	}

	archivedAt := time.Now().UTC()
	m := manifest.New(s.startURL.String(), urlmap.Entrypoint(s.startURL, sessionDir), archivedAt, fr.VisitedURLs())
	if err := m.Write(sessionDir); err != nil {
		return nil, err
	}

	summary := &Summary{
		ID:            id,
		Domain:        domain,
		StartURL:      s.startURL.String(),
		Dir:           sessionDir,
		Entrypoint:    m.Entrypoint,
		Pages:         fr.VisitedCount(),
		Assets:        assets,
		AssetFailures: assetFailures,
		DroppedPages:  dropped,
		ArchivedAt:    archivedAt,
		CrawledPages:  m.CrawledPages,
		Duration:      time.Since(started),
	}
	s.record(ctx, summary)

	s.logger.Info("session complete",
		"pages", summary.Pages,
		"assets", summary.Assets,
		"assetFailures", summary.AssetFailures,
		"droppedPages", summary.DroppedPages,
		"elapsed", summary.Duration.Round(time.Millisecond).String(),
	)

	return summary, nil
}

// resolveBudget picks the page budget: per-session override, then the
// site configuration, then the global configuration.
func (s *Session) resolveBudget(site config.SiteConfig) int {
	budget := s.cfg.MaxPages
	if site.MaxPages > 0 {
		budget = site.MaxPages
	}
	if s.maxPages > 0 {
		budget = s.maxPages
	}

	return config.EffectiveMaxPages(budget)
}

// buildFetcher assembles the HTTP client and the fetcher from the global
// configuration plus the per-site overrides.
func (s *Session) buildFetcher(ctx context.Context, site config.SiteConfig, id, domain string) (*fetch.Fetcher, error) {
	client := s.client
	if client == nil {
		var err error
		client, err = fetch.NewHTTPClient(s.cfg.Timeout, s.cfg.ProxyAddress)
		if err != nil {
			return nil, err
		}
	}
	client = fetch.WithSiteHeaders(client, site.Cookie, site.Headers)

	userAgent := s.cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}

	opts := []fetch.Option{
		fetch.WithUserAgent(userAgent),
		fetch.WithMaxBodySize(s.cfg.MaxBodySize),
		fetch.WithAssetWorkers(s.cfg.AssetWorkers),
		fetch.WithIgnorePatterns(site.IgnorePatterns),
		fetch.WithLogger(s.logger),
	}
	if s.fetchLog != nil {
		opts = append(opts, fetch.WithObserver(s.recordObserver(ctx, id, domain)))
	}

	return fetch.NewFetcher(client, opts...), nil
}

// pause sleeps for the configured crawl delay between page fetches. The
// first page is never delayed.
func (s *Session) pause(ctx context.Context, visited int) error {
	if s.cfg.CrawlDelay <= 0 || visited == 0 {
		return nil
	}

	timer := time.NewTimer(s.cfg.CrawlDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// recordObserver logs every fetch attempt to the fetch log. Insert
// failures are reported but never interrupt the crawl.
func (s *Session) recordObserver(ctx context.Context, id, domain string) fetch.ObserverFunc {
	return func(obs fetch.Observation) {
		record := &database.FetchRecord{
			SessionID:  id,
			Domain:     domain,
			URL:        obs.URL,
			Kind:       obs.Kind,
			StatusCode: obs.StatusCode,
			OK:         obs.OK,
			Detail:     obs.Detail,
			Bytes:      obs.Bytes,
			ElapsedMS:  obs.Elapsed.Milliseconds(),
		}
		if _, err := s.fetchLog.InsertFetchRecord(ctx, record); err != nil {
			s.logger.Warn("failed to record fetch", "url", obs.URL, "error", err)
		}
	}
}

// record stores the session summary in the fetch log, when one is
// attached.
func (s *Session) record(ctx context.Context, summary *Summary) {
	if s.fetchLog == nil {
		return
	}

	err := s.fetchLog.InsertSessionRecord(ctx, &database.SessionRecord{
		SessionID:     summary.ID,
		Domain:        summary.Domain,
		StartURL:      summary.StartURL,
		Pages:         summary.Pages,
		Assets:        summary.Assets,
		AssetFailures: summary.AssetFailures,
	})
	if err != nil {
		s.logger.Warn("failed to record session summary", "error", err)
	}
}
