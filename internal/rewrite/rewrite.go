package rewrite

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitevault/sitevault/internal/dom"
	"github.com/sitevault/sitevault/internal/frontier"
	"github.com/sitevault/sitevault/internal/snapshot"
	"github.com/sitevault/sitevault/internal/urlmap"
)

// Rewriter rewrites page anchors against the final visited set and
// writes each page to its local file.
type Rewriter struct {
	start       *url.URL
	archiveRoot string
	visited     map[string]bool
	logger      *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithLogger sets the logger used for per-page diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Rewriter for one session. visited holds the normalized
// URLs that were successfully fetched; anchors resolving into this set
// become relative links.
func New(start *url.URL, archiveRoot string, visited map[string]bool, opts ...Option) *Rewriter {
	r := &Rewriter{
		start:       start,
		archiveRoot: archiveRoot,
		visited:     visited,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// RewriteAll rewrites and persists every page in the store. The first
// filesystem failure aborts the walk and is returned.
func (r *Rewriter) RewriteAll(store *snapshot.Store) error {
	return store.Each(func(pageURL string, doc *dom.Document) error {
		return r.RewritePage(pageURL, doc)
	})
}

// RewritePage rewrites one page's anchors and writes the document to
// its mapped local file, creating parent directories as needed.
func (r *Rewriter) RewritePage(rawURL string, doc *dom.Document) error {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse page URL %q: %w", rawURL, err)
	}

	pagePath := urlmap.PagePath(pageURL, r.start, r.archiveRoot)
	r.rewriteAnchors(doc, pageURL, pagePath)

	if err := r.persist(doc, pagePath); err != nil {
		return err
	}
	r.logger.Debug("page persisted", "url", rawURL, "file", pagePath)
	return nil
}

// rewriteAnchors classifies every anchor href on the page.
//
// Bare fragments, mailto:, and tel: references are left untouched; they
// work offline as-is. Unparseable hrefs are also left untouched rather
// than dropped. Everything else resolves to an absolute URL: members
// of the visited set become relative paths to the target's local file,
// the rest keep their absolute form.
func (r *Rewriter) rewriteAnchors(doc *dom.Document, pageURL *url.URL, pagePath string) {
	for _, anchor := range doc.Anchors() {
		href := strings.TrimSpace(anchor.Attr("href"))
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := pageURL.ResolveReference(ref)
		resolved.Fragment = ""

		if r.archived(resolved) {
			target := urlmap.PagePath(resolved, r.start, r.archiveRoot)
			anchor.SetAttr("href", urlmap.RelativeHref(pagePath, target))
			continue
		}
		anchor.SetAttr("href", resolved.String())
	}
}

// archived reports whether the resolved URL is part of this session's
// snapshot.
func (r *Rewriter) archived(u *url.URL) bool {
	if !strings.EqualFold(u.Hostname(), r.start.Hostname()) {
		return false
	}
	return r.visited[frontier.Normalize(u.String())]
}

// persist serializes the document to its local file.
func (r *Rewriter) persist(doc *dom.Document, pagePath string) error {
	if err := os.MkdirAll(filepath.Dir(pagePath), 0750); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}
	file, err := os.OpenFile(pagePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create page file: %w", err)
	}
	if err := doc.Render(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to serialize page: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write page file: %w", err)
	}
	return nil
}
