package fetch

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/sitevault/sitevault/internal/dom"
)

// extractLinks collects the same-host page URLs referenced by anchor
// elements, in document order and without duplicates. Fragments are
// stripped, so "/about" and "/about#team" yield one link.
func (f *Fetcher) extractLinks(doc *dom.Document, pageURL, start *url.URL) []string {
	seen := make(map[string]bool)
	links := make([]string, 0)
	for _, anchor := range doc.Anchors() {
		resolved := resolveRef(pageURL, anchor.Attr("href"))
		if resolved == nil {
			continue
		}
		resolved.Fragment = ""
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if !sameHost(resolved, start) {
			continue
		}
		if !f.shouldFollow(resolved) {
			continue
		}
		link := resolved.String()
		if seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
	}
	return links
}

// resolveRef resolves href against base. It returns nil for references
// that can never name a fetchable resource: empty strings, bare
// fragments, and javascript:, mailto:, tel:, and data: schemes.
func resolveRef(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return nil
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return nil
	}

	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	return base.ResolveReference(u)
}

// sameHost reports whether u belongs to the same site as start. Hosts
// compare case-insensitively, first with ports and then by hostname
// alone so that a page served on a non-standard port still matches.
func sameHost(u, start *url.URL) bool {
	return strings.EqualFold(u.Host, start.Host) ||
		strings.EqualFold(u.Hostname(), start.Hostname())
}

// shouldFollow reports whether a same-host URL passes the configured
// ignore patterns.
func (f *Fetcher) shouldFollow(u *url.URL) bool {
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range f.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}
	return true
}

// matchPattern reports whether a URL path matches a glob pattern such
// as "/admin/*" or "*.pdf".
func matchPattern(pattern, path string) bool {
	// "/admin/*" matches "/admin" and everything below it.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// "*.pdf" matches any path with that extension.
	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// A bare filename pattern also matches against the last segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
