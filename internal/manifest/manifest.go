package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileName is the manifest file written at each session root.
const FileName = "_manifest.json"

// Manifest records what one session archived. It is written once,
// after the rewrite phase, and never modified. The camelCase keys are
// the on-disk schema consumed by the serve API and listing commands.
type Manifest struct {
	// StartURL is the URL the crawl began from.
	StartURL string `json:"startUrl"` //nolint:tagliatelle // on-disk schema

	// Entrypoint is the start page's file path relative to the
	// session root.
	Entrypoint string `json:"entrypoint"`

	// ArchivedAt is when the session completed.
	ArchivedAt time.Time `json:"archivedAt"` //nolint:tagliatelle // on-disk schema

	// CrawledPages lists every archived page URL in lexicographic
	// order.
	CrawledPages []string `json:"crawledPages"` //nolint:tagliatelle // on-disk schema
}

// New builds a manifest from a session's outcome. crawledPages is
// copied and sorted, so callers may pass the fetch-order slice.
func New(startURL, entrypoint string, archivedAt time.Time, crawledPages []string) *Manifest {
	pages := make([]string, len(crawledPages))
	copy(pages, crawledPages)
	sort.Strings(pages)

	return &Manifest{
		StartURL:     startURL,
		Entrypoint:   entrypoint,
		ArchivedAt:   archivedAt,
		CrawledPages: pages,
	}
}

// Write persists the manifest into sessionDir.
func (m *Manifest) Write(sessionDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filepath.Join(sessionDir, FileName), data, 0600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read loads the manifest from a session directory.
func Read(sessionDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(sessionDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Session describes one archived session for listings and the serve
// API.
type Session struct {
	// ID is the session directory name, a UTC timestamp.
	ID string `json:"id"`

	// Domain is the archived site's hostname.
	Domain string `json:"domain"`

	// StartURL is the URL the crawl began from.
	StartURL string `json:"startUrl"` //nolint:tagliatelle // mirrors manifest schema

	// Entrypoint is the start page's path relative to the session
	// root.
	Entrypoint string `json:"entrypoint"`

	// ArchivedAt is when the session completed.
	ArchivedAt time.Time `json:"archivedAt"` //nolint:tagliatelle // mirrors manifest schema

	// CrawledPages lists the archived page URLs in lexicographic
	// order.
	CrawledPages []string `json:"crawledPages"` //nolint:tagliatelle // mirrors manifest schema
}

// ListDomains returns the domain directories under the archive root in
// lexicographic order. A missing root is an empty archive, not an
// error.
func ListDomains(archiveRoot string) ([]string, error) {
	entries, err := os.ReadDir(archiveRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive root: %w", err)
	}

	domains := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		domains = append(domains, entry.Name())
	}
	return domains, nil
}

// ListSessions returns the archived sessions for a domain, newest
// first. Session IDs are UTC timestamps, so reverse lexicographic
// order is reverse chronological. Directories without a readable
// manifest are skipped; they belong to in-flight or aborted sessions.
func ListSessions(archiveRoot, domain string) ([]Session, error) {
	domainDir := filepath.Join(archiveRoot, domain)
	entries, err := os.ReadDir(domainDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read domain directory: %w", err)
	}

	sessions := make([]Session, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m, err := Read(filepath.Join(domainDir, entry.Name()))
		if err != nil {
			continue
		}
		sessions = append(sessions, Session{
			ID:           entry.Name(),
			Domain:       domain,
			StartURL:     m.StartURL,
			Entrypoint:   m.Entrypoint,
			ArchivedAt:   m.ArchivedAt,
			CrawledPages: m.CrawledPages,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ID > sessions[j].ID
	})
	return sessions, nil
}
