package urlmap

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IndexFile is the file name used for directory-style pages and for the
// session entrypoint.
const IndexFile = "index.html"

// AssetDirName is the name of the per-session subtree holding downloaded
// assets, one subdirectory per page.
const AssetDirName = "assets"

// PagePath returns the absolute local file path for a page's HTML under
// archiveRoot. It is a pure function of its inputs and performs no I/O.
//
// URLs on a hostname other than start's collapse to index.html at the
// archive root; the crawl itself never fetches them.
func PagePath(target, start *url.URL, archiveRoot string) string {
	name := sanitizePath(strings.Trim(target.Path, "/"))

	switch {
	case name == "" || !sameHost(target, start):
		name = IndexFile
	case path.Ext(name) == "":
		name = name + "/" + IndexFile
	}
	return filepath.Join(archiveRoot, filepath.FromSlash(name))
}

// PageToken returns the sanitized page identifier used to namespace a
// page's assets under assets/<token>/. The site root yields "index".
func PageToken(target *url.URL) string {
	token := sanitizeToken(strings.Trim(target.Path, "/"))
	if token == "" {
		return "index"
	}
	return token
}

// AssetDir returns the absolute directory where a page's downloaded
// assets are stored.
func AssetDir(archiveRoot string, target *url.URL) string {
	return filepath.Join(archiveRoot, AssetDirName, PageToken(target))
}

// RelativeHref returns the href that reaches toFile from the directory
// containing fromFile, using forward slashes. A link that resolves to
// nothing (the page linking to itself through the mapper) falls back to
// ./index.html.
func RelativeHref(fromFile, toFile string) string {
	rel, err := filepath.Rel(filepath.Dir(fromFile), toFile)
	if err != nil || rel == "" || rel == "." {
		return "./" + IndexFile
	}
	return filepath.ToSlash(rel)
}

// Entrypoint returns the start page's local path expressed relative to
// the archive root, as recorded in the session manifest.
func Entrypoint(start *url.URL, archiveRoot string) string {
	rel, err := filepath.Rel(archiveRoot, PagePath(start, start, archiveRoot))
	if err != nil || rel == "" || rel == "." {
		return IndexFile
	}
	return filepath.ToSlash(rel)
}

// sameHost reports whether two URLs share a hostname, ignoring case and
// any port.
func sameHost(a, b *url.URL) bool {
	return strings.EqualFold(a.Hostname(), b.Hostname())
}

// sanitizePath replaces filesystem-unsafe runes with underscores while
// keeping slashes, so the local tree mirrors the URL path structure.
func sanitizePath(p string) string {
	return sanitize(p, true)
}

// sanitizeToken flattens a URL path into a single directory name; slashes
// become underscores along with everything else unsafe.
func sanitizeToken(p string) string {
	return sanitize(p, false)
}

func sanitize(p string, keepSlash bool) string {
	var b strings.Builder
	b.Grow(len(p))
	for _, r := range norm.NFC.String(p) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-' || r == '~':
			b.WriteRune(r)
		case r == '/' && keepSlash:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
