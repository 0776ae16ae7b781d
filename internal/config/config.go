package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the per-request HTTP timeout. 15 seconds is generous
	// for a single page or asset on a responsive site while keeping a stalled
	// server from blocking the sequential page loop for long.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxPages bounds how many pages one session archives. Ten pages
	// covers a site's core structure; larger snapshots are an explicit
	// choice via the --max-pages flag or the trigger payload.
	DefaultMaxPages = 10

	// DefaultAssetWorkers is the number of concurrent asset downloads per
	// page. Assets are small and parallel fetches overlap network latency;
	// eight keeps the connection count polite for a single origin.
	DefaultAssetWorkers = 8

	// DefaultCrawlDelay is the pause between page fetches. Zero by default:
	// sessions are budget-bounded and page fetches are already sequential.
	// Operators archiving fragile sites can raise it via --delay.
	DefaultCrawlDelay = 0 * time.Second

	// DefaultUserAgent is sent with every request. Some sites serve stripped
	// or blocked responses to obvious bot agents, so a current browser
	// string keeps the archived markup equal to what a visitor sees.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	// DefaultMaxBodySize caps how many bytes are read from one response.
	// 10MB accommodates heavy pages and images while preventing memory
	// exhaustion from unbounded responses.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultAddr is the listen address for the archive server.
	DefaultAddr = ":8080"

	// AppName is the application name used for XDG directory paths.
	AppName = "sitevault"
)

// Config holds all configuration options for sitevault.
// It is populated from CLI flags and the optional config file, then passed
// to components explicitly rather than read from global state.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The option count is manageable, and the archive and serve commands share
// most fields; nesting would only add indirection.
type Config struct {
	// ArchiveRoot is the directory receiving session output, one
	// <domain>/<timestamp> subtree per session.
	ArchiveRoot string

	// Timeout is the HTTP timeout applied to each page and asset request.
	// It bounds single calls, not the session as a whole.
	Timeout time.Duration

	// MaxPages is the page budget per session. Non-positive values fall
	// back to DefaultMaxPages (see EffectiveMaxPages).
	MaxPages int

	// AssetWorkers is the concurrent download limit for one page's assets.
	AssetWorkers int

	// CrawlDelay is the pause inserted between page fetches.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header for all requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses beyond the limit are truncated.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	// When empty, requests go out directly.
	ProxyAddress string

	// Verbose enables debug logging. When false, only warnings and errors
	// are logged.
	Verbose bool

	// JSONSummary switches the session summary to JSON output.
	// Mutually exclusive with MarkdownSummary.
	JSONSummary bool

	// MarkdownSummary switches the session summary to Markdown output.
	// Mutually exclusive with JSONSummary.
	MarkdownSummary bool

	// SummaryFile writes the session summary to a file instead of stdout.
	SummaryFile string

	// LogDBDir is the directory for the sqlite fetch log. Empty disables
	// fetch logging; archives never depend on it.
	LogDBDir string

	// Addr is the listen address of the archive server ("serve" command).
	Addr string

	// ConfigFilePath is an explicit config file path. If empty, the tool
	// searches for .sitevault in the current and then home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// Targets is the list of start URLs to archive.
	Targets []string
}

// NewConfig returns a Config populated with defaults. Callers override
// individual fields from flags afterwards.
func NewConfig() *Config {
	return &Config{
		ArchiveRoot:  DefaultArchiveRoot(),
		Timeout:      DefaultTimeout,
		MaxPages:     DefaultMaxPages,
		AssetWorkers: DefaultAssetWorkers,
		CrawlDelay:   DefaultCrawlDelay,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		Addr:         DefaultAddr,
	}
}

// XDGDataDir returns the XDG data directory for sitevault.
// On Linux: ~/.local/share/sitevault
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultArchiveRoot returns the default directory for archived sites,
// under the XDG data directory.
func DefaultArchiveRoot() string {
	return filepath.Join(XDGDataDir(), "archives")
}

// EffectiveMaxPages returns n when positive, DefaultMaxPages otherwise.
// The CLI and the HTTP trigger apply the same fallback rule.
func EffectiveMaxPages(n int) int {
	if n <= 0 {
		return DefaultMaxPages
	}
	return n
}

// Validate checks the configuration and returns the first problem found.
// It runs once after flag parsing, before any session starts.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.ArchiveRoot == "" {
		return ErrNoArchiveRoot
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.AssetWorkers <= 0 {
		return ErrInvalidAssetWorkers
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONSummary && c.MarkdownSummary {
		return ErrConflictingSummaryFormats
	}
	return nil
}
