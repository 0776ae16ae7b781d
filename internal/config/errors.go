package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: package-level sentinel errors rather than fresh error
// instances in Validate(), so callers can branch with errors.Is() while
// the messages stay human-readable. errors.New() suffices because none of
// these carry dynamic values.
var (
	// ErrNoTarget is returned when no start URL is given to archive.
	ErrNoTarget = errors.New("no target specified: provide at least one start URL")

	// ErrNoArchiveRoot is returned when the archive root directory is empty.
	// Sessions have nowhere to write without it.
	ErrNoArchiveRoot = errors.New("no archive root specified: provide an output directory")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	// A zero or negative timeout would fail every request immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAssetWorkers is returned when the asset worker count is not
	// positive. Zero workers would deadlock every page's asset phase.
	ErrInvalidAssetWorkers = errors.New("invalid asset workers: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between page fetches.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingSummaryFormats is returned when both --json and
	// --markdown are requested. Only one summary format can be used.
	ErrConflictingSummaryFormats = errors.New("conflicting summary formats: --json and --markdown cannot be used together")
)
