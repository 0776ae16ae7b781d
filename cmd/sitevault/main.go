// Package main provides the entry point for the sitevault CLI.
//
// Sitevault archives websites as browsable offline snapshots. It crawls
// pages within one domain, downloads their assets, and rewrites links so
// the snapshot works without a network connection.
//
// Usage:
//
//	sitevault archive <url>
//	sitevault list [domain]
//	sitevault serve
//
// See --help for all available options.
package main

// main is the entry point for sitevault.
func main() {
	Execute()
}
