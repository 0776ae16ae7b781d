// Package config provides configuration structures and utilities for
// sitevault: session defaults, validation, XDG paths, and the optional
// .sitevault file with per-site overrides.
package config
