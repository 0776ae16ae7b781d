package session

import "errors"

var (
	// ErrInvalidTarget is returned when the start URL is missing a
	// hostname or uses a scheme other than http or https.
	ErrInvalidTarget = errors.New("invalid target URL")

	// ErrNoPages is returned when a session could not archive a single
	// page, including the start page. No manifest is written and the
	// session directory is removed.
	ErrNoPages = errors.New("no pages archived")
)
