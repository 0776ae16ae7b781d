package fetch

import "errors"

var (
	// ErrInvalidProxyAddress is returned when a proxy address is not of
	// the form "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address")

	// ErrUnexpectedStatus is returned when a fetch receives a non-2xx
	// HTTP status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrAssetTooLarge is recorded when an asset body exceeds the
	// configured maximum body size.
	ErrAssetTooLarge = errors.New("asset exceeds maximum body size")

	// ErrAssetWrite is returned when an asset cannot be written to the
	// archive tree. Callers treat it as fatal, unlike network
	// failures, because the archive root itself is unusable.
	ErrAssetWrite = errors.New("failed to write asset to archive")
)
