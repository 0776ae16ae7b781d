// Package manifest reads and writes the durable session index.
//
// A session directory is part of the archive if and only if it holds a
// manifest file. Listing never inspects the raw file tree, so partially
// written or aborted sessions are invisible until their manifest lands.
package manifest
