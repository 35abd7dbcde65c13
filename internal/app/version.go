// Package app holds build-time metadata.
package app

// Version and BuildCommit are overridden at build time via -ldflags.
var (
	Version     = "dev"
	BuildCommit = "none"
)
