// Package version holds build identification for threadline binaries.
package version

// Version is overridden at link time with -ldflags "-X ...version.Version=...".
var Version = "0.1.0-dev"

// Environment is "development" for local builds and "production" for releases.
var Environment = "development"
