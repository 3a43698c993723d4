// Package version exposes build metadata for gcm-installer.
//
// Version, Commit and BuildTime are injected via -ldflags and default to
// values suitable for local builds.
package version
