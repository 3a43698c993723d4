// Package installer fetches a Java archive described by a formula, verifies its
// SHA-256 digest and installs it under a versioned prefix with a launcher script.
//
// The pipeline is linear: ResolveURL, Download, Verify, Install and optionally
// SelfTest. Nothing is retried; every failure is returned to the caller
// classified by one of the Err* kinds so the CLI can pick an exit code. Files an
// Install created are removed again when a later step fails.
package installer
