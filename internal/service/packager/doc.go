// Package packager prepares the formula consumed by the installer.
//
// It digests a local release archive, fills the sha256 of a base formula
// and writes the result so that the archive can be published and installed
// with a known digest.
package packager
