// Package receipt persists what an install put on disk.
//
// Every installed prefix carries an INSTALL_RECEIPT.yaml describing the
// release, its digest and the files written, so that later commands
// (test, uninstall) work from the prefix alone.
package receipt
