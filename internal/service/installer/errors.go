package installer

import (
	"errors"
	"fmt"
)

// Error kinds. Every pipeline failure wraps exactly one of them; a launcher
// that runs but exits non-zero is reported as ErrSelfTestFailed instead.
var (
	// ErrConfig marks a bad formula, template, digest or option.
	ErrConfig = errors.New("configuration error")
	// ErrNetwork marks a transport failure while downloading.
	ErrNetwork = errors.New("network error")
	// ErrHTTP marks a non-2xx response.
	ErrHTTP = errors.New("http error")
	// ErrIntegrity marks a digest mismatch. It is always fatal.
	ErrIntegrity = errors.New("integrity error")
	// ErrIO marks a filesystem failure while installing or removing files.
	ErrIO = errors.New("i/o error")
)

var (
	// ErrNotInstalled is returned (wrapped in ErrIO) when the prefix holds no install.
	ErrNotInstalled = errors.New("package is not installed")
	// ErrInstallInProgress is returned (wrapped in ErrIO) when another live process holds the prefix lock.
	ErrInstallInProgress = errors.New("another install is in progress")
	// ErrSelfTestFailed is returned when the launcher exits with a non-zero status.
	ErrSelfTestFailed = errors.New("self-test failed")

	errNoDigest           = errors.New("no sha256 digest supplied for the artifact")
	errBadDigest          = errors.New("sha256 digest must be 64 hexadecimal characters")
	errMissingPlaceholder = errors.New("template is missing a required placeholder")
	errUnknownPlaceholder = errors.New("template uses an unknown placeholder")
	errUnterminated       = errors.New("template has an unterminated placeholder")
	errBadURL             = errors.New("resolved url is not an absolute http(s) url")
	errDigestNotListed    = errors.New("artifact is not listed in the checksum file")
)

// ChecksumError reports a digest mismatch with both values for debugging.
// It unwraps to ErrIntegrity.
type ChecksumError struct {
	Name     string
	Expected string
	Got      string
}

// Error returns a human-readable description of the mismatch.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("sha256 mismatch for %s: expected %s, got %s", e.Name, e.Expected, e.Got)
}

// Unwrap returns ErrIntegrity so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrIntegrity }

// HTTPStatusError reports a non-2xx download response. It unwraps to ErrHTTP.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

// Error returns the URL and status line.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

// Unwrap returns ErrHTTP so callers can use errors.Is.
func (e *HTTPStatusError) Unwrap() error { return ErrHTTP }

// configError wraps err as ErrConfig.
func configError(err error) error {
	return fmt.Errorf("%w: %w", ErrConfig, err)
}

// ioError wraps err as ErrIO with the operation that failed.
func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
