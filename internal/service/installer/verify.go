package installer

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
)

// digestHexLength is the length of a hex-encoded SHA-256 digest.
const digestHexLength = sha256.Size * 2

// Verify computes SHA-256 over data and compares it with expectedDigest.
// A malformed expected digest wraps ErrConfig; a mismatch is a *ChecksumError.
func Verify(data []byte, expectedDigest string) error {
	return verifyNamed("artifact", data, expectedDigest)
}

func verifyNamed(name string, data []byte, expectedDigest string) error {
	sum := sha256.Sum256(data)

	return compareDigest(name, sum[:], expectedDigest)
}

func compareDigest(name string, got []byte, expectedDigest string) error {
	expected, err := decodeDigest(expectedDigest)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(got, expected) != 1 {
		return &ChecksumError{
			Name:     name,
			Expected: hex.EncodeToString(expected),
			Got:      hex.EncodeToString(got),
		}
	}

	return nil
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// DigestFile returns the lowercase hex SHA-256 of the file at path.
func DigestFile(path string) (string, error) {
	sum, err := hashFile(path)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sum), nil
}

// VerifyFile checks the file at path against expectedDigest.
func VerifyFile(path, expectedDigest string) error {
	if _, err := decodeDigest(expectedDigest); err != nil {
		return err
	}

	sum, err := hashFile(path)
	if err != nil {
		return err
	}

	return compareDigest(path, sum, expectedDigest)
}

// hashFile streams the file at path through SHA-256 without loading it whole.
func hashFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, ioError("open", err)
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return nil, ioError("hash "+path, err)
	}

	return h.Sum(nil), nil
}

// ResolveDigest returns the digest the downloaded archive must match: the
// formula's sha256 when present, otherwise the entry for the archive in the
// checksum file. The digest is validated before anything is downloaded.
func (i *Installer) ResolveDigest(ctx context.Context) (string, error) {
	if i.spec.ExpectedDigest != "" {
		if _, err := decodeDigest(i.spec.ExpectedDigest); err != nil {
			return "", err
		}

		return strings.ToLower(i.spec.ExpectedDigest), nil
	}

	if i.spec.ChecksumURLTemplate == "" {
		return "", configError(fmt.Errorf("%w: %s", errNoDigest, describe(i.spec)))
	}

	checksumURL, err := resolveChecksumURL(i.spec)
	if err != nil {
		return "", err
	}

	artifactURL, err := i.ResolveURL()
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Fetching checksum file", "url", checksumURL)

	data, err := i.Download(ctx, checksumURL)
	if err != nil {
		return "", err
	}

	return findDigest(data, i.spec.ArtifactName(), path.Base(artifactURL))
}

// decodeDigest validates a hex SHA-256 digest and returns its bytes.
func decodeDigest(digest string) ([]byte, error) {
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return nil, configError(errNoDigest)
	}

	if len(digest) != digestHexLength {
		return nil, configError(fmt.Errorf("%w: %q", errBadDigest, digest))
	}

	decoded, err := hex.DecodeString(digest)
	if err != nil {
		return nil, configError(fmt.Errorf("%w: %q", errBadDigest, digest))
	}

	return decoded, nil
}

// findDigest extracts the digest for one of names from a checksum file. The
// file is either a bare digest or sha256sum output ("<hex>  <file>" or
// "<hex> *<file>"); comment and malformed lines are skipped.
func findDigest(data []byte, names ...string) (string, error) {
	text := strings.TrimSpace(string(data))
	if len(text) == digestHexLength && isHexDigest(text) {
		return strings.ToLower(text), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 || !isHexDigest(fields[0]) {
			continue
		}

		name := path.Base(strings.TrimPrefix(fields[1], "*"))
		if wanted[name] {
			return strings.ToLower(fields[0]), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", configError(fmt.Errorf("read checksum file: %w", err))
	}

	return "", configError(fmt.Errorf("%w: %s", errDigestNotListed, strings.Join(names, ", ")))
}

func isHexDigest(s string) bool {
	if len(s) != digestHexLength {
		return false
	}

	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}

	return true
}
