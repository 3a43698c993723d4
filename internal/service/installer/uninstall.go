package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
	"github.com/cloudageitC/Git-Credential-Manager/internal/repository/receipt"
)

// Uninstall removes what the receipt of prefix lists, then the receipt, then
// the prefix directories that became empty.
func Uninstall(ctx context.Context, prefix string) error {
	prefix, err := filepath.Abs(prefix)
	if err != nil {
		return configError(err)
	}

	ctx = logger.WithKV(ctx, "prefix", prefix)

	artifact, _, err := Installed(ctx, prefix)
	if err != nil {
		return err
	}

	lock, err := acquireLock(ctx, prefix)
	if err != nil {
		return err
	}

	// Only files inside the prefix are touched, whatever the receipt says.
	for _, path := range []string{artifact.LauncherPath, artifact.Path} {
		if !within(prefix, path) {
			logger.WarnKV(ctx, "Skipping path outside the prefix", "path", path)
			continue
		}

		logger.DebugKV(ctx, "Removing", "path", path)

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			lock.release(ctx)

			return ioError("remove", err)
		}
	}

	if err = receipt.NewFileRepository(prefix).Remove(ctx); err != nil {
		lock.release(ctx)

		return ioError("remove receipt", err)
	}

	lock.release(ctx)

	for _, dir := range []string{filepath.Join(prefix, BinDir), filepath.Join(prefix, LibexecDir), prefix} {
		removeIfEmpty(ctx, dir)
	}

	logger.Info(ctx, "Uninstalled")

	return nil
}

// within reports whether path lies inside dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !filepath.IsAbs(rel) &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// removeIfEmpty removes dir when nothing is left inside it.
func removeIfEmpty(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}

	if err = os.Remove(dir); err != nil {
		logger.DebugKV(ctx, "Unable to remove directory", "path", dir, "error", err)
	}
}
