package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
)

// installLock marks a prefix as being written by one process.
type installLock struct {
	path string
}

// acquireLock creates the lock file of prefix, reclaiming it once if the
// process that left it behind is gone.
func acquireLock(ctx context.Context, prefix string) (*installLock, error) {
	lockPath := filepath.Join(prefix, lockFilename)

	for attempt := 0; attempt < 2; attempt++ {
		created, err := tryCreateLock(lockPath)
		if err != nil {
			return nil, err
		}

		if created {
			return &installLock{path: lockPath}, nil
		}

		if !isLockStale(ctx, lockPath) {
			return nil, fmt.Errorf("%w: %w: %s", ErrIO, ErrInstallInProgress, lockPath)
		}

		logger.WarnKV(ctx, "Removing stale install lock", "path", lockPath)

		if err = os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, ioError("remove stale lock", err)
		}
	}

	return nil, fmt.Errorf("%w: %w: %s", ErrIO, ErrInstallInProgress, lockPath)
}

// tryCreateLock atomically creates the lock file and stores our PID in it.
func tryCreateLock(lockPath string) (bool, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, artifactFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}

		return false, ioError("create lock", err)
	}

	_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()))
	closeErr := f.Close()

	if err = errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(lockPath)

		return false, ioError("write lock", err)
	}

	return true, nil
}

// isLockStale reports whether the lock owner no longer runs. A lock without a
// readable PID is trusted until it is older than lockLifetime.
func isLockStale(ctx context.Context, lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		// Vanished in the meantime: the next attempt decides.
		return errors.Is(err, os.ErrNotExist)
	}

	contents, err := os.ReadFile(lockPath)
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return time.Since(info.ModTime()) > lockLifetime
	}

	if pid == os.Getpid() {
		return false
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		logger.DebugKV(ctx, "Unable to inspect lock owner", "pid", pid, "error", err)

		return false
	}

	return process == nil
}

// release removes the lock file.
func (l *installLock) release(ctx context.Context) {
	if l == nil {
		return
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove install lock", "path", l.path, "error", err)
	}
}
