package installer

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
	"github.com/cloudageitC/Git-Credential-Manager/internal/repository/receipt"
)

// Install writes data to <prefix>/libexec/<name>-<version>.jar, writes the
// launcher to <prefix>/bin/<name> and records a receipt. data must match the
// formula digest; it is checked again here so Install can never place an
// unverified archive. On failure every file and directory this call created is
// removed again.
func (i *Installer) Install(ctx context.Context, data []byte, prefix string) (_ *formula.InstalledArtifact, err error) {
	if prefix == "" {
		return nil, configError(errors.New("install prefix is empty"))
	}

	if prefix, err = filepath.Abs(prefix); err != nil {
		return nil, configError(fmt.Errorf("install prefix: %w", err))
	}

	ctx = logger.WithKV(ctx, "prefix", prefix)

	if err = verifyNamed(i.spec.ArtifactName(), data, i.spec.ExpectedDigest); err != nil {
		return nil, err
	}

	checksum, err := decodeDigest(i.spec.ExpectedDigest)
	if err != nil {
		return nil, err
	}

	sourceURL, err := i.ResolveURL()
	if err != nil {
		return nil, err
	}

	artifact := &formula.InstalledArtifact{
		Path:         ArtifactPath(prefix, i.spec),
		LauncherPath: LauncherPath(prefix, i.spec),
	}

	script, err := renderLauncher(i.javaCommand, artifact.Path)
	if err != nil {
		return nil, err
	}

	created := new(rollback)

	defer func() {
		if err != nil {
			logger.WarnKV(ctx, "Install failed, removing partially written files", "error", err)
			created.undo(ctx)
		}
	}()

	if err = created.mkdirAll(prefix); err != nil {
		return nil, err
	}

	lock, err := acquireLock(ctx, prefix)
	if err != nil {
		return nil, err
	}

	defer lock.release(ctx)

	for _, dir := range []string{filepath.Dir(artifact.Path), filepath.Dir(artifact.LauncherPath)} {
		if err = created.mkdirAll(dir); err != nil {
			return nil, err
		}
	}

	logger.DebugKV(ctx, "Writing artifact", "path", artifact.Path)

	if err = writeArtifact(artifact.Path, data, checksum, created); err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Writing launcher", "path", artifact.LauncherPath)

	if err = writeLauncher(artifact.LauncherPath, script, created); err != nil {
		return nil, err
	}

	repo := receipt.NewFileRepository(prefix)
	created.trackIfMissing(repo.Path())

	err = repo.Save(ctx, &receipt.Receipt{
		Name:         i.spec.Name,
		Version:      i.spec.Version,
		SourceURL:    sourceURL,
		Digest:       Digest(data),
		Runtime:      i.spec.Runtime.String(),
		ArtifactPath: artifact.Path,
		LauncherPath: artifact.LauncherPath,
		InstalledAt:  time.Now().UTC(),
		InstalledBy:  receipt.DetectActor(),
	})
	if err != nil {
		return nil, ioError("save receipt", err)
	}

	logger.InfoKV(ctx, "Installed", "artifact", artifact.Path, "launcher", artifact.LauncherPath)

	return artifact, nil
}

// writeArtifact replaces target with data through go-update, which checks the
// bytes against checksum once more before swapping files.
func writeArtifact(target string, data []byte, checksum []byte, created *rollback) error {
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		// go-update swaps files and needs something to swap out.
		placeholder, createErr := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, artifactFileMode)
		if createErr != nil {
			return ioError("create artifact", createErr)
		}

		created.track(target)

		if createErr = placeholder.Close(); createErr != nil {
			return ioError("create artifact", createErr)
		}
	} else if err != nil {
		return ioError("stat artifact", err)
	}

	// go-update stages the swap through hidden siblings of target.
	dir, base := filepath.Split(target)
	created.trackIfMissing(filepath.Join(dir, "."+base+".new"))
	created.trackIfMissing(filepath.Join(dir, "."+base+".old"))

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: artifactFileMode,
		Checksum:   checksum,
		Hash:       crypto.SHA256,
	}

	if err := goupdate.Apply(bytes.NewReader(data), options); err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			err = errors.Join(err, rollbackErr)
		}

		return ioError("write artifact", err)
	}

	return nil
}

// writeLauncher writes script next to target and renames it into place.
func writeLauncher(target, script string, created *rollback) error {
	created.trackIfMissing(target)

	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".new")

	if err := os.WriteFile(tmp, []byte(script), launcherFileMode); err != nil {
		_ = os.Remove(tmp)

		return ioError("write launcher", err)
	}

	// WriteFile honours the umask; launchers must be executable regardless.
	if err := os.Chmod(tmp, launcherFileMode); err != nil {
		_ = os.Remove(tmp)

		return ioError("chmod launcher", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)

		return ioError("install launcher", err)
	}

	return nil
}

// rollback remembers paths an install created, in creation order.
type rollback struct {
	paths []string
}

// track records a path this install created.
func (r *rollback) track(path string) {
	r.paths = append(r.paths, path)
}

// trackIfMissing records path only when it does not exist yet, so undo never
// deletes files left by an earlier install.
func (r *rollback) trackIfMissing(path string) {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		r.track(path)
	}
}

// mkdirAll creates dir and its missing parents, tracking each one it creates.
func (r *rollback) mkdirAll(dir string) error {
	var missing []string

	for current := filepath.Clean(dir); ; current = filepath.Dir(current) {
		info, err := os.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return ioError("create directory", fmt.Errorf("%s is not a directory", current))
			}

			break
		}

		if !errors.Is(err, os.ErrNotExist) {
			return ioError("create directory", err)
		}

		missing = append(missing, current)

		if parent := filepath.Dir(current); parent == current {
			break
		}
	}

	for idx := len(missing) - 1; idx >= 0; idx-- {
		if err := os.Mkdir(missing[idx], dirMode); err != nil && !errors.Is(err, os.ErrExist) {
			return ioError("create directory", err)
		}

		r.track(missing[idx])
	}

	return nil
}

// undo removes tracked paths newest first. Directories are only removed when
// empty, so files that were there before survive.
func (r *rollback) undo(ctx context.Context) {
	for idx := len(r.paths) - 1; idx >= 0; idx-- {
		path := r.paths[idx]

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to remove partially installed path", "path", path, "error", err)
		}
	}

	r.paths = nil
}
