package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
	"github.com/cloudageitC/Git-Credential-Manager/internal/repository/receipt"
)

// SelfTest runs `<launcher> version` and succeeds iff it exits with status 0.
// Calling it before Install fails with ErrNotInstalled.
func (i *Installer) SelfTest(ctx context.Context, artifact *formula.InstalledArtifact) error {
	if artifact == nil || artifact.LauncherPath == "" {
		return fmt.Errorf("%w: %w", ErrIO, ErrNotInstalled)
	}

	if _, err := os.Stat(artifact.LauncherPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %w: %s is missing", ErrIO, ErrNotInstalled, artifact.LauncherPath)
		}

		return ioError("stat launcher", err)
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	logger.InfoKV(ctx, "Running self-test", "command", artifact.LauncherPath+" "+SelfTestArgument)

	cmd := exec.CommandContext(ctx, artifact.LauncherPath, SelfTestArgument)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w: %s",
			ErrSelfTestFailed, artifact.LauncherPath, SelfTestArgument, err, strings.TrimSpace(trimOutput(output)))
	}

	logger.InfoKV(ctx, "Self-test passed", "output", strings.TrimSpace(trimOutput(output)))

	return nil
}

// Installed reads the receipt of prefix and returns the artifact it describes.
func Installed(ctx context.Context, prefix string) (*formula.InstalledArtifact, *receipt.Receipt, error) {
	rec, err := receipt.NewFileRepository(prefix).Load(ctx)
	if err != nil {
		if errors.Is(err, receipt.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %w: no receipt in %s", ErrIO, ErrNotInstalled, filepath.Clean(prefix))
		}

		return nil, nil, ioError("load receipt", err)
	}

	artifact := &formula.InstalledArtifact{
		Path:         rec.ArtifactPath,
		LauncherPath: rec.LauncherPath,
	}

	return artifact, rec, nil
}
