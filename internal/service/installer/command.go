package installer

import (
	"context"
	"errors"
	"os"

	"github.com/cloudageitC/Git-Credential-Manager/internal/config"
	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
)

// Options are inputs accepted by the install, test and uninstall entry points.
type Options struct {
	// Config holds the loaded settings. Required.
	Config *config.Config
	// FormulaPath is the formula file; empty selects the embedded formula.
	FormulaPath string
	// Version overrides the formula version.
	Version string
	// Digest overrides the formula sha256.
	Digest string
	// Prefix overrides <cellar>/<name>/<version>.
	Prefix string
	// SelfTest runs the launcher after installing and removes the install if it fails.
	SelfTest bool
	// Extra options, mostly for tests.
	InstallerOptions []Option
}

var errSettingsNotInitialised = errors.New("settings are not initialized")

// Run executes the install pipeline: resolve the URL, pick the digest, download,
// verify, install and optionally self-test.
func Run(ctx context.Context, opts *Options) (*formula.InstalledArtifact, error) {
	ctx = logger.WithName(ctx, "install")

	inst, prefix, err := Prepare(opts)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "package", describe(inst.spec))

	logger.Info(ctx, "Resolving download URL")

	artifactURL, err := inst.ResolveURL()
	if err != nil {
		return nil, err
	}

	digest, err := inst.ResolveDigest(ctx)
	if err != nil {
		return nil, err
	}

	inst = inst.withDigest(digest)

	logger.InfoKV(ctx, "Downloading artifact", "url", artifactURL)

	data, err := inst.Download(ctx, artifactURL)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Verifying artifact", "sha256", digest)

	if err = verifyNamed(inst.spec.ArtifactName(), data, digest); err != nil {
		logger.ErrorKV(ctx, "Refusing to install artifact", "error", err)
		return nil, err
	}

	logger.InfoKV(ctx, "Installing artifact", "prefix", prefix)

	artifact, err := inst.Install(ctx, data, prefix)
	if err != nil {
		return nil, err
	}

	if !opts.SelfTest {
		return artifact, nil
	}

	if err = inst.SelfTest(ctx, artifact); err != nil {
		logger.ErrorKV(ctx, "Self-test failed, removing install", "error", err)

		if uninstallErr := Uninstall(ctx, prefix); uninstallErr != nil {
			err = errors.Join(err, uninstallErr)
		}

		return nil, err
	}

	return artifact, nil
}

// Test runs the self-test of an existing install.
func Test(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "test")

	inst, prefix, err := Prepare(opts)
	if err != nil {
		return err
	}

	artifact, _, err := Installed(ctx, prefix)
	if err != nil {
		return err
	}

	return inst.SelfTest(ctx, artifact)
}

// Remove uninstalls the release selected by opts.
func Remove(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "uninstall")

	_, prefix, err := Prepare(opts)
	if err != nil {
		return err
	}

	return Uninstall(ctx, prefix)
}

// Prepare loads the formula, applies the overrides of opts and returns the
// installer together with the prefix it installs into.
func Prepare(opts *Options) (*Installer, string, error) {
	if opts == nil || opts.Config == nil {
		return nil, "", configError(errSettingsNotInitialised)
	}

	spec, err := formula.Load(opts.FormulaPath)
	if err != nil {
		return nil, "", configError(err)
	}

	spec = spec.WithVersion(opts.Version)
	if opts.Digest != "" {
		spec = spec.WithDigest(opts.Digest)
	}

	installerOptions := append(OptionsFromConfig(opts.Config, os.Stderr), opts.InstallerOptions...)

	inst, err := New(spec, installerOptions...)
	if err != nil {
		return nil, "", err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = PrefixFor(opts.Config.Cellar, spec)
	}

	return inst, prefix, nil
}
