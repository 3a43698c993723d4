package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
	"github.com/cloudageitC/Git-Credential-Manager/internal/service/installer"
)

// DefaultFormulaFilename is where the formula is written when no output is given.
const DefaultFormulaFilename = "formula.yaml"

// formulaFileMode keeps formulas readable by whoever installs from them.
const formulaFileMode = 0o644

// Options contains inputs for the packager entry point.
type Options struct {
	// ArchivePath is the local release archive to digest. Required.
	ArchivePath string
	// FormulaPath is the formula used as a base; empty selects the embedded one.
	FormulaPath string
	// Name overrides the package name.
	Name string
	// Version overrides the release version.
	Version string
	// URLTemplate overrides the download URL template.
	URLTemplate string
	// OutputPath is where the formula is written (defaults to formula.yaml).
	OutputPath string
}

// packager fills a formula with the digest of a local archive.
// It is unexported; callers should use Run, which encapsulates setup and validation.
type packager struct {
	// opts are the validated inputs.
	opts *Options
	// spec is the formula being produced.
	spec formula.PackageSpec
}

var (
	// ErrNoArchive is returned when no archive path is given.
	ErrNoArchive = errors.New("archive path is required")
	// ErrArchiveIsDir is returned when the archive path points at a directory.
	ErrArchiveIsDir = errors.New("archive path is a directory")
)

// Run computes the digest of the archive, writes the completed formula and
// returns it.
func Run(ctx context.Context, opts *Options) (*formula.PackageSpec, error) {
	ctx = logger.WithName(ctx, "package")

	pkg, err := newPackager(opts)
	if err != nil {
		return nil, fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.Run(ctx); err != nil {
		return nil, fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return &pkg.spec, nil
}

// newPackager loads the base formula and applies the overrides.
func newPackager(opts *Options) (*packager, error) {
	if opts == nil || strings.TrimSpace(opts.ArchivePath) == "" {
		return nil, fmt.Errorf("%w: %w", installer.ErrConfig, ErrNoArchive)
	}

	spec, err := formula.Load(opts.FormulaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", installer.ErrConfig, err)
	}

	if opts.Name != "" {
		spec.Name = opts.Name
	}

	spec = spec.WithVersion(opts.Version)

	if opts.URLTemplate != "" {
		spec.URLTemplate = opts.URLTemplate
	}

	if err = spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", installer.ErrConfig, err)
	}

	// The published URL must resolve before a formula pointing at it is written.
	if _, err = installer.ResolveURL(spec); err != nil {
		return nil, err
	}

	return &packager{
		opts: opts,
		spec: spec,
	}, nil
}

// Run digests the archive and writes the formula.
func (p *packager) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Computing archive digest", "archive", p.opts.ArchivePath)

	if err := p.fillDigest(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving formula", "path", p.outputPath())

	if err := p.saveFormula(); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// fillDigest stores the SHA-256 of the archive in the formula.
func (p *packager) fillDigest() error {
	info, err := os.Stat(p.opts.ArchivePath)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", installer.ErrIO, p.opts.ArchivePath, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %w: %s", installer.ErrConfig, ErrArchiveIsDir, p.opts.ArchivePath)
	}

	digest, err := installer.DigestFile(p.opts.ArchivePath)
	if err != nil {
		return err
	}

	p.spec = p.spec.WithDigest(digest)

	return nil
}

// saveFormula writes the formula to the output path.
func (p *packager) saveFormula() error {
	contents, err := formula.Marshal(p.spec)
	if err != nil {
		return fmt.Errorf("%w: %w", installer.ErrConfig, err)
	}

	if err = os.WriteFile(filepath.Clean(p.outputPath()), contents, formulaFileMode); err != nil {
		return fmt.Errorf("%w: write formula: %w", installer.ErrIO, err)
	}

	return nil
}

func (p *packager) outputPath() string {
	if p.opts.OutputPath != "" {
		return p.opts.OutputPath
	}

	return DefaultFormulaFilename
}

// printNextSteps logs where the archive must be published and how to install it.
func (p *packager) printNextSteps(ctx context.Context) {
	// Validated in newPackager.
	artifactURL, _ := installer.ResolveURL(p.spec)

	var builder strings.Builder

	builder.WriteString("Upload ")
	builder.WriteString(p.opts.ArchivePath)
	builder.WriteString(" so that it is served at:\n")
	builder.WriteString(artifactURL)
	builder.WriteString("\n\nThen install it with:\ngcm-installer install --formula ")
	builder.WriteString(p.outputPath())
	builder.WriteString("\n\nsha256: ")
	builder.WriteString(p.spec.ExpectedDigest)

	logger.Info(ctx, builder.String())
}
