package packager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
	"github.com/cloudageitC/Git-Credential-Manager/internal/service/installer"
)

func writeArchive(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "git-credential-manager-2.0.4.jar")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestRun_DefaultFormula fills the embedded formula with the archive digest.
func TestRun_DefaultFormula(t *testing.T) {
	t.Parallel()

	archive := writeArchive(t, "PK\x03\x04 gcm")
	output := filepath.Join(t.TempDir(), "formula.yaml")

	spec, err := Run(context.Background(), &Options{ArchivePath: archive, OutputPath: output})
	require.NoError(t, err)
	require.Equal(t, installer.Digest([]byte("PK\x03\x04 gcm")), spec.ExpectedDigest)

	written, err := formula.Load(output)
	require.NoError(t, err)
	require.Equal(t, *spec, written)
	require.Equal(t, "git-credential-manager", written.Name)
	require.Equal(t, "2.0.4", written.Version)
	require.Equal(t, formula.RuntimeJava, written.Runtime.Kind)

	require.NoError(t, installer.VerifyFile(archive, written.ExpectedDigest))
}

// TestRun_Overrides replaces name, version and url.
func TestRun_Overrides(t *testing.T) {
	t.Parallel()

	archive := writeArchive(t, "hello")
	output := filepath.Join(t.TempDir(), "hello.yaml")

	spec, err := Run(context.Background(), &Options{
		ArchivePath: archive,
		Name:        "hello",
		Version:     "3.1.0",
		URLTemplate: "https://downloads.example.com/${name}/${version}/${name}-${version}.jar",
		OutputPath:  output,
	})
	require.NoError(t, err)
	require.Equal(t, "hello", spec.Name)
	require.Equal(t, "3.1.0", spec.Version)

	resolved, err := installer.ResolveURL(*spec)
	require.NoError(t, err)
	require.Equal(t, "https://downloads.example.com/hello/3.1.0/hello-3.1.0.jar", resolved)
}

// TestRun_InvalidInputs classifies the failures.
func TestRun_InvalidInputs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Run(ctx, &Options{})
	require.ErrorIs(t, err, ErrNoArchive)
	require.ErrorIs(t, err, installer.ErrConfig)

	_, err = Run(ctx, &Options{ArchivePath: t.TempDir()})
	require.ErrorIs(t, err, ErrArchiveIsDir)

	_, err = Run(ctx, &Options{ArchivePath: filepath.Join(t.TempDir(), "missing.jar")})
	require.ErrorIs(t, err, installer.ErrIO)

	_, err = Run(ctx, &Options{
		ArchivePath: writeArchive(t, "x"),
		URLTemplate: "https://example.com/latest.jar",
	})
	require.ErrorIs(t, err, installer.ErrConfig)
}
