package installer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRun_EndToEnd downloads, verifies, installs and self-tests a release.
func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	server, requests := serveArtifact(t, testJar)
	formulaPath := writeFormula(t, testSpec(server.URL).WithDigest(Digest(testJar)))

	opts := &Options{
		Config:           cfg,
		FormulaPath:      formulaPath,
		SelfTest:         true,
		InstallerOptions: []Option{WithJavaCommand(fakeJava(t, 0))},
	}

	artifact, err := Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, int32(1), requests.Load())

	prefix := filepath.Join(cfg.Cellar, "hello", "1.0.0")
	require.Equal(t, filepath.Join(prefix, LibexecDir, "hello-1.0.0.jar"), artifact.Path)
	require.Equal(t, filepath.Join(prefix, BinDir, "hello"), artifact.LauncherPath)

	installed, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	require.Equal(t, testJar, installed)

	require.NoError(t, Test(ctx, opts))

	require.NoError(t, Remove(ctx, opts))
	require.NoDirExists(t, prefix)

	err = Test(ctx, opts)
	require.ErrorIs(t, err, ErrNotInstalled)
	require.ErrorIs(t, err, ErrIO)
}

// TestRun_DigestMismatch aborts before writing anything.
func TestRun_DigestMismatch(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	server, _ := serveArtifact(t, testJar)
	formulaPath := writeFormula(t, testSpec(server.URL).WithDigest(emptyDigest))

	_, err := Run(context.Background(), &Options{Config: cfg, FormulaPath: formulaPath})
	require.ErrorIs(t, err, ErrIntegrity)
	require.NoDirExists(t, cfg.Cellar)
}

// TestRun_MissingDigest never contacts the server without a digest.
func TestRun_MissingDigest(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	server, requests := serveArtifact(t, testJar)
	formulaPath := writeFormula(t, testSpec(server.URL))

	_, err := Run(context.Background(), &Options{Config: cfg, FormulaPath: formulaPath})
	require.ErrorIs(t, err, ErrConfig)
	require.Equal(t, int32(0), requests.Load())
}

// TestRun_HTTPError surfaces a missing release as ErrHTTP.
func TestRun_HTTPError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	formulaPath := writeFormula(t, testSpec(server.URL).WithDigest(Digest(testJar)))

	_, err := Run(context.Background(), &Options{Config: cfg, FormulaPath: formulaPath})
	require.ErrorIs(t, err, ErrHTTP)
	require.NoDirExists(t, cfg.Cellar)
}

// TestRun_SelfTestFailure removes the install when the launcher fails.
func TestRun_SelfTestFailure(t *testing.T) {
	cfg := testConfig(t)

	server, _ := serveArtifact(t, testJar)
	formulaPath := writeFormula(t, testSpec(server.URL).WithDigest(Digest(testJar)))

	_, err := Run(context.Background(), &Options{
		Config:           cfg,
		FormulaPath:      formulaPath,
		SelfTest:         true,
		InstallerOptions: []Option{WithJavaCommand(fakeJava(t, 1))},
	})
	require.ErrorIs(t, err, ErrSelfTestFailed)
	require.NoDirExists(t, filepath.Join(cfg.Cellar, "hello", "1.0.0"))
}

// TestRun_ChecksumFileAndVersionOverride installs another release using its published checksums.
func TestRun_ChecksumFileAndVersionOverride(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/releases/2.0.0/SHA256SUMS", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(Digest(testJar) + "  hello-2.0.0.jar\n"))
	})
	mux.HandleFunc("/releases/2.0.0/hello-2.0.0.jar", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(testJar)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	// The formula pins 1.0.0 with a digest that must not leak into 2.0.0.
	spec := testSpec(server.URL).WithDigest(emptyDigest)
	spec.ChecksumURLTemplate = server.URL + "/releases/${version}/SHA256SUMS"

	artifact, err := Run(context.Background(), &Options{
		Config:      cfg,
		FormulaPath: writeFormula(t, spec),
		Version:     "2.0.0",
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cfg.Cellar, "hello", "2.0.0", LibexecDir, "hello-2.0.0.jar"), artifact.Path)

	_, rec, err := Installed(context.Background(), filepath.Join(cfg.Cellar, "hello", "2.0.0"))
	require.NoError(t, err)
	require.Equal(t, server.URL+"/releases/2.0.0/hello-2.0.0.jar", rec.SourceURL)
}

// TestRun_DigestOverrideAndPrefix honours explicit --sha256 and --prefix values.
func TestRun_DigestOverrideAndPrefix(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	prefix := filepath.Join(t.TempDir(), "custom")

	server, _ := serveArtifact(t, testJar)

	artifact, err := Run(context.Background(), &Options{
		Config:      cfg,
		FormulaPath: writeFormula(t, testSpec(server.URL)),
		Digest:      Digest(testJar),
		Prefix:      prefix,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(prefix, LibexecDir, "hello-1.0.0.jar"), artifact.Path)
	require.NoDirExists(t, cfg.Cellar)
}

// TestRun_InvalidOptions rejects missing settings and unreadable formulas.
func TestRun_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrConfig)

	_, err = Run(context.Background(), &Options{
		Config:      testConfig(t),
		FormulaPath: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.ErrorIs(t, err, ErrConfig)
}
