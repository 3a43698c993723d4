package installer

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cloudageitC/Git-Credential-Manager/internal/config"
	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
)

const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// testSpec returns a valid formula pointing at baseURL.
func testSpec(baseURL string) formula.PackageSpec {
	return formula.PackageSpec{
		Name:        "hello",
		Version:     "1.0.0",
		URLTemplate: baseURL + "/releases/${version}/hello-${version}.jar",
		Runtime:     formula.RuntimeDependency{Kind: formula.RuntimeJava, MinVersion: "1.8"},
	}
}

// fakeJava writes a stand-in for java that prints its arguments and exits with code.
func fakeJava(t *testing.T, code int) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("launchers are POSIX shell scripts")
	}

	path := filepath.Join(t.TempDir(), "java")
	script := "#!/bin/sh\necho \"fake-java $*\"\nexit " + strconv.Itoa(code) + "\n"

	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	require.NoError(t, os.Chmod(path, 0o755))

	return path
}

// serveArtifact serves body at the release path of testSpec and counts requests.
func serveArtifact(t *testing.T, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	requests := new(atomic.Int32)

	mux := http.NewServeMux()
	mux.HandleFunc("/releases/", func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)

		_, _ = w.Write(body)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, requests
}

// testConfig returns settings rooted in a temporary cellar.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Cellar:  filepath.Join(t.TempDir(), "Cellar"),
		Timeout: 10 * time.Second,
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// writeFormula stores spec as a formula file and returns its path.
func writeFormula(t *testing.T, spec formula.PackageSpec) string {
	t.Helper()

	data, err := formula.Marshal(spec)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "formula.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}
