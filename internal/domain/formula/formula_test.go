package formula

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleFormula = `
name: hello
desc: Prints hello
version: 1.2.3
url: https://example.com/hello-${version}.jar
sha256: E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855
depends_on:
  java: "1.7+"
`

// TestDefault_IsGitCredentialManager checks the embedded formula parses and keeps its declarations.
func TestDefault_IsGitCredentialManager(t *testing.T) {
	t.Parallel()

	spec, err := Default()
	require.NoError(t, err)
	require.Equal(t, "git-credential-manager", spec.Name)
	require.Contains(t, spec.URLTemplate, "${version}")
	require.Empty(t, spec.ExpectedDigest)
	require.Equal(t, RuntimeDependency{Kind: RuntimeJava, MinVersion: "1.8"}, spec.Runtime)
	require.Equal(t, "java 1.8+", spec.Runtime.String())
}

// TestParse_Sample decodes every field of a formula.
func TestParse_Sample(t *testing.T) {
	t.Parallel()

	spec, err := Parse([]byte(sampleFormula))
	require.NoError(t, err)
	require.Equal(t, "hello", spec.Name)
	require.Equal(t, "Prints hello", spec.Description)
	require.Equal(t, "1.2.3", spec.Version)
	require.Equal(t, "hello-1.2.3.jar", spec.ArtifactName())
	require.Equal(t, "1.7", spec.Runtime.MinVersion)
}

// TestParse_Rejects covers malformed formulas.
func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown field":   "name: a\nversion: '1'\nurl: u\nbottle: unneeded\n",
		"missing name":    "version: '1'\nurl: u\n",
		"upper name":      "name: Hello\nversion: '1'\nurl: u\n",
		"path in version": "name: a\nversion: ../1\nurl: u\n",
		"missing url":     "name: a\nversion: '1'\n",
		"other runtime":   "name: a\nversion: '1'\nurl: u\ndepends_on:\n  python: '3'\n",
		"bad java":        "name: a\nversion: '1'\nurl: u\ndepends_on:\n  java: 'one point eight'\n",
		"not yaml":        "name: [",
	}

	for name, data := range cases {
		_, err := Parse([]byte(data))
		require.ErrorIs(t, err, ErrInvalidFormula, name)
	}
}

// TestMarshal_Roundtrip ensures a written formula is read back unchanged.
func TestMarshal_Roundtrip(t *testing.T) {
	t.Parallel()

	spec, err := Parse([]byte(sampleFormula))
	require.NoError(t, err)

	data, err := Marshal(spec)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hello.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, spec, loaded)
}

// TestWithVersion drops the digest of the old release.
func TestWithVersion(t *testing.T) {
	t.Parallel()

	spec, err := Parse([]byte(sampleFormula))
	require.NoError(t, err)

	same := spec.WithVersion("1.2.3")
	require.Equal(t, spec, same)

	next := spec.WithVersion("2.0.0")
	require.Equal(t, "2.0.0", next.Version)
	require.Empty(t, next.ExpectedDigest)
	require.Equal(t, "1.2.3", spec.Version)

	pinned := next.WithDigest("  abc ")
	require.Equal(t, "abc", pinned.ExpectedDigest)
	require.Empty(t, next.ExpectedDigest)
}
