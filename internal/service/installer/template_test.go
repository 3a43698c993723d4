package installer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResolveURL_SubstitutesVersion checks every placeholder receives the version verbatim.
func TestResolveURL_SubstitutesVersion(t *testing.T) {
	t.Parallel()

	spec := testSpec("https://downloads.example.com")
	spec.URLTemplate = "https://downloads.example.com/hello-${version}.jar"

	for _, v := range []string{"1.0", "2.0.4", "3.0.0-rc1", "20240101", "1.2.3+build.7"} {
		spec.Version = v

		resolved, err := ResolveURL(spec)
		require.NoError(t, err, v)
		require.Equal(t, "https://downloads.example.com/hello-"+v+".jar", resolved)
		require.Equal(t, 1, strings.Count(resolved, v), v)
	}
}

// TestResolveURL_DefaultFormulaShape mirrors the release URL layout with two placeholders.
func TestResolveURL_DefaultFormulaShape(t *testing.T) {
	t.Parallel()

	spec := testSpec("https://github.com")
	spec.Name = "git-credential-manager"
	spec.Version = "2.0.4"
	spec.URLTemplate = "https://github.com/x/releases/download/${name}-${version}/${name}-${version}.jar"

	resolved, err := ResolveURL(spec)
	require.NoError(t, err)
	require.Equal(t,
		"https://github.com/x/releases/download/git-credential-manager-2.0.4/git-credential-manager-2.0.4.jar",
		resolved)
}

// TestResolveURL_Rejects covers templates that must fail with ErrConfig.
func TestResolveURL_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no version":   "https://example.com/hello.jar",
		"unknown key":  "https://example.com/${arch}/hello-${version}.jar",
		"unterminated": "https://example.com/hello-${version",
		"ftp scheme":   "ftp://example.com/hello-${version}.jar",
		"relative":     "hello-${version}.jar",
		"no host":      "https:///hello-${version}.jar",
	}

	for name, tpl := range cases {
		spec := testSpec("")
		spec.URLTemplate = tpl

		_, err := ResolveURL(spec)
		require.ErrorIs(t, err, ErrConfig, name)
	}
}

// TestExpandTemplate_SinglePass ensures substituted values are not expanded again.
func TestExpandTemplate_SinglePass(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		placeholderVersion: "${name}",
		placeholderName:    "hello",
	}

	got, err := expandTemplate("a/${version}/${name}", values, placeholderVersion)
	require.NoError(t, err)
	require.Equal(t, "a/${name}/hello", got)

	_, err = expandTemplate("a/${name}", values, placeholderVersion)
	require.ErrorIs(t, err, errMissingPlaceholder)

	got, err = expandTemplate("no placeholders", values)
	require.NoError(t, err)
	require.Equal(t, "no placeholders", got)
}
