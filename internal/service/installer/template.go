package installer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
)

const (
	placeholderOpen  = "${"
	placeholderClose = "}"

	placeholderVersion = "version"
	placeholderName    = "name"
)

// ResolveURL substitutes the formula's version and name into its URL template.
// It performs no network access.
func ResolveURL(spec formula.PackageSpec) (string, error) {
	return resolveTemplate(spec, spec.URLTemplate, placeholderVersion)
}

// ResolveURL resolves the download URL of the installer's formula.
func (i *Installer) ResolveURL() (string, error) {
	return ResolveURL(i.spec)
}

// resolveChecksumURL resolves the optional checksum file URL.
func resolveChecksumURL(spec formula.PackageSpec) (string, error) {
	return resolveTemplate(spec, spec.ChecksumURLTemplate)
}

func resolveTemplate(spec formula.PackageSpec, tpl string, required ...string) (string, error) {
	values := map[string]string{
		placeholderVersion: spec.Version,
		placeholderName:    spec.Name,
	}

	resolved, err := expandTemplate(tpl, values, required...)
	if err != nil {
		return "", configError(err)
	}

	parsed, err := url.Parse(resolved)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", configError(fmt.Errorf("%w: %q", errBadURL, resolved))
	}

	return resolved, nil
}

// expandTemplate replaces every ${key} in tpl in a single left-to-right pass.
// Substituted values are copied verbatim and never expanded again. Unknown
// keys, unterminated placeholders and missing required keys are errors.
func expandTemplate(tpl string, values map[string]string, required ...string) (string, error) {
	var (
		builder strings.Builder
		seen    = make(map[string]bool, len(values))
		rest    = tpl
	)

	builder.Grow(len(tpl))

	for {
		start := strings.Index(rest, placeholderOpen)
		if start < 0 {
			builder.WriteString(rest)
			break
		}

		builder.WriteString(rest[:start])
		rest = rest[start+len(placeholderOpen):]

		end := strings.Index(rest, placeholderClose)
		if end < 0 {
			return "", fmt.Errorf("%w: %q", errUnterminated, tpl)
		}

		key := rest[:end]

		value, ok := values[key]
		if !ok {
			return "", fmt.Errorf("%w: ${%s}", errUnknownPlaceholder, key)
		}

		builder.WriteString(value)

		seen[key] = true
		rest = rest[end+len(placeholderClose):]
	}

	for _, key := range required {
		if !seen[key] {
			return "", fmt.Errorf("%w: ${%s}", errMissingPlaceholder, key)
		}
	}

	return builder.String(), nil
}
