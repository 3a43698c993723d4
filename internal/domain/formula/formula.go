package formula

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuntimeJava is the only runtime kind a formula may depend on.
const RuntimeJava = "java"

var (
	// ErrInvalidFormula is returned when a formula is malformed or incomplete.
	ErrInvalidFormula = errors.New("invalid formula")

	//go:embed default.yaml
	defaultFormula []byte

	namePattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9._+-]*$`)
	versionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)
)

// RuntimeDependency is a runtime the package needs at run time. It is only
// declared: resolving and installing it is the package manager's job.
type RuntimeDependency struct {
	// Kind is the runtime name, always "java".
	Kind string
	// MinVersion is the lowest acceptable runtime version, e.g. "1.8".
	MinVersion string
}

// String renders the dependency the way formulas declare it, e.g. "java 1.8+".
func (d RuntimeDependency) String() string {
	if d.Kind == "" {
		return "none"
	}

	if d.MinVersion == "" {
		return d.Kind
	}

	return d.Kind + " " + d.MinVersion + "+"
}

// PackageSpec is an immutable description of one package release.
type PackageSpec struct {
	// Name is the package and launcher name.
	Name string
	// Description is a one-line summary.
	Description string
	// Homepage is the project URL.
	Homepage string
	// Version is the release being installed.
	Version string
	// URLTemplate is the download URL with ${version} and ${name} placeholders.
	URLTemplate string
	// ExpectedDigest is the hex-encoded SHA-256 of the archive. May be empty
	// when ChecksumURLTemplate is set.
	ExpectedDigest string
	// ChecksumURLTemplate optionally points at a sha256sum-style file listing
	// the archive digest. Used only when ExpectedDigest is empty.
	ChecksumURLTemplate string
	// Runtime is the declared runtime dependency.
	Runtime RuntimeDependency
}

// InstalledArtifact points at the files an install produced.
type InstalledArtifact struct {
	// Path is the installed archive.
	Path string
	// LauncherPath is the executable script that runs the archive.
	LauncherPath string
}

// ArtifactName is the file name the archive is stored under.
func (s PackageSpec) ArtifactName() string {
	return s.Name + "-" + s.Version + ".jar"
}

// WithVersion returns a copy of s for another release. The digest belongs to a
// single release, so it is dropped unless the version is unchanged.
func (s PackageSpec) WithVersion(version string) PackageSpec {
	if version == "" || version == s.Version {
		return s
	}

	s.Version = version
	s.ExpectedDigest = ""

	return s
}

// WithDigest returns a copy of s expecting the given digest.
func (s PackageSpec) WithDigest(digest string) PackageSpec {
	s.ExpectedDigest = strings.TrimSpace(digest)

	return s
}

// Validate checks the fields every operation relies on.
func (s PackageSpec) Validate() error {
	if !namePattern.MatchString(s.Name) {
		return fmt.Errorf("%w: name %q must be lowercase letters, digits, '.', '_', '+' or '-'",
			ErrInvalidFormula, s.Name)
	}

	if !versionPattern.MatchString(s.Version) {
		return fmt.Errorf("%w: version %q must be letters, digits, '.', '_', '+' or '-'",
			ErrInvalidFormula, s.Version)
	}

	if strings.TrimSpace(s.URLTemplate) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidFormula)
	}

	if s.Runtime.Kind != "" && s.Runtime.Kind != RuntimeJava {
		return fmt.Errorf("%w: unsupported runtime %q", ErrInvalidFormula, s.Runtime.Kind)
	}

	return nil
}

// document is the YAML shape of a formula file.
type document struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"desc,omitempty"`
	Homepage    string            `yaml:"homepage,omitempty"`
	Version     string            `yaml:"version"`
	URL         string            `yaml:"url"`
	SHA256      string            `yaml:"sha256"`
	ChecksumURL string            `yaml:"checksum_url,omitempty"`
	DependsOn   map[string]string `yaml:"depends_on,omitempty"`
}

// Parse decodes and validates a YAML formula.
func Parse(data []byte) (PackageSpec, error) {
	var doc document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&doc); err != nil {
		return PackageSpec{}, fmt.Errorf("%w: %w", ErrInvalidFormula, err)
	}

	runtime, err := parseDependsOn(doc.DependsOn)
	if err != nil {
		return PackageSpec{}, err
	}

	spec := PackageSpec{
		Name:                strings.TrimSpace(doc.Name),
		Description:         doc.Description,
		Homepage:            doc.Homepage,
		Version:             strings.TrimSpace(doc.Version),
		URLTemplate:         strings.TrimSpace(doc.URL),
		ExpectedDigest:      strings.TrimSpace(doc.SHA256),
		ChecksumURLTemplate: strings.TrimSpace(doc.ChecksumURL),
		Runtime:             runtime,
	}

	if err = spec.Validate(); err != nil {
		return PackageSpec{}, err
	}

	return spec, nil
}

// Load reads a formula file. An empty path selects the embedded default formula.
func Load(path string) (PackageSpec, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return PackageSpec{}, fmt.Errorf("read formula: %w", err)
	}

	return Parse(data)
}

// Default returns the embedded git-credential-manager formula.
func Default() (PackageSpec, error) {
	return Parse(defaultFormula)
}

// Marshal encodes a formula back to YAML.
func Marshal(spec PackageSpec) ([]byte, error) {
	doc := document{
		Name:        spec.Name,
		Description: spec.Description,
		Homepage:    spec.Homepage,
		Version:     spec.Version,
		URL:         spec.URLTemplate,
		SHA256:      spec.ExpectedDigest,
		ChecksumURL: spec.ChecksumURLTemplate,
	}

	if spec.Runtime.Kind != "" {
		constraint := spec.Runtime.MinVersion
		if constraint != "" {
			constraint += "+"
		}

		doc.DependsOn = map[string]string{spec.Runtime.Kind: constraint}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal formula: %w", err)
	}

	return data, nil
}

// parseDependsOn accepts {java: "1.8+"}; a bare version means the same.
func parseDependsOn(deps map[string]string) (RuntimeDependency, error) {
	if len(deps) == 0 {
		return RuntimeDependency{}, nil
	}

	kinds := make([]string, 0, len(deps))
	for kind := range deps {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	if len(kinds) > 1 || kinds[0] != RuntimeJava {
		return RuntimeDependency{}, fmt.Errorf("%w: depends_on supports only %q, got %s",
			ErrInvalidFormula, RuntimeJava, strings.Join(kinds, ", "))
	}

	minVersion := strings.TrimSuffix(strings.TrimSpace(deps[RuntimeJava]), "+")
	if minVersion != "" && !versionPattern.MatchString(minVersion) {
		return RuntimeDependency{}, fmt.Errorf("%w: bad java version %q", ErrInvalidFormula, deps[RuntimeJava])
	}

	return RuntimeDependency{Kind: RuntimeJava, MinVersion: minVersion}, nil
}
