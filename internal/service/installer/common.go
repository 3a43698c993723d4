package installer

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudageitC/Git-Credential-Manager/internal/config"
	"github.com/cloudageitC/Git-Credential-Manager/internal/domain/formula"
)

const (
	// LibexecDir holds installed archives inside a prefix.
	LibexecDir = "libexec"
	// BinDir holds launchers inside a prefix.
	BinDir = "bin"

	// SelfTestArgument is passed to the launcher by SelfTest.
	SelfTestArgument = "version"

	// artifactFileMode is used for installed archives.
	artifactFileMode os.FileMode = 0o644
	// launcherFileMode is used for launcher scripts.
	launcherFileMode os.FileMode = 0o755
	// dirMode is used for every directory the installer creates.
	dirMode os.FileMode = 0o755

	// lockFilename marks a prefix that is being written right now.
	lockFilename = ".gcm-installer.lock"
	// lockLifetime is how long an unreadable lock is respected.
	lockLifetime = 10 * time.Minute

	// maxPrealloc caps the buffer reserved up front from Content-Length.
	maxPrealloc = 64 << 20
	// maxCommandOutput is how much self-test output ends up in an error.
	maxCommandOutput = 2048
)

// Installer runs the install pipeline for one formula.
// It is not safe for concurrent use on the same prefix from several goroutines;
// separate processes are serialized by the prefix lock.
type Installer struct {
	// spec is the formula being installed.
	spec formula.PackageSpec
	// client performs downloads.
	client *http.Client
	// timeout bounds one download or one self-test.
	timeout time.Duration
	// javaCommand replaces the JAVA_HOME lookup in launchers when set.
	javaCommand string
	// progress receives the download progress bar; nil disables it.
	progress io.Writer
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient replaces the download client.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Installer) {
		if client != nil {
			i.client = client
		}
	}
}

// WithTimeout sets the limit for a single download or self-test.
func WithTimeout(timeout time.Duration) Option {
	return func(i *Installer) {
		if timeout > 0 {
			i.timeout = timeout
		}
	}
}

// WithJavaCommand makes launchers run the given java executable.
func WithJavaCommand(command string) Option {
	return func(i *Installer) {
		i.javaCommand = command
	}
}

// WithProgress draws a download progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(i *Installer) {
		i.progress = w
	}
}

// New validates spec and returns an Installer for it.
func New(spec formula.PackageSpec, opts ...Option) (*Installer, error) {
	if err := spec.Validate(); err != nil {
		return nil, configError(err)
	}

	i := &Installer{
		spec:    spec,
		client:  newHTTPClient(),
		timeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// OptionsFromConfig turns settings into installer options.
func OptionsFromConfig(cfg *config.Config, progress io.Writer) []Option {
	if cfg == nil {
		return nil
	}

	opts := []Option{
		WithTimeout(cfg.Timeout),
		WithJavaCommand(cfg.JavaCommand),
	}

	if cfg.Progress {
		opts = append(opts, WithProgress(progress))
	}

	return opts
}

// Spec returns the formula the installer works on.
func (i *Installer) Spec() formula.PackageSpec {
	return i.spec
}

// withDigest returns a copy of the installer expecting digest.
func (i *Installer) withDigest(digest string) *Installer {
	clone := *i
	clone.spec = i.spec.WithDigest(digest)

	return &clone
}

// PrefixFor returns the versioned, isolated prefix of spec under cellar.
func PrefixFor(cellar string, spec formula.PackageSpec) string {
	return filepath.Join(cellar, spec.Name, spec.Version)
}

// ArtifactPath is where the archive of spec lives inside prefix.
func ArtifactPath(prefix string, spec formula.PackageSpec) string {
	return filepath.Join(prefix, LibexecDir, spec.ArtifactName())
}

// LauncherPath is where the launcher of spec lives inside prefix.
func LauncherPath(prefix string, spec formula.PackageSpec) string {
	return filepath.Join(prefix, BinDir, spec.Name)
}

// newHTTPClient returns a client that honours proxy settings and refuses
// anything older than TLS 1.2.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 30 * time.Second,
	}

	return &http.Client{
		Transport: transport,
	}
}

// trimOutput keeps the tail of command output short enough for an error message.
func trimOutput(out []byte) string {
	if len(out) > maxCommandOutput {
		out = out[len(out)-maxCommandOutput:]
	}

	return string(out)
}

// describe renders a spec for log lines.
func describe(spec formula.PackageSpec) string {
	return fmt.Sprintf("%s %s", spec.Name, spec.Version)
}
