package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
)

// Config holds the installer settings shared by all commands.
type Config struct {
	// Cellar is the root under which every package gets its own
	// <cellar>/<name>/<version> prefix.
	Cellar string `yaml:"cellar"`
	// Timeout bounds a single download or self-test.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// JavaCommand overrides the runtime invoked by launchers. When empty the
	// launcher uses $JAVA_HOME/bin/java, falling back to java on the PATH.
	JavaCommand string `yaml:"java_command,omitempty"`
	// Progress enables the download progress bar on stderr.
	Progress bool `yaml:"progress"`
}

const (
	// DefaultConfigFilename is the default filename for installer settings.
	DefaultConfigFilename = "gcm-installer-settings.yaml"

	// DefaultCellarDirname is appended to the user's data directory when no cellar is configured.
	DefaultCellarDirname = "gcm-installer/Cellar"

	// DefaultTimeout is the default duration for network operations and self-tests.
	DefaultTimeout = 5 * time.Minute

	// DefaultLogLevel is used when the settings do not specify a level.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadLogLevel is returned for an unknown log level.
	errBadLogLevel = errors.New("unknown log level")
	// errRelativeCellar is returned when the cellar is not an absolute path.
	errRelativeCellar = errors.New("cellar must be an absolute path")
)

// Load reads settings from path. A missing file at the default location is not
// an error: defaults are returned instead, so the installer works out of the box.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return defaults()
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks settings and fills in defaults for unset fields.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errBadLogLevel, settings.LogLevel)
	}

	if settings.Cellar == "" {
		cellar, err := defaultCellar()
		if err != nil {
			return err
		}

		settings.Cellar = cellar
	}

	if !filepath.IsAbs(settings.Cellar) {
		return fmt.Errorf("%w: %s", errRelativeCellar, settings.Cellar)
	}

	settings.Cellar = filepath.Clean(settings.Cellar)

	return nil
}

func defaults() (*Config, error) {
	cfg := new(Config)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultCellar places packages under the per-user data directory.
func defaultCellar() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(dataHome) {
		return filepath.Join(dataHome, DefaultCellarDirname), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve default cellar: %w", err)
	}

	return filepath.Join(home, ".local", "share", DefaultCellarDirname), nil
}
