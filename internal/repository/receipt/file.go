package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Filename is the receipt file name inside an installed prefix.
const Filename = "INSTALL_RECEIPT.yaml"

// filePermissions keeps receipts readable by the user running the launcher.
const filePermissions = 0o644

// ErrNotFound is returned when the prefix has no receipt, i.e. nothing is installed.
var ErrNotFound = errors.New("install receipt not found")

// Receipt records one completed install.
type Receipt struct {
	// Name and Version identify the release.
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// SourceURL is where the archive was downloaded from.
	SourceURL string `yaml:"source_url"`
	// Digest is the verified hex SHA-256 of the archive.
	Digest string `yaml:"sha256"`
	// Runtime is the declared runtime requirement, e.g. "java 1.8+".
	Runtime string `yaml:"runtime,omitempty"`
	// ArtifactPath and LauncherPath are absolute paths of the installed files.
	ArtifactPath string `yaml:"artifact"`
	LauncherPath string `yaml:"launcher"`
	// InstalledAt is when the install finished.
	InstalledAt time.Time `yaml:"installed_at"`
	// InstalledBy is the host and user that ran the install.
	InstalledBy Actor `yaml:"installed_by"`
}

// Repository defines persistence operations for install receipts.
type Repository interface {
	Load(ctx context.Context) (*Receipt, error)
	Save(ctx context.Context, r *Receipt) error
	Remove(ctx context.Context) error
}

// FileRepository keeps the receipt as YAML inside the prefix.
type FileRepository struct {
	// path is the receipt location.
	path string
	// mu serializes access from one process.
	mu sync.Mutex
}

// NewFileRepository creates a repository for the receipt of prefix.
func NewFileRepository(prefix string) *FileRepository {
	return &FileRepository{
		path: filepath.Join(filepath.Clean(prefix), Filename),
	}
}

// Path returns the receipt file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the receipt from disk.
func (r *FileRepository) Load(_ context.Context) (*Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read receipt: %w", err)
	}

	var rec Receipt
	if err = yaml.Unmarshal(contents, &rec); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}

	return &rec, nil
}

// Save writes the receipt to disk, replacing any previous one.
func (r *FileRepository) Save(_ context.Context, rec *Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("write receipt: %w", err)
	}

	return nil
}

// Remove deletes the receipt. A missing receipt is not an error.
func (r *FileRepository) Remove(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove receipt: %w", err)
	}

	return nil
}
