package receipt

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for an empty prefix.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(t.TempDir())
	rec, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, rec)
}

// TestFileRepository_SaveLoadRemove ensures Save followed by Load returns the same receipt.
func TestFileRepository_SaveLoadRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewFileRepository(t.TempDir())

	want := &Receipt{
		Name:         "git-credential-manager",
		Version:      "2.0.4",
		SourceURL:    "https://example.com/gcm-2.0.4.jar",
		Digest:       "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Runtime:      "java 1.8+",
		ArtifactPath: "/cellar/gcm/2.0.4/libexec/gcm-2.0.4.jar",
		LauncherPath: "/cellar/gcm/2.0.4/bin/gcm",
		InstalledAt:  time.Now().UTC().Truncate(time.Second),
		InstalledBy:  Actor{Hostname: "build-host", Username: "ci"},
	}

	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.Digest, got.Digest)
	require.Equal(t, want.LauncherPath, got.LauncherPath)
	require.True(t, want.InstalledAt.Equal(got.InstalledAt))
	require.Equal(t, want.InstalledBy, got.InstalledBy)

	_, err = os.Stat(repo.Path() + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, repo.Remove(ctx))
	require.NoError(t, repo.Remove(ctx))

	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestDetectActor reports the local host name.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	hostname, err := os.Hostname()
	require.NoError(t, err)
	require.Equal(t, hostname, DetectActor().Hostname)
}
