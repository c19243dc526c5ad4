package backup

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safegit/safegit/internal/gitexec"
)

func TestCreateStash_Verified(t *testing.T) {
	// The stash message embeds a timestamp, so exact-key stubbing does not
	// work; stashRunner accepts any push and echoes the message back.
	r := &stashRunner{Fake: gitexec.NewFake(t.TempDir())}
	art, err := CreateStash(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "stash", art.Kind)
	assert.Equal(t, "stash@{0}", art.Ref)
	assert.True(t, art.Verified)
	assert.Contains(t, art.Message, StashMessagePrefix)
}

// stashRunner accepts any `stash push` and reflects the pushed message back
// from `stash list`.
type stashRunner struct {
	*gitexec.Fake
	pushedMessage string
}

func (s *stashRunner) Run(ctx context.Context, args ...string) (string, error) {
	if len(args) >= 2 && args[0] == "stash" && args[1] == "push" {
		s.pushedMessage = args[len(args)-1]
		return "", nil
	}
	if len(args) >= 2 && args[0] == "stash" && args[1] == "list" {
		if s.pushedMessage == "" {
			return "", nil
		}
		return "stash@{0}\t" + s.pushedMessage + "\n", nil
	}
	return s.Fake.Run(ctx, args...)
}

func TestCreateStash_VerificationFailure(t *testing.T) {
	f := gitexec.NewFake(t.TempDir())
	r := &emptyStashRunner{Fake: f}

	_, err := CreateStash(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify stash")
}

// emptyStashRunner accepts the push but reports an empty stash list.
type emptyStashRunner struct{ *gitexec.Fake }

func (s *emptyStashRunner) Run(ctx context.Context, args ...string) (string, error) {
	if len(args) >= 2 && args[0] == "stash" && args[1] == "push" {
		return "", nil
	}
	if len(args) >= 2 && args[0] == "stash" && args[1] == "list" {
		return "", nil
	}
	return s.Fake.Run(ctx, args...)
}

func TestCreateArchive_RoundTrip(t *testing.T) {
	root := t.TempDir()
	backupDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "temp.log"), []byte("log data"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.o"), []byte("object"), 0600))

	files := []gitexec.UntrackedFile{
		{Path: "temp.log", Size: 8},
		{Path: "build/out.o", Size: 6},
	}

	art, err := CreateArchive(root, backupDir, files)
	require.NoError(t, err)

	assert.Equal(t, "archive", art.Kind)
	assert.True(t, art.Verified)
	assert.Equal(t, 2, art.EntryCount)
	assert.Equal(t, int64(14), art.TotalBytes)
	assert.Equal(t, "sha256", art.Algorithm)
	assert.NotEmpty(t, art.Checksum)
	assert.True(t, strings.HasPrefix(filepath.Base(art.Path), "safe-backup-"))

	// entries are readable and deterministic-ordered
	zr, err := zip.OpenReader(art.Path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "build/out.o", zr.File[0].Name)
	assert.Equal(t, "temp.log", zr.File[1].Name)
}

func TestCreateArchive_MissingSourceFails(t *testing.T) {
	root := t.TempDir()
	backupDir := t.TempDir()

	files := []gitexec.UntrackedFile{{Path: "ghost.txt"}}
	_, err := CreateArchive(root, backupDir, files)
	require.Error(t, err)

	entries, _ := os.ReadDir(backupDir)
	assert.Empty(t, entries, "failed archive must not leave artifacts")
}

func TestCreateArchive_NoFiles(t *testing.T) {
	_, err := CreateArchive(t.TempDir(), t.TempDir(), nil)
	require.Error(t, err)
}

func TestCreateRefDump(t *testing.T) {
	backupDir := t.TempDir()
	f := gitexec.NewFake(t.TempDir())
	f.Stub("abc123\n", "rev-parse", "--verify", "refs/heads/feature")

	art, err := CreateRefDump(context.Background(), f, backupDir, "refs/heads/feature",
		[]string{"refs/heads/feature"})
	require.NoError(t, err)

	assert.Equal(t, "text", art.Kind)
	assert.True(t, art.Verified)
	assert.Equal(t, "refs/heads/feature", art.Section)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refs/heads/feature abc123")
}

func TestCreateRefDump_StashPatches(t *testing.T) {
	backupDir := t.TempDir()
	f := gitexec.NewFake(t.TempDir())
	f.Stub("abc123\n", "rev-parse", "--verify", "stash@{0}")
	f.Stub("diff --git a/x b/x\n+new line\n", "stash", "show", "-p", "stash@{0}")

	art, err := CreateRefDump(context.Background(), f, backupDir, "stash", []string{"stash@{0}"})
	require.NoError(t, err)

	data, _ := os.ReadFile(art.Path)
	assert.Contains(t, string(data), "+new line")
}

func TestCreateRefDump_UnresolvableRef(t *testing.T) {
	f := gitexec.NewFake(t.TempDir())
	_, err := CreateRefDump(context.Background(), f, t.TempDir(), "refs/heads/x", []string{"refs/heads/x"})
	require.Error(t, err)
}
