package gitexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirtyFiles_ParsesNumstat(t *testing.T) {
	f := NewFake(t.TempDir())
	f.Stub("20\t0\tsrc/app.go\n3\t7\tREADME.md\n-\t-\tassets/logo.png\n",
		"diff", "--numstat", "HEAD")

	files, err := DirtyFiles(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, DirtyFile{Path: "src/app.go", Added: 20, Removed: 0}, files[0])
	assert.Equal(t, DirtyFile{Path: "README.md", Added: 3, Removed: 7}, files[1])
	// binary files carry "-" counts and parse as zero
	assert.Equal(t, DirtyFile{Path: "assets/logo.png", Added: 0, Removed: 0}, files[2])
}

func TestUntrackedFiles_SizesFromDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "temp.log"), []byte("12345"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.o"), []byte("1234567890"), 0600))

	f := NewFake(root)
	f.Stub("temp.log\x00build/out.o\x00", "ls-files", "--others", "--exclude-standard", "-z")

	files, err := UntrackedFiles(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(5), files[0].Size)
	assert.Equal(t, int64(10), files[1].Size)
}

func TestStashList(t *testing.T) {
	f := NewFake(t.TempDir())
	f.Stub("stash@{0}\tWIP on main: abc123 work\nstash@{1}\tsafegit auto-backup\n",
		"stash", "list", "--format=%gd%x09%gs")

	entries, err := StashList(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "stash@{0}", entries[0].Ref)
	assert.Equal(t, "WIP on main: abc123 work", entries[0].Message)
}

func TestUpstreamDivergence(t *testing.T) {
	f := NewFake(t.TempDir())
	f.Stub("3\t1\n", "rev-list", "--left-right", "--count", "@{upstream}...HEAD")

	div, err := UpstreamDivergence(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, div)
	assert.Equal(t, 1, div.Ahead)
	assert.Equal(t, 3, div.Behind)
}

func TestUpstreamDivergence_NoUpstream(t *testing.T) {
	f := NewFake(t.TempDir())
	f.StubErr(&ProbeError{Cmd: "rev-list", Code: 128, Stderr: "no upstream configured"},
		"rev-list", "--left-right", "--count", "@{upstream}...HEAD")

	div, err := UpstreamDivergence(context.Background(), f)
	require.NoError(t, err)
	assert.Nil(t, div)
}

func TestHeadCommit_UnbornBranch(t *testing.T) {
	f := NewFake(t.TempDir())
	f.StubErr(&ProbeError{Cmd: "rev-parse", Code: 1}, "rev-parse", "--verify", "-q", "HEAD")

	head, err := HeadCommit(context.Background(), f)
	require.NoError(t, err)
	assert.Empty(t, head)
}

func TestRemoteURL_MissingRemote(t *testing.T) {
	f := NewFake(t.TempDir())
	f.StubErr(&ProbeError{Cmd: "remote", Code: 2, Stderr: "error: No such remote 'origin'"},
		"remote", "get-url", "origin")

	url, err := RemoteURL(context.Background(), f, "origin")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestRemoteURL_RealFailureSurfaces(t *testing.T) {
	f := NewFake(t.TempDir())
	f.StubErr(&ProbeError{Cmd: "remote", Code: 128, Stderr: "fatal: bad config"},
		"remote", "get-url", "origin")

	_, err := RemoteURL(context.Background(), f, "origin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestTakeSnapshot(t *testing.T) {
	f := NewFake(t.TempDir())
	f.Stub("abc123def\n", "rev-parse", "--verify", "-q", "HEAD")
	f.Stub("main\n", "rev-parse", "--abbrev-ref", "HEAD")
	f.Stub("20\t0\tsrc/app.go\n", "diff", "--numstat", "HEAD")
	f.Stub("", "ls-files", "--others", "--exclude-standard", "-z")
	f.Stub("", "stash", "list", "--format=%gd%x09%gs")
	f.Stub("0\t1\n", "rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	f.Stub("abc123def\n", "log", "-g", "-1", "--format=%H")
	f.Stub("git@github.com:org/repo.git\n", "remote", "get-url", "origin")

	snap, err := TakeSnapshot(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, "abc123def", snap.Head)
	assert.Equal(t, "main", snap.Branch)
	assert.Equal(t, 20, snap.DirtyLines())
	assert.Empty(t, snap.Untracked)
	assert.Equal(t, 0, len(snap.Stashes))
	assert.Equal(t, 1, snap.Upstream.Ahead)
	assert.Equal(t, "git@github.com:org/repo.git", snap.RemoteURL)
}

func TestProbeError_Message(t *testing.T) {
	err := &ProbeError{Cmd: "rev-parse", Code: 128, Stderr: "fatal: bad revision"}
	assert.Contains(t, err.Error(), "rev-parse")
	assert.Contains(t, err.Error(), "128")
	assert.Contains(t, err.Error(), "bad revision")
}
