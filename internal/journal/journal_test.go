package journal

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safegit/safegit/internal/backup"
	"github.com/safegit/safegit/internal/classify"
	"github.com/safegit/safegit/internal/gitexec"
)

func sampleEntry(id string) Entry {
	return Entry{
		Argv:      []string{"reset", "--hard", "HEAD"},
		Backups:   []backup.Artifact{},
		Category:  "reset_hard",
		CreatedAt: Now(),
		Cwd:       "/work/repo",
		Hint:      "stash pop restores your changes",
		ID:        id,
		Mode:      "interactive",
		PreState:  PreState{Branch: "main", DirtyCount: 1, Head: "abc123", StashCount: 0},
		Recovery:  []string{"git reset --hard abc123"},
	}
}

func TestAppendAndReadAll(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "journal.log"))

	require.NoError(t, j.Append(sampleEntry("one")))
	require.NoError(t, j.Append(sampleEntry("two")))

	entries, err := j.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].ID)
	assert.Equal(t, "two", entries[1].ID)
	assert.Equal(t, "reset_hard", entries[0].Category)
	assert.Equal(t, "abc123", entries[0].PreState.Head)
}

func TestReadAll_MissingFile(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "journal.log"))
	entries, err := j.ReadAll()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestReadAll_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	j := New(path)

	require.NoError(t, j.Append(sampleEntry("good")))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	f.WriteString("{corrupted\n")
	f.Close()

	require.NoError(t, j.Append(sampleEntry("after")))

	entries, err := j.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestAppend_ConcurrentWritersProduceExactRecords(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "journal.log"))

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := sampleEntry(NewID())
			require.NoError(t, j.Append(e))
		}(i)
	}
	wg.Wait()

	entries, err := j.ReadAll()
	require.NoError(t, err)
	assert.Len(t, entries, n, "concurrent appends must not lose or corrupt records")

	seen := map[string]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.ID], "duplicate entry %s", e.ID)
		seen[e.ID] = true
	}
}

func TestEntry_KeysLexicographic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	j := New(path)
	require.NoError(t, j.Append(sampleEntry("x")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)

	keys := []string{`"argv"`, `"backups"`, `"category"`, `"created_at"`,
		`"cwd"`, `"hint"`, `"id"`, `"impact"`, `"mode"`, `"pre_state"`, `"recovery"`}
	last := -1
	for _, k := range keys {
		idx := strings.Index(line, k)
		require.GreaterOrEqual(t, idx, 0, "key %s missing", k)
		assert.Greater(t, idx, last, "key %s out of order", k)
		last = idx
	}
}

func TestMarkFailed_AppendsFollowUp(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "journal.log"))

	e := sampleEntry("x")
	require.NoError(t, j.Append(e))
	require.NoError(t, j.MarkFailed(e))

	entries, err := j.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Outcome)
	assert.Equal(t, "failed", entries[1].Outcome)
	assert.Equal(t, "x", entries[1].ID)
}

func TestTail(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "journal.log"))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, j.Append(sampleEntry(id)))
	}

	tail, err := j.Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "c", tail[0].ID)
	assert.Equal(t, "b", tail[1].ID)
}

func TestBuildRecovery_ResetHard(t *testing.T) {
	snap := &gitexec.Snapshot{Head: "abc123", Branch: "main"}
	arts := []backup.Artifact{{Kind: "stash", Ref: "stash@{0}"}}

	lines := BuildRecovery(classify.ResetHard, snap, arts)
	require.Len(t, lines, 2)
	assert.Equal(t, "git reset --hard abc123", lines[0])
	assert.Contains(t, lines[1], "git stash pop")
	assert.Contains(t, lines[1], "stash@{0}")
}

func TestBuildRecovery_BranchDelete(t *testing.T) {
	snap := &gitexec.Snapshot{Head: "abc123"}
	arts := []backup.Artifact{{
		Kind: "text",
		Refs: map[string]string{"refs/heads/feature": "def456"},
	}}

	lines := BuildRecovery(classify.BranchDelete, snap, arts)
	require.Len(t, lines, 1)
	assert.Equal(t, "git update-ref refs/heads/feature def456", lines[0])
}

func TestBuildRecovery_CleanForce(t *testing.T) {
	snap := &gitexec.Snapshot{}
	arts := []backup.Artifact{{Kind: "archive", Path: "/repo/.safe/backups/safe-backup-x.zip"}}

	lines := BuildRecovery(classify.CleanForce, snap, arts)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "unzip")
	assert.Contains(t, lines[0], "safe-backup-x.zip")
}

func TestBuildRecovery_QuotesSpecialTokens(t *testing.T) {
	snap := &gitexec.Snapshot{Head: "abc"}
	arts := []backup.Artifact{{
		Kind: "text",
		Refs: map[string]string{"refs/heads/my branch": "def"},
	}}

	lines := BuildRecovery(classify.BranchDelete, snap, arts)
	require.Len(t, lines, 1)
	// a ref containing whitespace must be quoted to stay one token
	assert.NotContains(t, lines[0], " my branch ", "unquoted space in %q", lines[0])
	assert.Contains(t, lines[0], "my branch")
}

func TestHint_CoversCategories(t *testing.T) {
	for _, cat := range []classify.Category{
		classify.ResetHard, classify.CleanForce, classify.PushForce,
		classify.StashDestroy, classify.GCPrune, classify.FilterHistory,
	} {
		if Hint(cat, true) == "" {
			t.Errorf("no hint for %s", cat)
		}
	}
}
