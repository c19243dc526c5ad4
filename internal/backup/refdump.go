package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/safegit/safegit/internal/fsio"
	"github.com/safegit/safegit/internal/gitexec"
)

// CreateRefDump writes a plain-text snapshot of the named references (their
// resolved commit ids, plus patch text for stash refs) to a file under
// backupDir. section labels what is being captured, e.g. "refs/heads/main"
// or "stash".
func CreateRefDump(ctx context.Context, r gitexec.Runner, backupDir, section string, refs []string) (*Artifact, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s snapshot taken %s\n", section, timestamp())

	values := make(map[string]string, len(refs))
	for _, ref := range refs {
		val, err := gitexec.RefValue(ctx, r, ref)
		if err != nil {
			return nil, fmt.Errorf("ref dump: resolve %s: %w", ref, err)
		}
		values[ref] = val
		fmt.Fprintf(&b, "%s %s\n", ref, val)

		if strings.HasPrefix(ref, "stash@{") {
			patch, err := r.Run(ctx, "stash", "show", "-p", ref)
			if err != nil {
				return nil, fmt.Errorf("ref dump: stash patch %s: %w", ref, err)
			}
			b.WriteString(patch)
			if !strings.HasSuffix(patch, "\n") {
				b.WriteByte('\n')
			}
		}
	}

	path := filepath.Join(backupDir, artifactName(".txt"))
	data := []byte(b.String())
	if err := fsio.AtomicWrite(path, data); err != nil {
		return nil, fmt.Errorf("ref dump: %w", err)
	}

	// Verify by reading back.
	read, err := os.ReadFile(path)
	if err != nil || len(read) != len(data) {
		os.Remove(path)
		return nil, fmt.Errorf("ref dump: verification failed for %s", path)
	}

	return &Artifact{
		Kind:      "text",
		Path:      path,
		Section:   section,
		Bytes:     int64(len(data)),
		Refs:      values,
		CreatedAt: timestamp(),
		Verified:  true,
	}, nil
}
