package backup

import (
	"context"
	"fmt"
	"strings"

	"github.com/safegit/safegit/internal/gitexec"
)

// CreateStash snapshots the working tree (tracked and untracked) into a
// stash and verifies the entry landed by reading the stash list back.
func CreateStash(ctx context.Context, r gitexec.Runner) (*Artifact, error) {
	msg := fmt.Sprintf("%s %s", StashMessagePrefix, timestamp())

	if _, err := r.Run(ctx, "stash", "push", "--include-untracked", "--message", msg); err != nil {
		return nil, fmt.Errorf("create stash: %w", err)
	}

	entries, err := gitexec.StashList(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("verify stash: %w", err)
	}
	if len(entries) == 0 || !strings.Contains(entries[0].Message, StashMessagePrefix) {
		return nil, fmt.Errorf("verify stash: auto-backup entry not found at stash@{0}")
	}

	return &Artifact{
		Kind:      "stash",
		Ref:       entries[0].Ref,
		Message:   entries[0].Message,
		CreatedAt: timestamp(),
		Verified:  true,
	}, nil
}
