package journal

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/safegit/safegit/internal/backup"
	"github.com/safegit/safegit/internal/classify"
	"github.com/safegit/safegit/internal/gitexec"
)

// BuildRecovery generates the VCS invocation lines that would restore the
// pre-operation state for one category. Lines are shell-quoted so an
// operator can paste them verbatim.
func BuildRecovery(cat classify.Category, snap *gitexec.Snapshot, artifacts []backup.Artifact) []string {
	var lines []string

	stashRef := ""
	for _, a := range artifacts {
		if a.Kind == "stash" {
			stashRef = a.Ref
		}
	}

	switch cat {
	case classify.ResetHard, classify.CheckoutForce, classify.SwitchDiscard:
		if snap.Head != "" {
			lines = append(lines, gitLine("reset", "--hard", snap.Head))
		}
		if stashRef != "" {
			lines = append(lines, gitLine("stash", "pop", stashRef))
		}

	case classify.CleanForce:
		for _, a := range artifacts {
			if a.Kind == "archive" {
				lines = append(lines, shellLine("unzip", "-o", a.Path, "-d", "."))
			}
		}

	case classify.Rebase, classify.CommitAmend, classify.MergeOurs, classify.FilterHistory:
		if snap.Head != "" {
			lines = append(lines, gitLine("reset", "--hard", snap.Head))
		}

	case classify.BranchDelete, classify.UpdateRefDelete, classify.TagDelete, classify.ReflogExpire:
		for _, a := range artifacts {
			for ref, sha := range a.Refs {
				lines = append(lines, gitLine("update-ref", ref, sha))
			}
		}

	case classify.StashDestroy:
		for _, a := range artifacts {
			for ref, sha := range a.Refs {
				lines = append(lines, gitLine("stash", "store", "--message",
					fmt.Sprintf("restored %s", ref), sha))
			}
		}

	case classify.PushForce, classify.PushDestructive:
		// Nothing local changed; restoring the remote needs the old tip,
		// which survives in collaborators' clones and the remote reflog.
		if snap.Upstream != nil && snap.Branch != "" {
			lines = append(lines, gitLine("push", "--force-with-lease", "origin",
				fmt.Sprintf("%s@{1}:%s", snap.Branch, snap.Branch)))
		}

	case classify.RemoteRemove:
		if snap.RemoteURL != "" {
			lines = append(lines, gitLine("remote", "add", "origin", snap.RemoteURL))
		}
	}

	return lines
}

// Hint returns the post-action recovery guidance for a category.
func Hint(cat classify.Category, stashCreated bool) string {
	switch cat {
	case classify.ResetHard, classify.CheckoutForce, classify.SwitchDiscard:
		if stashCreated {
			return "your changes were stashed first; `git stash pop` restores them"
		}
		return "use `git reflog` to locate the previous HEAD if needed"
	case classify.CleanForce:
		return "deleted untracked files were archived under .safe/backups/"
	case classify.CommitAmend, classify.Rebase, classify.MergeOurs:
		return "the previous HEAD is reachable via `git reflog` (HEAD@{1})"
	case classify.PushForce:
		return "the remote's previous tip survives in the remote reflog; contact a collaborator if you need it"
	case classify.PushDestructive:
		return "remote refs were overwritten; restoring requires a clone that still has the old tips"
	case classify.BranchDelete, classify.TagDelete, classify.UpdateRefDelete:
		return "the deleted reference's commit id is recorded in the journal and .safe/backups/"
	case classify.StashDestroy:
		return "stash contents were dumped to .safe/backups/ before destruction"
	case classify.GCPrune:
		return "objects pruned by gc are unrecoverable; the prune window limits the loss"
	case classify.ReflogExpire:
		return "reference values before expiry are recorded in .safe/backups/"
	case classify.FilterHistory:
		return "the pre-rewrite HEAD is recorded in the journal; `git reset --hard` restores it locally"
	}
	return "see `safegit undo` for the recorded recovery steps"
}

func gitLine(args ...string) string {
	return shellLine(append([]string{"git"}, args...)...)
}

// shellLine joins argv into a copy-pasteable shell line, quoting every token
// that needs it.
func shellLine(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			// Unprintable input cannot be quoted; fall back to the raw
			// token rather than dropping the line.
			q = a
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
