package safety

import (
	"fmt"
	"strings"

	"github.com/safegit/safegit/internal/classify"
	"github.com/safegit/safegit/internal/contextstore"
	"github.com/safegit/safegit/internal/execmode"
)

// analyzer computes a report for one category.
type analyzer func(in Input) Report

// analyzers is keyed by category tag; the classifier's tag selects the
// entry, mirroring the handler dispatch.
var analyzers = map[classify.Category]analyzer{
	classify.ResetHard:            analyzeResetHard,
	classify.CleanForce:           analyzeCleanForce,
	classify.CheckoutForce:        analyzeWorktreeDiscard,
	classify.SwitchDiscard:        analyzeWorktreeDiscard,
	classify.PushForce:            analyzePushForce,
	classify.PushDestructive:      analyzePushDestructive,
	classify.BranchDelete:         analyzeBranchDelete,
	classify.StashDestroy:         analyzeStashDestroy,
	classify.GCPrune:              analyzeGCPrune,
	classify.ReflogExpire:         analyzeReflogExpire,
	classify.UpdateRefDelete:      analyzeUpdateRefDelete,
	classify.FilterHistory:        analyzeFilterHistory,
	classify.CommitAmend:          analyzeCommitAmend,
	classify.Rebase:               analyzeRebase,
	classify.WorktreeRemove:       analyzeWorktreeRemove,
	classify.MergeOurs:            analyzeMergeOurs,
	classify.TagDelete:            analyzeTagDelete,
	classify.NotesRemove:          analyzeSimpleMedium("notes are removed permanently; git notes has no reflog"),
	classify.ReplaceDelete:        analyzeSimpleMedium("replace refs change how history is presented everywhere"),
	classify.RemoteRemove:         analyzeRemoteRemove,
	classify.SubmoduleDeinit:      analyzeSimpleMedium("deinit discards the submodule working tree"),
	classify.SparseCheckoutChange: analyzeSimpleMedium("sparse-checkout changes rewrite the working tree layout"),
}

// Analyze runs the category analyzer and applies environment escalation.
// The returned risk never drops below the category floor.
func Analyze(in Input) Report {
	fn, ok := analyzers[in.Category]
	if !ok {
		return Report{Risk: classify.Low}
	}
	rep := fn(in)
	rep.Risk = classify.Max(rep.Risk, minRiskFor(in, rep))
	rep.Risk = contextstore.EscalateRisk(in.Ctx, rep.Risk)

	// An escalated Critical never keeps a weaker challenge than a typed
	// phrase.
	if rep.Risk == classify.Critical && rep.Confirmation.Kind < ConfirmTypedPhrase {
		rep.Confirmation = Confirmation{Kind: ConfirmTypedPhrase, Phrase: "PROCEED"}
	}
	return rep
}

// minRiskFor keeps the category floor, honoring the documented exceptions
// where the analyzer may sit below it (clean tree reset, unpushed amend).
func minRiskFor(in Input, rep Report) classify.Risk {
	switch in.Category {
	case classify.ResetHard, classify.CheckoutForce, classify.SwitchDiscard:
		if len(in.Snap.Dirty) == 0 {
			return classify.Medium
		}
	case classify.StashDestroy:
		if len(in.Snap.Stashes) == 0 {
			return classify.Medium
		}
	case classify.CommitAmend:
		return classify.Low
	case classify.Rebase:
		return classify.Low
	}
	return in.Floor
}

func analyzeResetHard(in Input) Report {
	rep := Report{
		Risk:           classify.High,
		RequiresBackup: true,
		BackupKind:     BackupStash,
		Confirmation:   Confirmation{Kind: ConfirmTypedPhrase, Phrase: "PROCEED"},
		Alternatives: []string{
			"stash push (recoverable with stash pop)",
			"reset --soft " + targetOperand(in.Argv, "HEAD"),
		},
	}

	rep.Impact.Files = uint64(len(in.Snap.Dirty))
	rep.Impact.Lines = uint64(in.Snap.DirtyLines())

	if len(in.Snap.Dirty) == 0 {
		rep.Risk = classify.Medium
		rep.RequiresBackup = false
		rep.BackupKind = BackupNone
		rep.Confirmation = Confirmation{Kind: ConfirmYesNo}
		rep.Warnings = append(rep.Warnings, "working tree is clean; reset moves HEAD only")
		return rep
	}

	rep.Warnings = append(rep.Warnings, fmt.Sprintf(
		"discards uncommitted changes in %d file(s), %d line(s) total",
		len(in.Snap.Dirty), in.Snap.DirtyLines()))
	return rep
}

func analyzeCleanForce(in Input) Report {
	rep := Report{
		Risk:           classify.High,
		RequiresBackup: true,
		BackupKind:     BackupArchive,
		Confirmation:   Confirmation{Kind: ConfirmTypedPhrase, Phrase: "DELETE"},
		Alternatives: []string{
			"clean -n (dry run: list what would be deleted)",
			"stash push --include-untracked",
		},
	}

	counts := map[FileClass]int{}
	for _, f := range in.Snap.Untracked {
		counts[ClassifyFile(f.Path)]++
	}
	rep.Impact.Files = uint64(len(in.Snap.Untracked))
	rep.Impact.Bytes = uint64(in.Snap.UntrackedBytes())

	for _, class := range []FileClass{ClassSource, ClassConfig, ClassBuild, ClassLog, ClassOther} {
		if n := counts[class]; n > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d %s file(s) would be deleted", n, class))
		}
	}

	if sensitive := SensitiveUntracked(in.Snap.Untracked, in.ExtraSensitivePatterns); len(sensitive) > 0 {
		rep.Risk = classify.Critical
		rep.Confirmation = Confirmation{
			Kind:    ConfirmDoubleTypedPhrase,
			Phrase:  "DELETE",
			Phrase2: in.Snap.Branch,
		}
		rep.Warnings = append(rep.Warnings, fmt.Sprintf(
			"sensitive file(s) would be deleted: %s", strings.Join(sensitive, ", ")))
	}
	return rep
}

func analyzeWorktreeDiscard(in Input) Report {
	rep := Report{
		Risk:           classify.High,
		RequiresBackup: true,
		BackupKind:     BackupStash,
		Confirmation:   Confirmation{Kind: ConfirmTypedPhrase, Phrase: "PROCEED"},
		Alternatives:   []string{"stash push (keep the changes recoverable)"},
	}
	rep.Impact.Files = uint64(len(in.Snap.Dirty))
	rep.Impact.Lines = uint64(in.Snap.DirtyLines())

	if len(in.Snap.Dirty) == 0 {
		rep.Risk = classify.Medium
		rep.RequiresBackup = false
		rep.BackupKind = BackupNone
		rep.Confirmation = Confirmation{Kind: ConfirmYesNo}
		return rep
	}
	rep.Warnings = append(rep.Warnings, fmt.Sprintf(
		"overwrites uncommitted changes in %d file(s)", len(in.Snap.Dirty)))
	return rep
}

func analyzePushForce(in Input) Report {
	rep := Report{
		Risk:         classify.High,
		Confirmation: Confirmation{Kind: ConfirmTypedPhrase, Phrase: "FORCE PUSH"},
		Alternatives: []string{"push --force-with-lease (fails if the remote moved)"},
	}

	if div := in.Snap.Upstream; div != nil {
		rep.Impact.Commits = uint64(div.Behind)
		if div.Behind > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf(
				"remote is %d commit(s) ahead; a force push discards them", div.Behind))
		}
	} else {
		rep.Warnings = append(rep.Warnings, "no upstream tracking info; remote divergence unknown")
	}

	branch := pushTargetBranch(in.Argv, in.Snap.Branch)
	if IsProtectedBranch(branch, in.Snap.RemoteURL, in.ExtraProtectedBranches) {
		rep.Risk = classify.Critical
		rep.Confirmation = Confirmation{
			Kind:    ConfirmDoubleTypedPhrase,
			Phrase:  "I understand the protection risks",
			Phrase2: branch,
		}
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%q is a protected branch", branch))
	}

	// Convert to the lease-guarded variant unless the caller already chose
	// a force flavor explicitly safer or equally explicit.
	if rewritten, changed := rewriteForceWithLease(in.Argv); changed {
		rep.RewrittenArgv = rewritten
		rep.Warnings = append(rep.Warnings,
			"converted --force to --force-with-lease; use --force-yes with the original flag to override")
	}
	return rep
}

func analyzePushDestructive(in Input) Report {
	phrase := "DELETE REMOTE"
	warning := "deletes the remote branch; open pull requests against it will close"
	if in.hasFlag("--mirror") {
		phrase = "MIRROR PUSH"
		warning = "overwrites every remote ref with the local state, deleting anything absent locally"
	}
	return Report{
		Risk:         classify.Critical,
		Confirmation: Confirmation{Kind: ConfirmTypedPhrase, Phrase: phrase},
		Warnings:     []string{warning},
	}
}

func analyzeBranchDelete(in Input) Report {
	branch := lastOperand(in.Argv)
	rep := Report{
		Risk:           classify.Medium,
		RequiresBackup: true,
		BackupKind:     BackupRefDump,
		Confirmation:   Confirmation{Kind: ConfirmYesNo},
	}
	if branch != "" {
		rep.DumpRefs = []string{"refs/heads/" + branch}
	}
	if in.hasFlag("-D") {
		rep.Risk = classify.High
		rep.Warnings = append(rep.Warnings, "-D deletes the branch even with unmerged commits")
		rep.Confirmation = Confirmation{Kind: ConfirmTypedPhrase, Phrase: "PROCEED"}
	}
	if IsProtectedBranch(branch, in.Snap.RemoteURL, in.ExtraProtectedBranches) {
		rep.Risk = classify.Critical
		rep.Confirmation = Confirmation{Kind: ConfirmBranchNameEcho, Branch: branch}
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%q is a protected branch", branch))
	}
	return rep
}

func analyzeStashDestroy(in Input) Report {
	rep := Report{
		Risk:           classify.High,
		RequiresBackup: true,
		BackupKind:     BackupRefDump,
		Confirmation:   Confirmation{Kind: ConfirmTypedPhrase, Phrase: "CLEAR STASH"},
	}
	rep.Impact.Files = uint64(len(in.Snap.Stashes))
	if len(in.Snap.Stashes) == 0 {
		rep.Risk = classify.Medium
		rep.RequiresBackup = false
		rep.BackupKind = BackupNone
		rep.Confirmation = Confirmation{Kind: ConfirmYesNo}
		rep.Warnings = append(rep.Warnings, "stash list is empty; nothing to destroy")
		return rep
	}
	for _, s := range in.Snap.Stashes {
		rep.DumpRefs = append(rep.DumpRefs, s.Ref)
	}
	rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d stash entr(ies) become unreachable", len(in.Snap.Stashes)))
	return rep
}

func analyzeGCPrune(in Input) Report {
	rep := Report{
		Risk:         classify.High,
		Confirmation: Confirmation{Kind: ConfirmTypedPhrase, Phrase: "PRUNE OBJECTS"},
		Warnings:     []string{"pruned objects are unrecoverable; dangling commits vanish from the reflog's reach"},
		Alternatives: []string{"gc --prune=2.weeks.ago (keep a recovery window)"},
	}

	// --prune=now loses every dangling object immediately; soften it unless
	// the caller explicitly forced.
	if in.Mode != execmode.ForceYes {
		if rewritten, changed := rewritePruneWindow(in.Argv); changed {
			rep.RewrittenArgv = rewritten
			rep.Warnings = append(rep.Warnings,
				"converted --prune=now to --prune=1.hour.ago; use --force-yes to prune immediately")
		}
	}
	return rep
}

func analyzeReflogExpire(in Input) Report {
	return Report{
		Risk:           classify.Critical,
		RequiresBackup: true,
		BackupKind:     BackupRefDump,
		DumpRefs:       []string{"HEAD"},
		Confirmation:   Confirmation{Kind: ConfirmTypedPhrase, Phrase: "EXPIRE REFLOG"},
		Warnings:       []string{"the reflog is the last-resort recovery net; expiring it removes that net"},
	}
}

func analyzeUpdateRefDelete(in Input) Report {
	ref := lastOperand(in.Argv)
	rep := Report{
		Risk:           classify.Critical,
		RequiresBackup: true,
		BackupKind:     BackupRefDump,
		Confirmation:   Confirmation{Kind: ConfirmTypedPhrase, Phrase: "DELETE REFERENCE"},
	}
	if ref != "" {
		rep.DumpRefs = []string{ref}
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("deletes reference %s directly, bypassing branch safety checks", ref))
	}
	return rep
}

func analyzeFilterHistory(in Input) Report {
	rep := Report{
		Risk: classify.Critical,
		Confirmation: Confirmation{
			Kind:    ConfirmDoubleTypedPhrase,
			Phrase:  "REWRITE HISTORY",
			Phrase2: in.Snap.Branch,
		},
		Warnings: []string{"history filtering rewrites every affected commit id; all clones must re-fetch"},
	}
	// Blocked by default; only an explicit ForceYes overrides.
	if in.Mode != execmode.ForceYes {
		rep.Blocked = true
		rep.BlockedReason = "history rewriting is blocked by default; rerun with --force-yes to override"
	}
	return rep
}

func analyzeCommitAmend(in Input) Report {
	div := in.Snap.Upstream
	// Unpushed HEAD: amending is routine.
	if div == nil || div.Ahead > 0 {
		return Report{
			Risk:         classify.Low,
			Impact:       Impact{Commits: 1},
			Confirmation: Confirmation{Kind: ConfirmNone},
		}
	}
	return Report{
		Risk:         classify.Medium,
		Impact:       Impact{Commits: 1},
		Confirmation: Confirmation{Kind: ConfirmYesNo},
		Warnings:     []string{"HEAD is already pushed; amending rewrites published history"},
		Alternatives: []string{"commit --fixup HEAD (rebase later)", "revert (keep history append-only)"},
	}
}

func analyzeRebase(in Input) Report {
	// Continuations of an in-progress rebase are not new surgery.
	for _, a := range in.Argv {
		switch a {
		case "--continue", "--abort", "--skip", "--quit", "--edit-todo", "--show-current-patch":
			return Report{Risk: classify.Low, Confirmation: Confirmation{Kind: ConfirmNone}}
		}
	}

	rep := Report{
		Risk:         classify.Medium,
		Confirmation: Confirmation{Kind: ConfirmYesNo},
		Alternatives: []string{"merge (keeps both histories intact)"},
	}
	if div := in.Snap.Upstream; div != nil {
		rep.Impact.Commits = uint64(div.Ahead)
		if div.Ahead == 0 && in.Snap.Head != "" {
			rep.Warnings = append(rep.Warnings, "branch is fully pushed; rebasing rewrites published commits")
			rep.Risk = classify.High
			rep.Confirmation = Confirmation{Kind: ConfirmTypedPhrase, Phrase: "PROCEED"}
		}
	}
	if len(in.Snap.Dirty) > 0 {
		rep.Warnings = append(rep.Warnings, "working tree is dirty; stash before rebasing")
	}
	return rep
}

func analyzeWorktreeRemove(in Input) Report {
	rep := Report{
		Risk:         classify.Medium,
		Confirmation: Confirmation{Kind: ConfirmYesNo},
	}
	if in.hasFlag("--force") || in.hasFlag("-f") {
		rep.Risk = classify.High
		rep.Confirmation = Confirmation{Kind: ConfirmTypedPhrase, Phrase: "PROCEED"}
		rep.Warnings = append(rep.Warnings, "--force removes the worktree even with uncommitted changes")
	}
	return rep
}

func analyzeMergeOurs(in Input) Report {
	return Report{
		Risk:         classify.Medium,
		Confirmation: Confirmation{Kind: ConfirmYesNo},
		Warnings:     []string{"the ours strategy silently discards every change from the other branch"},
		Alternatives: []string{"merge -X ours (prefer ours only on conflicts)"},
	}
}

func analyzeTagDelete(in Input) Report {
	tag := lastOperand(in.Argv)
	rep := Report{
		Risk:           classify.Medium,
		RequiresBackup: true,
		BackupKind:     BackupRefDump,
		Confirmation:   Confirmation{Kind: ConfirmYesNo},
	}
	if tag != "" {
		rep.DumpRefs = []string{"refs/tags/" + tag}
	}
	return rep
}

func analyzeRemoteRemove(in Input) Report {
	return Report{
		Risk:           classify.Medium,
		RequiresBackup: true,
		BackupKind:     BackupRefDump,
		DumpRefs:       []string{"HEAD"},
		Confirmation:   Confirmation{Kind: ConfirmYesNo},
		Warnings:       []string{"removes the remote and all its remote-tracking refs"},
	}
}

func analyzeSimpleMedium(warning string) analyzer {
	return func(in Input) Report {
		return Report{
			Risk:         classify.Medium,
			Confirmation: Confirmation{Kind: ConfirmYesNo},
			Warnings:     []string{warning},
		}
	}
}

// targetOperand returns the last non-flag operand, or fallback.
func targetOperand(argv []string, fallback string) string {
	if op := lastOperand(argv); op != "" {
		return op
	}
	return fallback
}

// lastOperand returns the final non-flag token after the subcommand.
func lastOperand(argv []string) string {
	for i := len(argv) - 1; i >= 1; i-- {
		if !strings.HasPrefix(argv[i], "-") {
			return argv[i]
		}
	}
	return ""
}

// pushTargetBranch extracts the branch being pushed: the last refspec
// operand if present, otherwise the current branch.
func pushTargetBranch(argv []string, current string) string {
	var operands []string
	for _, a := range argv[1:] {
		if !strings.HasPrefix(a, "-") {
			operands = append(operands, a)
		}
	}
	// first operand is the remote; a second is the refspec
	if len(operands) >= 2 {
		ref := operands[len(operands)-1]
		ref = strings.TrimPrefix(ref, "+")
		if i := strings.Index(ref, ":"); i >= 0 {
			ref = ref[i+1:]
		}
		return ref
	}
	return current
}

// rewriteForceWithLease swaps --force/-f for --force-with-lease in a fresh
// vector. Returns (argv, false) when no conversion applies.
func rewriteForceWithLease(argv []string) ([]string, bool) {
	changed := false
	out := make([]string, len(argv))
	for i, a := range argv {
		if a == "--force" || a == "-f" {
			out[i] = "--force-with-lease"
			changed = true
			continue
		}
		out[i] = a
	}
	if !changed {
		return nil, false
	}
	return out, true
}

// rewritePruneWindow softens --prune / --prune=now / --prune=all to a
// one-hour recovery window.
func rewritePruneWindow(argv []string) ([]string, bool) {
	changed := false
	out := make([]string, len(argv))
	for i, a := range argv {
		switch a {
		case "--prune", "--prune=now", "--prune=all":
			out[i] = "--prune=1.hour.ago"
			changed = true
		default:
			out[i] = a
		}
	}
	if !changed {
		return nil, false
	}
	return out, true
}
