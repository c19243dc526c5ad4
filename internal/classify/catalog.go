package classify

import "regexp"

// Entry binds one pattern to a category and its risk floor. Patterns run
// against the normalized, space-joined argv in catalog order; the first
// match wins, so more specific destructive forms precede generic ones
// (push --mirror before push --force before plain push).
type Entry struct {
	Category Category
	Risk     Risk
	pattern  *regexp.Regexp
}

// Go's RE2 has no lookahead, so the safer-sibling exclusions the catalog
// needs (--force vs --force-with-lease, --prune=now vs --prune=<age>) are
// expressed with token boundaries: every flag is matched as a whole
// space-delimited token, which a longer safe sibling can never satisfy.
const (
	tok    = `(^|\s)`    // token start
	endTok = `(\s|$)`    // token end
	rest   = `(\s\S+)*?` // any intervening tokens, lazily
)

var catalog = []Entry{
	// push --mirror / --delete before any generic force-push rule.
	{PushDestructive, Critical, re(`^push` + rest + tok + `(--mirror|--delete|-d)` + endTok)},
	// --force as a whole token; --force-with-lease and --force-if-includes
	// are longer tokens and fall through to passthrough.
	{PushForce, High, re(`^push` + rest + tok + `(--force|-f)` + endTok)},
	// A leading + on a refspec is a per-ref force push.
	{PushForce, High, re(`^push` + rest + tok + `\+\S+` + endTok)},

	{ResetHard, High, re(`^reset` + rest + tok + `--hard` + endTok)},

	// clean needs -f/--force to delete at all; bundled short flags (-fdx)
	// count.
	{CleanForce, High, re(`^clean` + rest + tok + `(-[a-eg-zA-Z]*f[a-zA-Z]*|--force)` + endTok)},

	{CheckoutForce, High, re(`^checkout` + rest + tok + `(--force|-f)` + endTok)},
	// checkout with a pathspec separator overwrites working-tree files.
	{CheckoutForce, High, re(`^checkout` + rest + tok + `--` + endTok)},

	{SwitchDiscard, High, re(`^switch` + rest + tok + `(--discard-changes|--force|-f)` + endTok)},

	{BranchDelete, Medium, re(`^branch` + rest + tok + `(-D|--delete|-d)` + endTok)},

	{StashDestroy, High, re(`^stash\s+(drop|clear)` + endTok)},

	// --prune with no age, =now, or =all reaps immediately; an age operand
	// like --prune=2.weeks.ago is a different token and stays passthrough.
	{GCPrune, High, re(`^gc` + rest + tok + `--prune(=now|=all)?` + endTok)},

	{ReflogExpire, Critical, re(`^reflog\s+(expire|delete)` + endTok)},

	{UpdateRefDelete, Critical, re(`^update-ref` + rest + tok + `(-d|--delete)` + endTok)},

	{FilterHistory, Critical, re(`^(filter-branch|filter-repo)` + endTok)},

	{CommitAmend, Medium, re(`^commit` + rest + tok + `--amend` + endTok)},

	{Rebase, Medium, re(`^rebase` + endTok)},

	{WorktreeRemove, Medium, re(`^worktree\s+(remove|prune)` + endTok)},

	{MergeOurs, Medium, re(`^merge` + rest + tok + `(-s\s+ours|--strategy=ours|--strategy\s+ours)` + endTok)},

	{TagDelete, Medium, re(`^tag` + rest + tok + `(-d|--delete)` + endTok)},

	{NotesRemove, Medium, re(`^notes\s+(remove|prune)` + endTok)},

	{ReplaceDelete, Medium, re(`^replace` + rest + tok + `(-d|--delete)` + endTok)},

	{RemoteRemove, Medium, re(`^remote\s+(remove|rm)` + endTok)},

	{SubmoduleDeinit, Medium, re(`^submodule\s+deinit` + endTok)},

	{SparseCheckoutChange, Medium, re(`^sparse-checkout\s+(set|add|reapply|init|disable)` + endTok)},
}

func re(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}

// Catalog returns the published pattern order (for tests and docs).
func Catalog() []Entry {
	return catalog
}
