// Package classify holds the single source of truth for dangerous-command
// detection: the category tags, the risk ladder, and the ordered pattern
// catalog matched against a normalized argument vector.
package classify

// Category tags one class of destructive operation. Handlers and analyzers
// are selected by tag; the catalog is the only place patterns live.
type Category string

const (
	ResetHard            Category = "reset_hard"
	CleanForce           Category = "clean_force"
	CheckoutForce        Category = "checkout_force"
	PushForce            Category = "push_force"
	PushDestructive      Category = "push_destructive"
	BranchDelete         Category = "branch_delete"
	StashDestroy         Category = "stash_destroy"
	GCPrune              Category = "gc_prune"
	ReflogExpire         Category = "reflog_expire"
	UpdateRefDelete      Category = "update_ref_delete"
	FilterHistory        Category = "filter_history"
	CommitAmend          Category = "commit_amend"
	Rebase               Category = "rebase"
	WorktreeRemove       Category = "worktree_remove"
	SwitchDiscard        Category = "switch_discard"
	MergeOurs            Category = "merge_ours"
	TagDelete            Category = "tag_delete"
	NotesRemove          Category = "notes_remove"
	ReplaceDelete        Category = "replace_delete"
	RemoteRemove         Category = "remote_remove"
	SubmoduleDeinit      Category = "submodule_deinit"
	SparseCheckoutChange Category = "sparse_checkout_change"

	// Passthrough is the sentinel for commands with no dangerous pattern.
	Passthrough Category = "passthrough"
)

// Risk is the four-level risk ladder. Analyzers may raise a category's
// default but never lower it below the floor.
type Risk int

const (
	Low Risk = iota
	Medium
	High
	Critical
)

func (r Risk) String() string {
	switch r {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	}
	return "unknown"
}

// Max returns the higher of two risk levels.
func Max(a, b Risk) Risk {
	if a > b {
		return a
	}
	return b
}
