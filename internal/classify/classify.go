package classify

import (
	"path/filepath"
	"strings"
)

// Normalize produces the space-joined form the catalog matches against.
// The input vector is never mutated. A caller-supplied absolute path in the
// subcommand position (shell wrappers sometimes pass one) is reduced to its
// base name; everything after the subcommand is joined verbatim.
func Normalize(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	parts := make([]string, len(argv))
	parts[0] = filepath.Base(argv[0])
	copy(parts[1:], argv[1:])
	return strings.Join(parts, " ")
}

// Classify matches argv against the catalog in published order and returns
// the first matching category with its risk floor. No match is the
// passthrough sentinel at Low risk.
func Classify(argv []string) (Category, Risk) {
	line := Normalize(argv)
	for _, e := range catalog {
		if e.pattern.MatchString(line) {
			return e.Category, e.Risk
		}
	}
	return Passthrough, Low
}

// Subcommand returns the base subcommand token of argv, or "".
func Subcommand(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return filepath.Base(argv[0])
}

// writeSubcommands are VCS subcommands that mutate the repository, the
// working tree, or a remote. Used by the context-store rule matrix for
// code-freeze enforcement; dangerous categories are a subset of these.
var writeSubcommands = map[string]bool{
	"add": true, "am": true, "apply": true, "branch": true,
	"checkout": true, "cherry-pick": true, "clean": true, "commit": true,
	"fetch": false, "filter-branch": true, "filter-repo": true,
	"gc": true, "merge": true, "mv": true, "notes": true, "pull": true,
	"push": true, "rebase": true, "reflog": true, "remote": true,
	"replace": true, "reset": true, "restore": true, "revert": true,
	"rm": true, "sparse-checkout": true, "stash": true, "submodule": true,
	"switch": true, "tag": true, "update-ref": true, "worktree": true,
}

// IsWrite reports whether argv denotes a write operation. Any non-passthrough
// category is a write; passthrough commands are writes when their base
// subcommand is in the write set with mutating arguments.
func IsWrite(argv []string) bool {
	cat, _ := Classify(argv)
	if cat != Passthrough {
		return true
	}
	sub := Subcommand(argv)
	if !writeSubcommands[sub] {
		return false
	}
	// branch/tag/remote/stash with no operands (or list flags only) are reads.
	switch sub {
	case "branch", "tag", "remote", "stash", "notes", "reflog", "worktree":
		return !isListInvocation(argv)
	}
	return true
}

// IsReadOnlyListing reports whether argv is a read-only listing form of a
// subcommand that doubles as a mutator (branch, tag, remote, stash...).
// The paranoid-mode allowlist uses this to restrict those subcommands to
// their list/show variants.
func IsReadOnlyListing(argv []string) bool {
	return isListInvocation(argv)
}

// isListInvocation reports whether argv is a read-only listing form of a
// subcommand that doubles as a mutator (branch, tag, remote, stash...).
func isListInvocation(argv []string) bool {
	if len(argv) == 1 {
		return true
	}
	for _, a := range argv[1:] {
		switch a {
		case "-l", "--list", "list", "show", "-v", "-vv", "--verbose",
			"-a", "--all", "-r", "--remotes",
			"--show-current", "--points-at", "--contains", "--merged",
			"--no-merged", "--column", "--sort":
			continue
		}
		if strings.HasPrefix(a, "--list") || strings.HasPrefix(a, "--sort=") ||
			strings.HasPrefix(a, "--points-at=") || strings.HasPrefix(a, "--format=") {
			continue
		}
		return false
	}
	return true
}
