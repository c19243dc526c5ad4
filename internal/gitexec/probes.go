package gitexec

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DirtyFile is one tracked file with uncommitted modifications.
type DirtyFile struct {
	Path    string
	Added   int
	Removed int
}

// UntrackedFile is one untracked path with its size in bytes.
type UntrackedFile struct {
	Path string
	Size int64
}

// StashEntry is one stash ref with its message.
type StashEntry struct {
	Ref     string // e.g. "stash@{0}"
	Message string
}

// Divergence is the ahead/behind count against the upstream branch.
type Divergence struct {
	Ahead  int
	Behind int
}

// HeadCommit returns the full commit id of HEAD, or "" in an unborn repo.
func HeadCommit(ctx context.Context, r Runner) (string, error) {
	out, err := r.Run(ctx, "rev-parse", "--verify", "-q", "HEAD")
	if err != nil {
		if pe, ok := err.(*ProbeError); ok && pe.Code == 1 {
			return "", nil // unborn branch
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the short branch name, or "HEAD" when detached.
func CurrentBranch(ctx context.Context, r Runner) (string, error) {
	out, err := r.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// DirtyFiles lists modified tracked files with their line deltas, from
// `diff --numstat HEAD` (tab-separated machine output; binary files report
// "-" and count as zero lines).
func DirtyFiles(ctx context.Context, r Runner) ([]DirtyFile, error) {
	out, err := r.Run(ctx, "diff", "--numstat", "HEAD")
	if err != nil {
		if pe, ok := err.(*ProbeError); ok && pe.Code == 128 {
			// No HEAD yet; fall back to the index-less form.
			out, err = r.Run(ctx, "diff", "--numstat")
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	var files []DirtyFile
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		added, _ := strconv.Atoi(parts[0])
		removed, _ := strconv.Atoi(parts[1])
		files = append(files, DirtyFile{Path: parts[2], Added: added, Removed: removed})
	}
	return files, nil
}

// UntrackedFiles lists untracked, non-ignored paths with sizes, from
// `ls-files --others --exclude-standard -z`.
func UntrackedFiles(ctx context.Context, r Runner) ([]UntrackedFile, error) {
	out, err := r.Run(ctx, "ls-files", "--others", "--exclude-standard", "-z")
	if err != nil {
		return nil, err
	}

	var files []UntrackedFile
	for _, p := range strings.Split(out, "\x00") {
		if p == "" {
			continue
		}
		var size int64
		if info, err := os.Stat(filepath.Join(r.RepoRoot(), p)); err == nil && !info.IsDir() {
			size = info.Size()
		}
		files = append(files, UntrackedFile{Path: p, Size: size})
	}
	return files, nil
}

// StashList returns every stash entry, from a fixed --format so the output
// is machine-parseable.
func StashList(ctx context.Context, r Runner) ([]StashEntry, error) {
	out, err := r.Run(ctx, "stash", "list", "--format=%gd%x09%gs")
	if err != nil {
		return nil, err
	}

	var entries []StashEntry
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		e := StashEntry{Ref: parts[0]}
		if len(parts) == 2 {
			e.Message = parts[1]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// UpstreamDivergence returns ahead/behind counts against @{upstream}, or
// nil when the branch has no upstream.
func UpstreamDivergence(ctx context.Context, r Runner) (*Divergence, error) {
	out, err := r.Run(ctx, "rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	if err != nil {
		if pe, ok := err.(*ProbeError); ok && pe.Code == 128 {
			return nil, nil // no upstream configured
		}
		return nil, err
	}

	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 {
		return nil, &ProbeError{Cmd: "rev-list", Code: 0, Stderr: "unexpected --count output: " + strings.TrimSpace(out)}
	}
	behind, _ := strconv.Atoi(fields[0])
	ahead, _ := strconv.Atoi(fields[1])
	return &Divergence{Ahead: ahead, Behind: behind}, nil
}

// ReflogTip returns the newest reflog entry's commit id, or "" when the
// reflog is empty.
func ReflogTip(ctx context.Context, r Runner) (string, error) {
	out, err := r.Run(ctx, "log", "-g", "-1", "--format=%H")
	if err != nil {
		if pe, ok := err.(*ProbeError); ok && pe.Code == 128 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RemoteURL returns the fetch URL of the named remote, or "" when the
// remote does not exist. `git remote get-url` exits 2 for a missing remote;
// any other failure is a real probe error and must surface, since a masked
// URL would silently drop the host-specific protected-branch set.
func RemoteURL(ctx context.Context, r Runner, name string) (string, error) {
	out, err := r.Run(ctx, "remote", "get-url", name)
	if err != nil {
		if pe, ok := err.(*ProbeError); ok && pe.Code == 2 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RefValue resolves a fully qualified reference to its commit id.
func RefValue(ctx context.Context, r Runner, ref string) (string, error) {
	out, err := r.Run(ctx, "rev-parse", "--verify", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
