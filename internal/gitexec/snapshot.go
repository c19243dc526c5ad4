package gitexec

import "context"

// Snapshot is the read-only repository capture built at handler entry and
// discarded on exit. Fields a handler never reads are still populated; the
// capture is cheap and a uniform shape keeps the analyzers simple.
type Snapshot struct {
	Head      string
	Branch    string
	Dirty     []DirtyFile
	Untracked []UntrackedFile
	Stashes   []StashEntry
	Upstream  *Divergence // nil when no upstream is configured
	ReflogTip string
	RemoteURL string // fetch URL of "origin", or "" when absent
}

// DirtyLines sums added+removed lines across dirty files.
func (s *Snapshot) DirtyLines() int {
	total := 0
	for _, f := range s.Dirty {
		total += f.Added + f.Removed
	}
	return total
}

// UntrackedBytes sums untracked file sizes.
func (s *Snapshot) UntrackedBytes() int64 {
	var total int64
	for _, f := range s.Untracked {
		total += f.Size
	}
	return total
}

// TakeSnapshot runs every probe once. Individual probe failures surface as
// errors; the handler decides whether the operation can proceed without the
// missing observation.
func TakeSnapshot(ctx context.Context, r Runner) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error

	if snap.Head, err = HeadCommit(ctx, r); err != nil {
		return nil, err
	}
	if snap.Branch, err = CurrentBranch(ctx, r); err != nil {
		return nil, err
	}
	if snap.Dirty, err = DirtyFiles(ctx, r); err != nil {
		return nil, err
	}
	if snap.Untracked, err = UntrackedFiles(ctx, r); err != nil {
		return nil, err
	}
	if snap.Stashes, err = StashList(ctx, r); err != nil {
		return nil, err
	}
	if snap.Upstream, err = UpstreamDivergence(ctx, r); err != nil {
		return nil, err
	}
	if snap.ReflogTip, err = ReflogTip(ctx, r); err != nil {
		return nil, err
	}
	if snap.RemoteURL, err = RemoteURL(ctx, r, "origin"); err != nil {
		return nil, err
	}
	return snap, nil
}
