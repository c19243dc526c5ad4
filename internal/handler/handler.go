// Package handler orchestrates one destructive invocation: permission
// check, snapshot, analysis, warnings, backup, confirmation, journal, VCS.
// The journal append strictly precedes the VCS call, so a crash can leave a
// spurious recovery entry but never an unjournaled state change.
package handler

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/safegit/safegit/internal/backup"
	"github.com/safegit/safegit/internal/classify"
	"github.com/safegit/safegit/internal/config"
	"github.com/safegit/safegit/internal/confirm"
	"github.com/safegit/safegit/internal/contextstore"
	"github.com/safegit/safegit/internal/execmode"
	"github.com/safegit/safegit/internal/gitexec"
	"github.com/safegit/safegit/internal/journal"
	"github.com/safegit/safegit/internal/redact"
	"github.com/safegit/safegit/internal/safety"
)

// Wrapper exit codes.
const (
	ExitOK        = 0
	ExitDenied    = 1
	ExitUsage     = 2
	ExitFailure   = 3 // probe, backup, or I/O failure
	ExitInterrupt = 130
)

var (
	riskColor = map[classify.Risk]*color.Color{
		classify.Low:      color.New(color.FgGreen),
		classify.Medium:   color.New(color.FgYellow),
		classify.High:     color.New(color.FgRed),
		classify.Critical: color.New(color.FgRed, color.Bold),
	}
	headerColor = color.New(color.Bold)
)

// Deps wires a handler run. Out/Err default to the process streams.
type Deps struct {
	Cfg     *config.Config
	Runner  gitexec.Runner
	Store   *contextstore.Store
	Journal *journal.Journal
	Confirm *confirm.Engine
	Mode    execmode.Mode
	Out     io.Writer
	Err     io.Writer
}

func (d *Deps) fillDefaults() {
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Err == nil {
		d.Err = os.Stderr
	}
}

// Execute runs the fixed sequence for one classified destructive command and
// returns the wrapper exit code.
func Execute(ctx context.Context, d Deps, argv []string, cat classify.Category, floor classify.Risk) int {
	d.fillDefaults()

	// 1. Context permission check.
	record, err := d.Store.Load()
	if err != nil {
		fmt.Fprintf(d.Err, "error: cannot read context: %v\n", err)
		return ExitFailure
	}
	verdict := contextstore.IsPermitted(record, argv, cat)
	switch verdict.Decision {
	case contextstore.Deny:
		return denied(d, cat, verdict.Reason, "adjust the context with `safegit set-mode` / `safegit set-env` if this is intentional")
	case contextstore.NeedsElevation:
		if d.Mode != execmode.ForceYes {
			return denied(d, cat, verdict.Reason, "rerun with --force-yes")
		}
	}

	// 2. Repository snapshot.
	snap, err := gitexec.TakeSnapshot(ctx, d.Runner)
	if err != nil {
		fmt.Fprintf(d.Err, "error: %v\n", err)
		return ExitFailure
	}

	// 3. Safety analysis.
	rep := safety.Analyze(safety.Input{
		Argv:                   argv,
		Category:               cat,
		Floor:                  floor,
		Snap:                   snap,
		Ctx:                    record,
		Mode:                   d.Mode,
		ExtraProtectedBranches: d.Cfg.ProtectedBranches,
		ExtraSensitivePatterns: d.Cfg.SensitivePatterns,
	})

	// 4. Warnings and alternatives.
	emitReport(d, argv, cat, rep)

	// 5. Dry run: render the plan, touch nothing.
	if d.Mode == execmode.DryRun {
		renderDryRun(d, argv, rep)
		return ExitOK
	}

	if rep.Blocked {
		return denied(d, cat, rep.BlockedReason, "rerun with --force-yes to override")
	}

	subject := fmt.Sprintf("%s (%s risk)", strings.Join(argv, " "), rep.Risk)

	// Non-interactive modes resolve the confirmation deterministically; do
	// it before creating artifacts so an auto-denied run leaves no residue.
	var outcome confirm.Outcome
	preDecided := d.Mode != execmode.Interactive
	if preDecided {
		outcome = d.Confirm.Decide(rep.Confirmation, subject)
		if !outcome.Accepted {
			return denied(d, cat, outcome.Reason, "")
		}
	}

	// 6. Backup artifacts, verified before anything destructive runs.
	artifacts, err := createBackups(ctx, d, snap, rep)
	if err != nil {
		fmt.Fprintf(d.Err, "error: backup failed, aborting: %v\n", err)
		return ExitFailure
	}

	// 7. Interactive confirmation happens after the backup exists.
	if !preDecided {
		outcome = d.Confirm.Decide(rep.Confirmation, subject)
		if !outcome.Accepted {
			return denied(d, cat, outcome.Reason, "")
		}
	}

	// 8. Journal before the VCS runs.
	execArgv := argv
	if rep.RewrittenArgv != nil {
		execArgv = rep.RewrittenArgv
	}
	entry := journal.Entry{
		Argv:      redact.Args(argv),
		Backups:   artifacts,
		Category:  string(cat),
		CreatedAt: journal.Now(),
		Cwd:       d.Cfg.RepoRoot,
		Hint:      journal.Hint(cat, hasStash(artifacts)),
		ID:        journal.NewID(),
		Impact: journal.Impact{
			Bytes:   rep.Impact.Bytes,
			Commits: rep.Impact.Commits,
			Files:   rep.Impact.Files,
			Lines:   rep.Impact.Lines,
		},
		Mode: d.Mode.String(),
		PreState: journal.PreState{
			Branch:     snap.Branch,
			DirtyCount: len(snap.Dirty),
			Head:       snap.Head,
			ReflogTip:  snap.ReflogTip,
			StashCount: len(snap.Stashes),
		},
		Recovery:    journal.BuildRecovery(cat, snap, artifacts),
		Synthesized: outcome.Synthesized,
	}
	if rep.RewrittenArgv != nil {
		entry.RewrittenArgv = redact.Args(rep.RewrittenArgv)
	}
	if err := d.Journal.Append(entry); err != nil {
		fmt.Fprintf(d.Err, "error: cannot journal the operation, refusing to run it: %v\n", err)
		return ExitFailure
	}

	// 9. The VCS itself.
	code, err := d.Runner.Exec(execArgv)
	if err != nil {
		fmt.Fprintf(d.Err, "error: %v\n", err)
		_ = d.Journal.MarkFailed(entry)
		return ExitFailure
	}
	if code != 0 {
		_ = d.Journal.MarkFailed(entry)
		return code
	}

	// 10. Recovery hint.
	fmt.Fprintf(d.Err, "hint: %s\n", entry.Hint)
	return ExitOK
}

// Passthrough execs the VCS with the original vector, untouched.
func Passthrough(d Deps, argv []string) int {
	d.fillDefaults()
	code, err := d.Runner.Exec(argv)
	if err != nil {
		fmt.Fprintf(d.Err, "error: %v\n", err)
		return ExitFailure
	}
	return code
}

func denied(d Deps, cat classify.Category, reason, howTo string) int {
	fmt.Fprintf(d.Err, "blocked: %s\n", cat)
	if reason != "" {
		fmt.Fprintf(d.Err, "reason: %s\n", reason)
	}
	if howTo != "" {
		fmt.Fprintf(d.Err, "to proceed: %s\n", howTo)
	}
	return ExitDenied
}

func emitReport(d Deps, argv []string, cat classify.Category, rep safety.Report) {
	headerColor.Fprintf(d.Err, "safegit: intercepted %s — ", cat)
	riskColor[rep.Risk].Fprintf(d.Err, "%s risk\n", rep.Risk)

	for _, w := range rep.Warnings {
		fmt.Fprintf(d.Err, "  warning: %s\n", w)
	}
	if len(rep.Alternatives) > 0 {
		fmt.Fprintln(d.Err, "  safer alternatives:")
		for _, a := range rep.Alternatives {
			fmt.Fprintf(d.Err, "    - %s\n", a)
		}
	}
}

func renderDryRun(d Deps, argv []string, rep safety.Report) {
	execArgv := argv
	if rep.RewrittenArgv != nil {
		execArgv = rep.RewrittenArgv
	}
	fmt.Fprintf(d.Out, "dry-run: would execute `git %s`\n", strings.Join(execArgv, " "))
	if rep.RequiresBackup {
		fmt.Fprintf(d.Out, "dry-run: would create a %s backup first\n", backupKindName(rep.BackupKind))
	}
	if rep.Confirmation.Kind != safety.ConfirmNone {
		fmt.Fprintf(d.Out, "dry-run: would require a %s confirmation\n", rep.Confirmation.Kind)
	}
	if rep.Impact != (safety.Impact{}) {
		fmt.Fprintf(d.Out, "dry-run: impact — %d file(s), %d line(s), %d byte(s), %d commit(s)\n",
			rep.Impact.Files, rep.Impact.Lines, rep.Impact.Bytes, rep.Impact.Commits)
	}
}

func backupKindName(k safety.BackupKind) string {
	switch k {
	case safety.BackupStash:
		return "stash"
	case safety.BackupArchive:
		return "zip archive"
	case safety.BackupRefDump:
		return "reference dump"
	}
	return "none"
}

func createBackups(ctx context.Context, d Deps, snap *gitexec.Snapshot, rep safety.Report) ([]backup.Artifact, error) {
	if !rep.RequiresBackup {
		return []backup.Artifact{}, nil
	}

	switch rep.BackupKind {
	case safety.BackupStash:
		art, err := backup.CreateStash(ctx, d.Runner)
		if err != nil {
			return nil, err
		}
		return []backup.Artifact{*art}, nil

	case safety.BackupArchive:
		if len(snap.Untracked) == 0 {
			return []backup.Artifact{}, nil
		}
		art, err := backup.CreateArchive(d.Runner.RepoRoot(), d.Cfg.BackupDir, snap.Untracked)
		if err != nil {
			return nil, err
		}
		return []backup.Artifact{*art}, nil

	case safety.BackupRefDump:
		if len(rep.DumpRefs) == 0 {
			return []backup.Artifact{}, nil
		}
		section := rep.DumpRefs[0]
		if len(rep.DumpRefs) > 1 {
			section = "refs"
		}
		art, err := backup.CreateRefDump(ctx, d.Runner, d.Cfg.BackupDir, section, rep.DumpRefs)
		if err != nil {
			return nil, err
		}
		return []backup.Artifact{*art}, nil
	}
	return []backup.Artifact{}, nil
}

func hasStash(artifacts []backup.Artifact) bool {
	for _, a := range artifacts {
		if a.Kind == "stash" {
			return true
		}
	}
	return false
}
