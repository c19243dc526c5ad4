// Package safety computes the blast radius of a classified command. One
// analyzer per category inspects the repository snapshot and produces a
// SafetyReport; the confirmation engine and the backup subsystem act on the
// report, never on raw argv.
package safety

import (
	"github.com/safegit/safegit/internal/classify"
	"github.com/safegit/safegit/internal/contextstore"
	"github.com/safegit/safegit/internal/execmode"
	"github.com/safegit/safegit/internal/gitexec"
)

// ConfirmKind selects how the confirmation engine challenges the user.
type ConfirmKind int

const (
	ConfirmNone ConfirmKind = iota
	ConfirmYesNo
	ConfirmTypedPhrase
	ConfirmDoubleTypedPhrase
	ConfirmBranchNameEcho
)

func (k ConfirmKind) String() string {
	switch k {
	case ConfirmNone:
		return "none"
	case ConfirmYesNo:
		return "yes-no"
	case ConfirmTypedPhrase:
		return "typed-phrase"
	case ConfirmDoubleTypedPhrase:
		return "double-typed-phrase"
	case ConfirmBranchNameEcho:
		return "branch-name-echo"
	}
	return "unknown"
}

// Confirmation is the challenge an analyzer demands before execution.
type Confirmation struct {
	Kind    ConfirmKind
	Phrase  string // TypedPhrase and first phrase of DoubleTypedPhrase
	Phrase2 string // second phrase of DoubleTypedPhrase
	Branch  string // BranchNameEcho
}

// BackupKind selects which artifact the backup subsystem creates.
type BackupKind int

const (
	BackupNone BackupKind = iota
	BackupStash
	BackupArchive
	BackupRefDump
)

// Impact quantifies what the operation touches.
type Impact struct {
	Files   uint64
	Lines   uint64
	Bytes   uint64
	Commits uint64
}

// Report is the analyzer verdict for one proposed operation.
type Report struct {
	Risk           classify.Risk
	Impact         Impact
	Warnings       []string
	Alternatives   []string // safer command lines, most preferred first
	RequiresBackup bool
	BackupKind     BackupKind
	// DumpRefs lists references to capture when BackupKind is BackupRefDump.
	DumpRefs     []string
	Confirmation Confirmation
	// RewrittenArgv is non-nil when the analyzer converted the command to a
	// safer equivalent (e.g. --force → --force-with-lease). The handler
	// executes this vector and records both in the undo entry.
	RewrittenArgv []string
	// Blocked marks operations refused outright regardless of confirmation
	// (filter_history without explicit override).
	Blocked       bool
	BlockedReason string
}

// Input carries everything an analyzer may consult.
type Input struct {
	Argv     []string
	Category classify.Category
	Floor    classify.Risk
	Snap     *gitexec.Snapshot
	Ctx      contextstore.Context
	Mode     execmode.Mode

	// ExtraProtectedBranches and ExtraSensitivePatterns come from
	// config.yaml and extend the built-in sets.
	ExtraProtectedBranches []string
	ExtraSensitivePatterns []string
}

func (in Input) hasFlag(flag string) bool {
	for _, a := range in.Argv {
		if a == flag {
			return true
		}
	}
	return false
}
