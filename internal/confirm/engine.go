// Package confirm maps (confirmation kind, execution mode) to accept,
// deny, or an interactive challenge. Handlers never read the terminal
// themselves; this engine is the only prompt surface.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/safegit/safegit/internal/execmode"
	"github.com/safegit/safegit/internal/safety"
)

// Outcome is the engine's verdict.
type Outcome struct {
	Accepted bool
	// Reason explains a denial: what flag or phrase would permit the
	// operation.
	Reason string
	// Synthesized lists phrases auto-typed under ForceYes, for the journal.
	Synthesized []string
}

// Engine evaluates confirmations for one execution mode.
type Engine struct {
	Mode execmode.Mode
	In   io.Reader
	Err  io.Writer

	// IsTerminal overrides TTY detection in tests.
	IsTerminal func() bool
}

// New builds an engine wired to the process terminal.
func New(mode execmode.Mode) *Engine {
	return &Engine{
		Mode: mode,
		In:   os.Stdin,
		Err:  os.Stderr,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// Decide applies the decision matrix. subject is a short description of the
// operation shown in prompts.
func (e *Engine) Decide(conf safety.Confirmation, subject string) Outcome {
	if conf.Kind == safety.ConfirmNone {
		return Outcome{Accepted: true}
	}

	switch e.Mode {
	case execmode.DryRun:
		// Nothing executes in dry-run; every challenge is vacuously met.
		return Outcome{Accepted: true}

	case execmode.AssumeYes:
		if conf.Kind == safety.ConfirmYesNo {
			return Outcome{Accepted: true}
		}
		return Outcome{
			Reason: fmt.Sprintf("a %s confirmation cannot be auto-accepted; rerun with --force-yes or interactively", conf.Kind),
		}

	case execmode.ForceYes:
		return e.synthesize(conf)

	case execmode.Batch:
		return Outcome{
			Reason: fmt.Sprintf("batch mode refuses prompts; this operation needs a %s confirmation", conf.Kind),
		}
	}

	return e.prompt(conf, subject)
}

// synthesize accepts on the caller's behalf, logging each phrase as if
// typed.
func (e *Engine) synthesize(conf safety.Confirmation) Outcome {
	out := Outcome{Accepted: true}
	emit := func(phrase string) {
		fmt.Fprintf(e.Err, "[auto-type] %s\n", phrase)
		out.Synthesized = append(out.Synthesized, phrase)
	}

	switch conf.Kind {
	case safety.ConfirmYesNo:
		emit("y")
	case safety.ConfirmTypedPhrase:
		emit(conf.Phrase)
	case safety.ConfirmDoubleTypedPhrase:
		emit(conf.Phrase)
		emit(conf.Phrase2)
	case safety.ConfirmBranchNameEcho:
		emit(conf.Branch)
	}
	return out
}

// prompt runs the interactive challenge.
func (e *Engine) prompt(conf safety.Confirmation, subject string) Outcome {
	if e.IsTerminal != nil && !e.IsTerminal() {
		return Outcome{Reason: "stdin is not a terminal; rerun with --yes, --force-yes, or --batch"}
	}

	reader := bufio.NewReader(e.In)

	switch conf.Kind {
	case safety.ConfirmYesNo:
		return e.askYesNo(reader, subject)

	case safety.ConfirmTypedPhrase:
		return e.askPhrase(reader, subject, conf.Phrase)

	case safety.ConfirmDoubleTypedPhrase:
		if out := e.askPhrase(reader, subject, conf.Phrase); !out.Accepted {
			return out
		}
		return e.askPhrase(reader, subject, conf.Phrase2)

	case safety.ConfirmBranchNameEcho:
		fmt.Fprintf(e.Err, "Type the branch name %q to confirm: ", conf.Branch)
		line, err := readLine(reader)
		if err != nil {
			return Outcome{Reason: "could not read confirmation input"}
		}
		if line != conf.Branch {
			return Outcome{Reason: fmt.Sprintf("branch name mismatch: typed %q", line)}
		}
		return Outcome{Accepted: true}
	}
	return Outcome{Reason: "unknown confirmation kind"}
}
