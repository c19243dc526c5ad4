// Package dispatch is the wrapper entry point for VCS argv: it consumes the
// reserved global flags, resolves the execution mode, scans argv hygiene,
// classifies, logs the interception, and routes to a handler.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/safegit/safegit/internal/classify"
	"github.com/safegit/safegit/internal/config"
	"github.com/safegit/safegit/internal/confirm"
	"github.com/safegit/safegit/internal/contextstore"
	"github.com/safegit/safegit/internal/execmode"
	"github.com/safegit/safegit/internal/gitexec"
	"github.com/safegit/safegit/internal/handler"
	"github.com/safegit/safegit/internal/intercept"
	"github.com/safegit/safegit/internal/journal"
	"github.com/safegit/safegit/internal/unicodescan"
)

// ParseGlobals strips the reserved wrapper flags from the front of argv.
// Reserved flags are only recognized before the subcommand so VCS flags
// that share a spelling (`clean --dry-run`) pass through untouched.
func ParseGlobals(argv []string) (execmode.Flags, []string) {
	var flags execmode.Flags
	i := 0
	for ; i < len(argv); i++ {
		switch argv[i] {
		case "--dry-run":
			flags.DryRun = true
		case "--yes", "-y", "--assume-yes":
			flags.Yes = true
		case "--force-yes":
			flags.ForceYes = true
		case "--non-interactive":
			flags.NonInteractive = true
		case "--batch":
			flags.Batch = true
		default:
			return flags, argv[i:]
		}
	}
	return flags, nil
}

// Options carries test overrides; zero value is production behavior.
type Options struct {
	Out    io.Writer
	Err    io.Writer
	Runner gitexec.Runner // overrides repo discovery
	Cfg    *config.Config
	Env    func(string) string
	In     io.Reader
	// NoSignals disables the interrupt handler (tests).
	NoSignals bool
}

// Run executes one intercepted VCS invocation and returns the exit code.
func Run(argv []string, opts Options) int {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	flags, rest := ParseGlobals(argv)
	if len(rest) == 0 {
		fmt.Fprintln(opts.Err, "usage: safegit [--dry-run|--yes|--force-yes|--batch] <git-subcommand> [args...]")
		return handler.ExitUsage
	}

	if !opts.NoSignals {
		stop := watchInterrupt()
		defer stop()
	}

	// Hygiene scan before anything else looks at the vector.
	scan := unicodescan.ScanArgs(rest)
	for _, th := range scan.Threats {
		fmt.Fprintf(opts.Err, "argv hygiene: %s (%s in argument %d)\n", th.Description, th.Codepoint, th.ArgIndex)
	}
	if scan.HasBlocking() {
		fmt.Fprintln(opts.Err, "blocked: argument vector contains characters that can disguise the real command")
		return handler.ExitDenied
	}

	cat, floor := classify.Classify(rest)

	runner := opts.Runner
	cfg := opts.Cfg
	if runner == nil {
		root, err := gitexec.DiscoverRoot(".")
		if err != nil {
			// Outside a repository only repo-less commands make sense;
			// hand them to the VCS untouched.
			if cat == classify.Passthrough {
				return execBare(rest, opts)
			}
			fmt.Fprintf(opts.Err, "error: %v\n", err)
			return handler.ExitFailure
		}
		// Config first: it carries the subprocess timeout the runner needs.
		if cfg == nil {
			cfg, err = config.Load(root)
			if err != nil {
				fmt.Fprintf(opts.Err, "error: %v\n", err)
				return handler.ExitFailure
			}
		}
		runner = gitexec.New(root, cfg.CommandTimeout)
	} else if cfg == nil {
		loaded, err := config.Load(runner.RepoRoot())
		if err != nil {
			fmt.Fprintf(opts.Err, "error: %v\n", err)
			return handler.ExitFailure
		}
		cfg = loaded
	}

	mode := execmode.Resolve(flags, cfg.DefaultMode, opts.Env)

	logger := intercept.New(cfg.LogPath)
	if err := logger.Log(intercept.NewEvent(rest, string(cat), mode.String(), "")); err != nil {
		fmt.Fprintf(opts.Err, "warning: interception log: %v\n", err)
	}

	if cat == classify.Passthrough {
		if mode == execmode.DryRun {
			fmt.Fprintf(opts.Out, "dry-run: would execute `git %s`\n", classify.Normalize(rest))
			return handler.ExitOK
		}
		return handler.Passthrough(handler.Deps{Runner: runner, Out: opts.Out, Err: opts.Err}, rest)
	}

	eng := confirm.New(mode)
	eng.Err = opts.Err
	if opts.In != nil {
		eng.In = opts.In
		eng.IsTerminal = func() bool { return true }
	}

	deps := handler.Deps{
		Cfg:     cfg,
		Runner:  runner,
		Store:   contextstore.NewStore(cfg.ContextPath),
		Journal: journal.New(cfg.JournalPath),
		Confirm: eng,
		Mode:    mode,
		Out:     opts.Out,
		Err:     opts.Err,
	}
	return handler.Execute(context.Background(), deps, rest, cat, floor)
}

// execBare runs the VCS in the current directory when no repository exists
// yet (clone, init, ls-remote).
func execBare(argv []string, opts Options) int {
	g := gitexec.Bare(".")
	code, err := g.Exec(argv)
	if err != nil {
		fmt.Fprintf(opts.Err, "error: %v\n", err)
		return handler.ExitFailure
	}
	return code
}

// watchInterrupt converts SIGINT into the conventional 130 exit.
func watchInterrupt() func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		if _, ok := <-ch; ok {
			os.Exit(handler.ExitInterrupt)
		}
	}()
	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
