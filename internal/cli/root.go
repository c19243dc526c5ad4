// Package cli wires the wrapper's own subcommands (undo, context
// management, prune) and forwards everything else — arbitrary VCS argv —
// to the dispatcher untouched.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safegit/safegit/internal/dispatch"
)

var rootCmd = &cobra.Command{
	Use:   "safegit [--dry-run|--yes|--force-yes|--non-interactive|--batch] <command> [args...]",
	Short: "safegit - protective wrapper around git",
	Long: `safegit sits between you (or your scripts, CI jobs, and agents) and git,
intercepting destructive commands. It analyzes their impact, demands
graduated confirmation, takes verified backups first, and keeps an undo
journal so mistakes stay recoverable.

Safe commands pass straight through to git. Wrapper subcommands:
  undo              show recovery steps for recent destructive operations
  undo-history      list the full undo journal
  set-env           set the environment (development|staging|production)
  set-mode          set the mode (normal|code_freeze|paranoid|maintenance)
  add-restriction   block any command containing a substring
  remove-restriction
  show-context      print the persisted context
  prune             delete old backup artifacts`,
	Args: cobra.ArbitraryArgs,
	// The root consumes raw VCS argv; cobra must not interpret its flags.
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			cmd.Help()
			os.Exit(2)
		}
		os.Exit(dispatch.Run(args, dispatch.Options{}))
		return nil
	},
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "accepts ") ||
		strings.HasPrefix(msg, "requires ") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "invalid argument")
}
