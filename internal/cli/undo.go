package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/safegit/safegit/internal/classify"
	"github.com/safegit/safegit/internal/journal"
)

var (
	undoLast     int
	undoID       string
	undoForceYes bool

	historySummary bool
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Show recovery steps for recent destructive operations",
	Long: `List the most recent destructive operations and print the commands that
restore the pre-operation state. Recovery commands are printed, not run;
with --force-yes, categories with a deterministic recovery path (reset,
rebase, checkout) are replayed automatically.

  safegit undo              pick from the last 10 operations
  safegit undo --last 25    widen the selection
  safegit undo --id <uuid>  jump straight to one entry`,
	RunE: runUndo,
}

var undoHistoryCmd = &cobra.Command{
	Use:   "undo-history",
	Short: "List the full undo journal",
	RunE:  runUndoHistory,
}

func init() {
	undoCmd.Flags().IntVar(&undoLast, "last", 10, "How many recent entries to offer")
	undoCmd.Flags().StringVar(&undoID, "id", "", "Recover a specific entry by id")
	undoCmd.Flags().BoolVar(&undoForceYes, "force-yes", false, "Execute deterministic recovery commands instead of printing them")
	undoHistoryCmd.Flags().BoolVar(&historySummary, "summary", false, "Show per-category counts instead of entries")
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(undoHistoryCmd)
}

func runUndo(cmd *cobra.Command, args []string) error {
	cfg, git, err := repoEnv()
	if err != nil {
		return err
	}

	j := journal.New(cfg.JournalPath)
	entries, err := j.Tail(undoLast)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No destructive operations recorded.")
		return nil
	}

	var chosen *journal.Entry
	if undoID != "" {
		for i := range entries {
			if entries[i].ID == undoID {
				chosen = &entries[i]
				break
			}
		}
		if chosen == nil {
			return fmt.Errorf("no journal entry with id %s", undoID)
		}
	} else {
		for i, e := range entries {
			printEntryLine(i+1, e)
		}
		fmt.Fprintf(os.Stderr, "Select an entry [1-%d], or q to quit: ", len(entries))
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read selection: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "q" || line == "" {
			return nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(entries) {
			return fmt.Errorf("invalid selection %q", line)
		}
		chosen = &entries[n-1]
	}

	fmt.Printf("\nRecovery for %s (%s):\n", chosen.Category, chosen.ID)
	if len(chosen.Recovery) == 0 {
		fmt.Println("  (no recovery commands; see hint below)")
	}
	for _, line := range chosen.Recovery {
		fmt.Printf("  %s\n", line)
	}
	if chosen.Hint != "" {
		fmt.Printf("hint: %s\n", chosen.Hint)
	}

	if undoForceYes && deterministicRecovery(*chosen) {
		fmt.Fprintln(os.Stderr, "replaying recovery commands...")
		for _, argv := range recoveryArgv(*chosen) {
			fmt.Fprintf(os.Stderr, "  git %s\n", strings.Join(argv, " "))
			code, err := git.Exec(argv)
			if err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("recovery command exited %d", code)
			}
		}
	}
	return nil
}

// deterministicRecovery reports whether the category's recovery path is safe
// to replay mechanically.
func deterministicRecovery(e journal.Entry) bool {
	switch classify.Category(e.Category) {
	case classify.ResetHard, classify.Rebase, classify.CheckoutForce,
		classify.SwitchDiscard, classify.CommitAmend, classify.MergeOurs:
		return e.PreState.Head != ""
	}
	return false
}

// recoveryArgv rebuilds the structured recovery vectors for deterministic
// categories from the entry's recorded state.
func recoveryArgv(e journal.Entry) [][]string {
	var out [][]string
	out = append(out, []string{"reset", "--hard", e.PreState.Head})
	for _, b := range e.Backups {
		if b.Kind == "stash" && b.Ref != "" {
			out = append(out, []string{"stash", "pop", b.Ref})
		}
	}
	return out
}

func runUndoHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := repoEnv()
	if err != nil {
		return err
	}

	entries, err := journal.New(cfg.JournalPath).ReadAll()
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No destructive operations recorded.")
		return nil
	}

	if historySummary {
		counts := map[string]int{}
		failed := 0
		for _, e := range entries {
			counts[e.Category]++
			if e.Outcome == "failed" {
				failed++
			}
		}
		fmt.Printf("Total entries: %d\n", len(entries))
		for cat, n := range counts {
			fmt.Printf("  %-24s %d\n", cat, n)
		}
		fmt.Printf("Failed VCS invocations: %d\n", failed)
		return nil
	}

	for i := len(entries) - 1; i >= 0; i-- {
		printEntryLine(len(entries)-i, entries[i])
	}
	return nil
}

func printEntryLine(n int, e journal.Entry) {
	ts := e.CreatedAt
	if t, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
		ts = t.Local().Format("2006-01-02 15:04:05")
	}
	label := strings.Join(e.Argv, " ")
	if e.Outcome == "failed" {
		label += color.RedString(" [failed]")
	}
	fmt.Printf("%2d. %s  %-18s %s\n", n, ts, e.Category, label)
}
