package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	pruneOlderThan time.Duration
	pruneDryRun    bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old backup artifacts from .safe/backups/",
	Long: `Backups are retained indefinitely by default. prune removes artifacts
older than --older-than (default 720h = 30 days) after listing them.

  safegit prune                   delete backups older than 30 days
  safegit prune --older-than 168h delete backups older than a week
  safegit prune --dry-run         list only`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 720*time.Hour, "Minimum artifact age")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "List without deleting")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, _, err := repoEnv()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-pruneOlderThan)
	entries, err := os.ReadDir(cfg.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No backups to prune.")
			return nil
		}
		return err
	}

	var victims []string
	var total int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "safe-backup-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			victims = append(victims, e.Name())
			total += info.Size()
		}
	}

	if len(victims) == 0 {
		fmt.Println("No backups older than the cutoff.")
		return nil
	}

	for _, v := range victims {
		fmt.Printf("  %s\n", v)
	}
	fmt.Printf("%d artifact(s), %d byte(s)\n", len(victims), total)

	if pruneDryRun {
		return nil
	}

	fmt.Fprint(os.Stderr, "Delete these backups? [y/N]: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return err
	}
	if ans := strings.ToLower(strings.TrimSpace(line)); ans != "y" && ans != "yes" {
		fmt.Println("aborted")
		return nil
	}

	for _, v := range victims {
		if err := os.Remove(filepath.Join(cfg.BackupDir, v)); err != nil {
			return fmt.Errorf("remove %s: %w", v, err)
		}
	}
	fmt.Printf("deleted %d artifact(s)\n", len(victims))
	return nil
}
