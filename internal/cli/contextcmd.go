package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safegit/safegit/internal/contextstore"
)

var showContextJSON bool

var setEnvCmd = &cobra.Command{
	Use:   "set-env <development|staging|production>",
	Short: "Set the repository environment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := strings.ToLower(args[0])
		if !contextstore.ValidEnvironment(env) {
			return fmt.Errorf("invalid argument %q: environment must be development, staging, or production", args[0])
		}
		store, err := contextStore()
		if err != nil {
			return err
		}
		ctx, err := store.SetEnvironment(contextstore.Environment(env))
		if err != nil {
			return err
		}
		fmt.Printf("environment set to %s\n", ctx.Environment)
		return nil
	},
}

var setModeCmd = &cobra.Command{
	Use:   "set-mode <normal|code_freeze|paranoid|maintenance>",
	Short: "Set the repository operating mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := strings.ToLower(args[0])
		if !contextstore.ValidMode(mode) {
			return fmt.Errorf("invalid argument %q: mode must be normal, code_freeze, paranoid, or maintenance", args[0])
		}
		store, err := contextStore()
		if err != nil {
			return err
		}
		ctx, err := store.SetMode(contextstore.Mode(mode))
		if err != nil {
			return err
		}
		fmt.Printf("mode set to %s\n", ctx.Mode)
		return nil
	},
}

var addRestrictionCmd = &cobra.Command{
	Use:   "add-restriction <substring>",
	Short: "Block any command whose argv contains the substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		ctx, err := store.AddRestriction(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("restrictions: %s\n", strings.Join(ctx.Restrictions, ", "))
		return nil
	},
}

var removeRestrictionCmd = &cobra.Command{
	Use:   "remove-restriction <substring>",
	Short: "Remove a previously added restriction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		ctx, err := store.RemoveRestriction(args[0])
		if err != nil {
			return err
		}
		if len(ctx.Restrictions) == 0 {
			fmt.Println("restrictions: (none)")
		} else {
			fmt.Printf("restrictions: %s\n", strings.Join(ctx.Restrictions, ", "))
		}
		return nil
	},
}

var showContextCmd = &cobra.Command{
	Use:   "show-context",
	Short: "Print the persisted environment, mode, and restrictions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		ctx, err := store.Load()
		if err != nil {
			return err
		}

		if showContextJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ctx)
		}

		fmt.Printf("environment:  %s\n", ctx.Environment)
		fmt.Printf("mode:         %s\n", ctx.Mode)
		if len(ctx.Restrictions) == 0 {
			fmt.Println("restrictions: (none)")
		} else {
			fmt.Println("restrictions:")
			for _, r := range ctx.Restrictions {
				fmt.Printf("  - %s\n", r)
			}
		}
		if ctx.UpdatedAt != "" {
			fmt.Printf("updated:      %s\n", ctx.UpdatedAt)
		}
		return nil
	},
}

func contextStore() (*contextstore.Store, error) {
	cfg, _, err := repoEnv()
	if err != nil {
		return nil, err
	}
	return contextstore.NewStore(cfg.ContextPath), nil
}

func init() {
	showContextCmd.Flags().BoolVar(&showContextJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(setEnvCmd, setModeCmd, addRestrictionCmd, removeRestrictionCmd, showContextCmd)
}
