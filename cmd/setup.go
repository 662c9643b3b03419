package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/wakeblame/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default config file (re-run anytime to reset it)",
	// Bypass the normal PersistentPreRunE so setup works before config exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Save(config.Defaults())
		if err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("  ✓ Config written to %s\n", path)
		fmt.Println("  Edit it, or override per project with a .wakeblamerc file.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
