package setup

import (
	"fmt"

	"engram/internal/config"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default engram configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.Path()
		}
		if err := config.Save(path, config.Default()); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\nset OPENAI_API_KEY (and any service tokens) before running the gateway\n", path)
		return nil
	},
}
