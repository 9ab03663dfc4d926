package main

import (
	"os"

	"engram/cmd/engram/agents"
	"engram/cmd/engram/gateway"
	"engram/cmd/engram/run"
	"engram/cmd/engram/setup"
	"engram/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	logger.Init()
	rootCmd := &cobra.Command{
		Use:           "engram",
		Short:         "Engram runs a team of specialist AI agents for startups",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default $ENGRAM_CONFIG or the user config dir)")

	rootCmd.AddCommand(setup.Cmd)
	rootCmd.AddCommand(gateway.Cmd)
	rootCmd.AddCommand(agents.Cmd)
	rootCmd.AddCommand(run.Cmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
