package run

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"engram/internal/app"
	"engram/internal/config"
	"engram/internal/gateway"
	"engram/internal/orchestrator"

	"github.com/spf13/cobra"
)

var (
	agentTypes []string
	quiet      bool
)

var Cmd = &cobra.Command{
	Use:   "run [flags] <message or goal>",
	Short: "Run one session from the terminal",
	Long: "Runs a single agent when one type is given, or a sequential collaboration " +
		"when several are. Events are printed in server-sent-event framing unless --quiet is set.",
	Example: `  engram run -A sales "draft a follow-up to Dana"
  engram run -A market_intelligence,technical,orchestrator "evaluate expanding to the EU"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		text := strings.Join(args, " ")
		var sess *orchestrator.Session
		if len(agentTypes) == 1 {
			sess, err = a.Orchestrator.NewSingle(agentTypes[0], text)
		} else {
			sess, err = a.Orchestrator.NewCollaboration(text, agentTypes)
		}
		if err != nil {
			return err
		}

		if quiet {
			out, err := sess.Collect(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(out))
			return nil
		}
		return gateway.Publish(ctx, gateway.NewStreamWriter(cmd.OutOrStdout()), sess, cfg.Gateway.HeartbeatInterval.Duration)
	},
}

func init() {
	Cmd.Flags().StringSliceVarP(&agentTypes, "agents", "A", []string{"orchestrator"}, "agent types to run, in order")
	Cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the final answer")
}
