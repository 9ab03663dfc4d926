package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"engram/internal/app"
	"engram/internal/config"
	gw "engram/internal/gateway"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var addr string

var Cmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the HTTP gateway and chat channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr != "" {
			cfg.Gateway.Addr = addr
		}

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		chs := a.Channels()
		srv := gw.NewServer(a.Orchestrator, a.Catalog, a.Company, gw.Options{
			Heartbeat:      cfg.Gateway.HeartbeatInterval.Duration,
			AllowedOrigins: cfg.Gateway.AllowedOrigins,
		}, chs...)

		g, gctx := errgroup.WithContext(ctx)
		for _, ch := range chs {
			g.Go(func() error {
				if err := ch.Start(gctx); err != nil {
					return fmt.Errorf("channel %s: %w", ch.Name(), err)
				}
				return nil
			})
		}
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.Gateway.Addr)
		})

		slog.Info("starting gateway", "addr", cfg.Gateway.Addr, "channels", len(chs))
		return g.Wait()
	},
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "override gateway listen address")
}
