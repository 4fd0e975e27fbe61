package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/docentchat/docent/pkg/engine"
	"github.com/docentchat/docent/pkg/web"
	"github.com/spf13/cobra"
)

func webCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the chat UI over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := setup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := engine.LoadConfig(flagConfig)
			if err != nil {
				return err
			}

			e, err := engine.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := e.Close(); err != nil {
					log.Warn("backend teardown failed", "error", err)
				}
			}()

			log.Info("serving chat UI", "addr", addr)
			return web.New(e, log).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8392", "listen address")

	return cmd
}
