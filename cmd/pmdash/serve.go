package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tgienger/pmdash/internal/config"
	"github.com/tgienger/pmdash/internal/logging"
	"github.com/tgienger/pmdash/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the embedded database over HTTP for remote dashboards",
		Long: `Run the HTTP gateway over the local database.

Dashboards started with PMDASH_BACKEND=remote and PMDASH_URL pointing at
this address share its accounts and data.

Examples:
  pmdash serve
  pmdash serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Listen = addr
			}
			if err := cfg.EnsureDataDir(); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			logger := logging.New(os.Stderr, "gateway")
			if cfg.JWTSecret == "" {
				logger.Printf("PMDASH_JWT_SECRET is not set; sessions end when the gateway stops")
			}

			db, tokens, err := openEmbedded(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router := server.NewRouter(db, tokens, server.Options{AnonKey: cfg.AnonKey, Logger: logger})
			return server.Serve(ctx, cfg.Listen, router, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PMDASH_LISTEN)")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

