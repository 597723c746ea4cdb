package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/urlstate/internal/config"
	"github.com/vango-dev/urlstate/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Run a demo search page whose form is bound to the query string.

Settings are read from urlstate.json in the working directory, or from
the file given with --config.

Examples:
  urlstate serve
  urlstate serve --addr=0.0.0.0:8080
  urlstate serve --config=deploy/urlstate.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to urlstate.json")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from urlstate.json)")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadOrDefault(".")
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	if addr == "" {
		addr = cfg.Address()
	}

	srv := server.New(server.Config{
		Address:          addr,
		QuietWindow:      cfg.QuietWindow(),
		MetricsEnabled:   cfg.MetricsEnabled(),
		MetricsNamespace: cfg.Metrics.Namespace,
		TracerName:       cfg.Tracing.TracerName,
		IncludeSearch:    cfg.Tracing.IncludeSearch,
		Logger:           logger,
	})
	logger.Info("urlstate demo", "url", "http://"+addr, "quiet_window", cfg.QuietWindow())
	return srv.Run(ctx)
}
