package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kubenetlabs/doubler/internal/config"
	"github.com/kubenetlabs/doubler/internal/server"
	"github.com/kubenetlabs/doubler/pkg/version"
)

// NewRootCommand builds the doubler command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "doubler",
		Short: "Serve the doubler HTTP API",
		Long: `doubler serves POST /api/double, which multiplies an integer by two,
and a plain-text liveness probe on GET /. Settings come from an optional
YAML file and the PORT, CORS_ALLOWED_ORIGINS, CACHE_TTL, MAX_BODY_BYTES,
SHUTDOWN_TIMEOUT, METRICS_ENABLED and LOG_LEVEL environment variables.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath, cmd.OutOrStdout())
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// serve loads configuration, installs the JSON logger and runs the server
// until ctx is done.
func serve(ctx context.Context, path string, logOut io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("starting doubler API server",
		"addr", cfg.Addr(),
		"allowed_origins", cfg.AllowedOrigins,
		"cache_ttl", cfg.CacheTTL.String(),
		"metrics_enabled", cfg.MetricsEnabled,
		"version", version.Version,
		"commit", version.Commit,
	)

	srv := server.New(*cfg)
	if err := srv.Run(ctx, cfg.Addr()); err != nil {
		slog.Error("server failed", "error", err)
		return err
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}
