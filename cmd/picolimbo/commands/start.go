package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joelkoen/picolimbo/internal/logger"
	"github.com/joelkoen/picolimbo/pkg/assets"
	"github.com/joelkoen/picolimbo/pkg/config"
	"github.com/joelkoen/picolimbo/pkg/metrics"
	"github.com/joelkoen/picolimbo/pkg/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the limbo server",
	Long: `Start the limbo server with the specified configuration.

Use --config to specify a custom configuration file, or it will look for
picolimbo.toml in the working directory. Missing files fall back to
defaults plus environment variables.

Examples:
  # Start with defaults
  picolimbo start

  # Start with custom config file
  picolimbo start --config /etc/picolimbo/picolimbo.toml

  # Start with environment variable overrides
  PICOLIMBO_LOGGING_LEVEL=DEBUG picolimbo start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return exitWith(ExitConfig, err)
	}

	if err := InitLogger(cfg); err != nil {
		return exitWith(ExitConfig, err)
	}

	logger.Info("configuration loaded",
		"source", getConfigSource(GetConfigFile()),
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	dataDir := assets.Resolve(cfg.DataDir)
	store, err := assets.Open(dataDir)
	if err != nil {
		return exitWith(ExitAssets, err)
	}
	logger.Info("asset directory resolved", "path", dataDir)

	var collectors *metrics.Collectors
	if cfg.Metrics.Enabled {
		collectors = metrics.NewCollectors()
	}

	srv, err := server.New(cfg, store, collectors)
	if err != nil {
		return exitWith(ExitAssets, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if collectors != nil {
		msrv := metrics.NewServer(cfg.Metrics.Port, collectors, srv.Ready)
		go func() {
			if err := msrv.Start(ctx); err != nil {
				logger.Error("metrics server error", logger.KeyError, err.Error())
			}
		}()
	}

	if err := srv.Serve(ctx); err != nil {
		if errors.Is(err, server.ErrBind) {
			return exitWith(ExitBind, err)
		}
		return err
	}
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return "defaults"
}
