package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-country-cache/internal/config"
	"github.com/tbourn/go-country-cache/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:   "countrycache",
		Short: "Country cache service",
		Long: `countrycache keeps a local copy of a public country catalog joined with
an exchange-rate table, estimates GDP per country and serves the result over
a REST API together with a rendered summary image.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadDotEnv(envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	root.AddCommand(newServeCmd(), newRefreshCmd(), newBackfillCmd())
	return root
}

// loadConfig reads the environment and configures the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	return cfg, nil
}
