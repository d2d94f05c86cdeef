package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-country-cache/internal/http/handlers"
	"github.com/tbourn/go-country-cache/internal/observability"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh and exit",
		Long:  `Fetches both upstream sources, reconciles the cache and regenerates the summary image. Suitable for cron.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			shutdownTracing, err := observability.SetupOTel(cmd.Context(), cfg.OTEL, version)
			if err != nil {
				return err
			}
			defer func() { _ = observability.ShutdownWithTimeout(shutdownTracing, shutdownTimeout) }()

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.Refresh.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			log.Info().
				Int("inserted", res.Inserted).
				Int("updated", res.Updated).
				Int64("total", res.Total).
				Time("refreshed_at", res.RefreshedAt).
				Msg("refresh complete")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(handlers.RefreshResponse{
				Inserted:        res.Inserted,
				Updated:         res.Updated,
				Total:           res.Total,
				LastRefreshedAt: res.RefreshedAt.UTC().Format(handlers.TimeLayout),
			})
		},
	}
}
