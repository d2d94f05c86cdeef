package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-country-cache/internal/repo"
)

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-keys",
		Short: "Recompute normalized name keys for stored rows",
		Long:  `Recomputes name_key for every stored country. Run after changing the normalization rules.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()

			n, err := repo.BackfillNameKeys(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.Info().Int("rows", n).Msg("name keys backfilled")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated %d rows\n", n)
			return err
		},
	}
}
