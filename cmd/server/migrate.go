package main

import (
	"emlak-backend/internal/database"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Veritabanı şemasını güncelle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap("emlak-migrate")
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			return database.Migrate(db, logger)
		},
	}
}
