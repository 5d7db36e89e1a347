package main

import (
	"log/slog"

	"emlak-backend/internal/config"
	"emlak-backend/internal/database"
	"emlak-backend/internal/logging"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "emlak",
		Short:        "Emlak ilan servisi",
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewWorkerCmd())

	return cmd
}

// bootstrap loads configuration and the logger shared by every subcommand.
func bootstrap(service string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup(service, cfg.LogFormat, nil)
	slog.SetDefault(logger)
	if cfg.UsesDefaultDSN() {
		logger.Warn("DATABASE_DSN tanımlı değil, geliştirme bağlantısı kullanılıyor")
	}
	return cfg, logger, nil
}

func openDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}
