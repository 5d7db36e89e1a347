package main

import (
	"os/signal"
	"syscall"

	"emlak-backend/internal/database"
	"emlak-backend/internal/notify"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewWorkerCmd creates the worker subcommand that delivers notifications.
func NewWorkerCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Bildirim kuyruğunu işleyen worker'ı başlat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap("emlak-worker")
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
			defer rdb.Close()

			processor := notify.NewProcessor(notify.ProcessorOptions{
				Users: database.NewUserStore(db),
				Sender: notify.NewSender(notify.SMTPConfig{
					Host:     cfg.SMTPHost,
					Port:     cfg.SMTPPort,
					Username: cfg.SMTPUsername,
					Password: cfg.SMTPPassword,
					From:     cfg.SMTPFrom,
				}, logger),
				From:       cfg.SMTPFrom,
				AdminEmail: cfg.AdminNotifyEmail,
				BaseURL:    cfg.PublicBaseURL,
				Logger:     logger,
			})

			srv := notify.NewServer(notify.RedisOpt(rdb), concurrency, logger)
			if err := srv.Start(processor.Mux()); err != nil {
				return err
			}
			logger.Info("bildirim worker başladı", "concurrency", concurrency)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			srv.Shutdown()
			logger.Info("bildirim worker durdu")
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "eşzamanlı görev sayısı")
	return cmd
}
