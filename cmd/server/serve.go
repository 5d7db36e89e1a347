package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"emlak-backend/internal/audit"
	"emlak-backend/internal/auth"
	"emlak-backend/internal/config"
	"emlak-backend/internal/database"
	"emlak-backend/internal/directory"
	"emlak-backend/internal/listing"
	"emlak-backend/internal/metrics"
	"emlak-backend/internal/notify"
	"emlak-backend/internal/upload"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP API sunucusunu başlat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap("emlak-api")
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "başlangıçta şemayı güncelle")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, autoMigrate bool) error {
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if autoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			return err
		}
	}

	auditSvc := audit.NewService(db)
	users := database.NewUserStore(db)
	dir := directory.NewService(db, cfg.DefaultAdvisorID, auditSvc, logger)

	var notifier listing.Notifier
	if cfg.NotifyEnabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Bildirimler best-effort; kuyruk kapalıyken API yine de çalışır
			logger.Warn("redis bağlantısı kurulamadı, bildirimler kaybolabilir", "addr", cfg.RedisAddr, "error", err)
		}
		client := notify.NewClient(rdb)
		defer client.Close()
		notifier = notify.NewQueue(client, logger)
	}

	uploader, uploadDir, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	listings := listing.NewService(listing.Options{
		Store:    database.NewPropertyStore(db),
		Advisors: dir,
		Notifier: notifier,
		Audit:    auditSvc,
		Logger:   logger,
		BaseURL:  cfg.PublicBaseURL,
		Mode:     listing.ParseNumericMode(cfg.FilterNumericMode),
	})
	defer listings.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterMetrics(reg)

	app := newApp(appDeps{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		BaseURL:     cfg.PublicBaseURL,
		BodyLimitMB: cfg.UploadMaxMB + 1,
		Tokens:      auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		Users:       users,
		Limiter:     auth.NewLoginLimiter(cfg.LoginRatePerMinute),
		Listings:    listings,
		Directory:   dir,
		Audit:       auditSvc,
		ErrorLog:    auditSvc,
		Uploader:    uploader,
		UploadMax:   int64(cfg.UploadMaxMB) << 20,
		UploadDir:   uploadDir,
		MetricsReg:  reg,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server çalışıyor", "port", cfg.HTTPPort)
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server kapatılıyor")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newUploader(ctx context.Context, cfg *config.Config) (upload.Uploader, string, error) {
	if cfg.UploadDriver == "s3" {
		up, err := upload.NewS3Uploader(ctx, upload.S3Config{
			Region:    cfg.AwsRegion,
			AccessKey: cfg.AwsAccessKey,
			SecretKey: cfg.AwsSecretKey,
			Bucket:    cfg.AwsS3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		return up, "", err
	}
	return upload.NewLocalUploader(cfg.UploadPath, "/uploads"), cfg.UploadPath, nil
}
