package database

import (
	"fmt"
	"log/slog"

	"emlak-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to PostgreSQL.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	// Eski "consultant" rolü "advisor" olarak birleştirildi (AutoMigrate'ten ÖNCE)
	if db.Migrator().HasTable(&models.User{}) {
		res := db.Exec("UPDATE users SET role = ? WHERE role = ?", models.RoleAdvisor, "consultant")
		if res.Error != nil {
			return fmt.Errorf("rol dönüşümü yapılamadı: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			logger.Info("eski consultant rolleri advisor olarak güncellendi", "count", res.RowsAffected)
		}
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Office{},
		&models.AdvisorProfile{},
		&models.Property{},
		&models.PropertyDetail{},
		&models.PropertyImage{},
		&models.AuditLog{},
		&models.ErrorLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}

	// Herkese açık liste sorgusu için kısmi index (AutoMigrate bunu oluşturmaz)
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_public
		ON properties (listing_status, listing_state, created_at DESC)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("index oluşturulamadı: %w", err)
	}

	logger.Info("veritabanı migration tamamlandı")
	return nil
}
