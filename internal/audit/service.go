package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"emlak-backend/internal/logging"
	"emlak-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      uint
	UserRole    models.UserRole
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Service writes and reads the audit and error logs.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// NewEntry builds the row for opts. Snapshots that fail to marshal are stored as JSON null.
func NewEntry(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		UserID:      opts.UserID,
		UserRole:    opts.UserRole,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
}

// PostgreSQL jsonb için boş değer yerine "null" yazılır
func snapshot(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func (s *Service) WriteLog(ctx context.Context, opts LogOptions) error {
	log := NewEntry(opts)
	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

// NewErrorLog builds a masked error_logs row.
func NewErrorLog(requestID, method, path, code, detail string) models.ErrorLog {
	return models.ErrorLog{
		RequestID: requestID,
		Method:    method,
		Path:      logging.Redact(path),
		Code:      code,
		Detail:    logging.Redact(detail),
	}
}

// WriteErrorLog persists a 5xx failure after masking credentials.
func (s *Service) WriteErrorLog(ctx context.Context, entry models.ErrorLog) error {
	entry.Path = logging.Redact(entry.Path)
	entry.Detail = logging.Redact(entry.Detail)
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("hata kaydı yazılamadı: %w", err)
	}
	return nil
}

type ListOptions struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.AuditLog, error) {
	dbq := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if opts.UserID > 0 {
		dbq = dbq.Where("user_id = ?", opts.UserID)
	}
	if opts.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", opts.EntityType)
	}
	if opts.EntityID > 0 {
		dbq = dbq.Where("entity_id = ?", opts.EntityID)
	}

	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	if err := dbq.Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Service) ListErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.ErrorLog
	if err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
