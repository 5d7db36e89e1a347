// Package directory serves the advisor and office directory and resolves the
// advisor assigned to approved listings.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/audit"
	"emlak-backend/internal/auth"
	"emlak-backend/internal/listing"
	"emlak-backend/internal/logging"
	"emlak-backend/internal/models"

	"gorm.io/gorm"
)

const (
	entityOffice  = "office"
	entityAdvisor = "advisor"
)

type Service struct {
	db               *gorm.DB
	defaultAdvisorID uint
	audit            listing.AuditWriter
	logger           *slog.Logger
}

var _ listing.AdvisorDirectory = (*Service)(nil)

func NewService(db *gorm.DB, defaultAdvisorID uint, aw listing.AuditWriter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, defaultAdvisorID: defaultAdvisorID, audit: aw, logger: logger}
}

// ----------------------------------------
// listing.AdvisorDirectory
// ----------------------------------------

func (s *Service) AdvisorByUserID(ctx context.Context, userID uint) (*models.AdvisorProfile, error) {
	var p models.AdvisorProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DefaultAdvisorID prefers the configured advisor when it has a profile,
// otherwise the oldest advisor profile.
func (s *Service) DefaultAdvisorID(ctx context.Context) (uint, error) {
	if s.defaultAdvisorID != 0 {
		p, err := s.AdvisorByUserID(ctx, s.defaultAdvisorID)
		if err != nil {
			return 0, err
		}
		if p != nil {
			return p.UserID, nil
		}
		s.logger.WarnContext(ctx, "varsayılan danışmanın profili yok", "user_id", s.defaultAdvisorID)
	}

	var p models.AdvisorProfile
	err := s.db.WithContext(ctx).Order("id ASC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.UserID, nil
}

// ----------------------------------------
// DANIŞMANLAR
// ----------------------------------------

func (s *Service) ListAdvisors(ctx context.Context, officeID *uint) ([]models.AdvisorProfile, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if officeID != nil {
		q = q.Where("office_id = ?", *officeID)
	}
	var out []models.AdvisorProfile
	if err := q.Find(&out).Error; err != nil {
		return nil, s.persistenceFailure(ctx, err, "list advisors")
	}
	return out, nil
}

func (s *Service) GetAdvisor(ctx context.Context, userID uint) (*models.AdvisorProfile, error) {
	p, err := s.AdvisorByUserID(ctx, userID)
	if err != nil {
		return nil, s.persistenceFailure(ctx, err, "get advisor")
	}
	if p == nil {
		return nil, apperr.NotFound("Danışman bulunamadı")
	}
	return p, nil
}

// CreateAdvisor creates the advisor's user account and profile together.
func (s *Service) CreateAdvisor(ctx context.Context, caller *auth.Identity, req CreateAdvisorRequest) (*models.AdvisorProfile, error) {
	user, err := auth.NewUser(auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}, models.RoleAdvisor)
	if err != nil {
		return nil, err
	}
	if req.OfficeID != nil {
		if err := s.requireOffice(ctx, *req.OfficeID); err != nil {
			return nil, err
		}
	}

	profile := models.AdvisorProfile{
		OfficeID: req.OfficeID,
		Name:     user.Name,
		Title:    strings.TrimSpace(req.Title),
		Phone:    user.Phone,
		Email:    user.Email,
		ImageURL: strings.TrimSpace(req.ImageURL),
		Bio:      strings.TrimSpace(req.Bio),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Validation("Bu email zaten kayıtlı")
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(&profile).Error
	})
	if err != nil {
		if apperr.Is(err, apperr.CodeValidation) {
			return nil, err
		}
		return nil, s.persistenceFailure(ctx, err, "create advisor")
	}

	s.writeAudit(ctx, caller, entityAdvisor, user.ID, models.AuditActionCreate,
		fmt.Sprintf("Danışman oluşturuldu: %s", profile.Name), nil, profile)
	return &profile, nil
}

func (s *Service) UpdateAdvisor(ctx context.Context, caller *auth.Identity, userID uint, req UpdateAdvisorRequest) (*models.AdvisorProfile, error) {
	p, err := s.GetAdvisor(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *p

	if err := req.apply(p); err != nil {
		return nil, err
	}
	if req.OfficeID != nil && *req.OfficeID != 0 {
		if err := s.requireOffice(ctx, *req.OfficeID); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, s.persistenceFailure(ctx, err, "update advisor")
	}

	s.writeAudit(ctx, caller, entityAdvisor, userID, models.AuditActionUpdate,
		fmt.Sprintf("Danışman güncellendi: %s", p.Name), before, *p)
	return p, nil
}

// ----------------------------------------
// OFİSLER
// ----------------------------------------

func (s *Service) ListOffices(ctx context.Context) ([]models.Office, error) {
	var out []models.Office
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, s.persistenceFailure(ctx, err, "list offices")
	}
	return out, nil
}

// GetOffice loads the office together with its advisors.
func (s *Service) GetOffice(ctx context.Context, id uint) (*models.Office, error) {
	var o models.Office
	err := s.db.WithContext(ctx).
		Preload("Advisors", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Ofis bulunamadı")
	}
	if err != nil {
		return nil, s.persistenceFailure(ctx, err, "get office")
	}
	return &o, nil
}

func (s *Service) CreateOffice(ctx context.Context, caller *auth.Identity, req OfficeRequest) (*models.Office, error) {
	o := models.Office{}
	if err := req.apply(&o); err != nil {
		return nil, err
	}
	if o.Name == "" {
		return nil, apperr.Validation("Ofis adı boş olamaz")
	}
	if err := s.db.WithContext(ctx).Create(&o).Error; err != nil {
		return nil, s.persistenceFailure(ctx, err, "create office")
	}
	s.writeAudit(ctx, caller, entityOffice, o.ID, models.AuditActionCreate,
		fmt.Sprintf("Ofis oluşturuldu: %s", o.Name), nil, o)
	return &o, nil
}

func (s *Service) UpdateOffice(ctx context.Context, caller *auth.Identity, id uint, req OfficeRequest) (*models.Office, error) {
	o, err := s.GetOffice(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Advisors = nil
	before := *o

	if err := req.apply(o); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(o).Error; err != nil {
		return nil, s.persistenceFailure(ctx, err, "update office")
	}
	s.writeAudit(ctx, caller, entityOffice, id, models.AuditActionUpdate,
		fmt.Sprintf("Ofis güncellendi: %s", o.Name), before, *o)
	return o, nil
}

// DeleteOffice detaches the office's advisors before removing it.
func (s *Service) DeleteOffice(ctx context.Context, caller *auth.Identity, id uint) error {
	o, err := s.GetOffice(ctx, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AdvisorProfile{}).
			Where("office_id = ?", id).
			Update("office_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Office{}, id).Error
	})
	if err != nil {
		return s.persistenceFailure(ctx, err, "delete office")
	}
	o.Advisors = nil
	s.writeAudit(ctx, caller, entityOffice, id, models.AuditActionDelete,
		fmt.Sprintf("Ofis silindi: %s", o.Name), *o, nil)
	return nil
}

func (s *Service) requireOffice(ctx context.Context, id uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Office{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return s.persistenceFailure(ctx, err, "check office")
	}
	if n == 0 {
		return apperr.Validation("Ofis bulunamadı")
	}
	return nil
}

func (s *Service) persistenceFailure(ctx context.Context, err error, op string) error {
	wrapped := apperr.Persistence(err, op)
	logging.LogError(ctx, s.logger, "veritabanı hatası", wrapped)
	return wrapped
}

func (s *Service) writeAudit(ctx context.Context, caller *auth.Identity, entity string, id uint, action models.AuditAction, desc string, before, after any) {
	if s.audit == nil || caller == nil {
		return
	}
	err := s.audit.WriteLog(ctx, audit.LogOptions{
		UserID:      caller.UserID,
		UserRole:    caller.Role,
		EntityType:  entity,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit log yazılamadı", "entity", entity, "id", id, "error", err)
	}
}
