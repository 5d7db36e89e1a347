// Package listing implements property search, visibility, classification,
// authorization and the transactional create/update flows.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/audit"
	"emlak-backend/internal/auth"
	"emlak-backend/internal/logging"
	"emlak-backend/internal/models"
)

const entityProperty = "property"

type Options struct {
	Store    Store
	Advisors AdvisorDirectory
	Notifier Notifier
	Audit    AuditWriter
	Logger   *slog.Logger
	BaseURL  string
	Mode     NumericMode
}

type Service struct {
	store    Store
	advisors AdvisorDirectory
	notifier Notifier
	audit    AuditWriter
	logger   *slog.Logger
	baseURL  string
	mode     NumericMode
	now      func() time.Time

	bg sync.WaitGroup
}

func NewService(o Options) *Service {
	s := &Service{
		store:    o.Store,
		advisors: o.Advisors,
		notifier: o.Notifier,
		audit:    o.Audit,
		logger:   o.Logger,
		baseURL:  o.BaseURL,
		mode:     o.Mode,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.audit == nil {
		s.audit = nopAudit{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.mode == "" {
		s.mode = ModeLenient
	}
	return s
}

func (s *Service) Mode() NumericMode { return s.mode }

// Close waits for in-flight view counter updates.
func (s *Service) Close() { s.bg.Wait() }

// ModeratedView is returned to admins after a moderation decision.
type ModeratedView struct {
	PublicView
	ModerationReason string `json:"moderation_reason"`
}

// List returns every record matching f that caller may see.
func (s *Service) List(ctx context.Context, caller *auth.Identity, f Filters) ([]PublicView, error) {
	recs, err := s.find(ctx, caller, f)
	if err != nil {
		return nil, err
	}
	return s.formatAll(ctx, recs), nil
}

// MyListings is the own-work scope: records the caller created or is assigned to.
func (s *Service) MyListings(ctx context.Context, caller *auth.Identity) ([]PublicView, error) {
	if caller.IsAnonymous() {
		return nil, apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
	}
	id := caller.UserID
	return s.List(ctx, caller, Filters{AdvisorID: &id})
}

func (s *Service) find(ctx context.Context, caller *auth.Identity, f Filters) ([]models.Property, error) {
	pred := Narrow(caller, f, Build(f))
	recs, err := s.store.FindProperties(ctx, pred)
	if err != nil {
		return nil, s.persistenceFailure(ctx, err, "find properties")
	}
	return recs, nil
}

// Get returns one record. Missing, deleted and invisible records are all NotFound.
func (s *Service) Get(ctx context.Context, caller *auth.Identity, id uint) (PublicView, error) {
	rec, err := s.load(ctx, caller, id)
	if err != nil {
		return PublicView{}, err
	}
	s.countView(ctx, id)
	return s.format(ctx, rec), nil
}

func (s *Service) countView(ctx context.Context, id uint) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.store.IncrementViewCount(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "görüntülenme sayısı güncellenemedi", "property_id", id, "error", err)
		}
	}()
}

func (s *Service) load(ctx context.Context, caller *auth.Identity, id uint) (*models.Property, error) {
	rec, err := s.store.FindPropertyByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("İlan bulunamadı")
		}
		return nil, s.persistenceFailure(ctx, err, "find property")
	}
	if !IsVisible(caller, rec) {
		return nil, apperr.NotFound("İlan bulunamadı")
	}
	return rec, nil
}

// Create stores a new listing with its detail row and images in one transaction.
// Listings submitted by plain users wait for moderation; advisors and admins
// are approved immediately.
func (s *Service) Create(ctx context.Context, caller *auth.Identity, req CreateRequest) (PublicView, error) {
	if err := Authorize(caller, nil, OpCreate).Err(); err != nil {
		return PublicView{}, err
	}
	if err := AuthorizeFields(caller, req.restrictedFields()).Err(); err != nil {
		return PublicView{}, err
	}

	p, detail, err := newProperty(caller, req)
	if err != nil {
		return PublicView{}, err
	}
	if err := checkDetail(detail); err != nil {
		return PublicView{}, err
	}
	imgs := buildImages(req.Images, req.CoverIndex)

	if caller.IsAdvisor() && p.AdvisorID == nil {
		self := caller.UserID
		p.AdvisorID = &self
	}
	if caller.Role != models.RoleUser {
		if err := s.applyStatus(ctx, p, models.StatusApproved, ""); err != nil {
			return PublicView{}, err
		}
	}
	if err := checkInvariants(p); err != nil {
		return PublicView{}, err
	}

	err = s.store.InTransaction(ctx, func(tx Store) error {
		if err := tx.InsertProperty(ctx, p); err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
		detail.PropertyID = p.ID
		if err := tx.InsertDetail(ctx, detail); err != nil {
			return fmt.Errorf("insert detail: %w", err)
		}
		if len(imgs) > 0 {
			if err := tx.InsertImages(ctx, p.ID, imgs); err != nil {
				return fmt.Errorf("insert images: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return PublicView{}, s.persistenceFailure(ctx, err, "create property")
	}

	rec, err := s.store.FindPropertyByID(ctx, p.ID)
	if err != nil {
		return PublicView{}, s.persistenceFailure(ctx, err, "reload property")
	}

	s.writeAudit(ctx, caller, rec.ID, models.AuditActionCreate,
		fmt.Sprintf("İlan eklendi: %s", rec.Title), nil, rec)

	if rec.ListingStatus == models.StatusPending {
		if err := s.notifier.ListingSubmitted(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "ilan bildirimi kuyruğa alınamadı", "property_id", rec.ID, "error", err)
		}
	}

	return s.format(ctx, rec), nil
}

func newProperty(caller *auth.Identity, req CreateRequest) (*models.Property, *models.PropertyDetail, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, nil, apperr.Validation("Başlık boş olamaz")
	}
	if !validPrice(req.Price) {
		return nil, nil, apperr.Validation("Fiyat 0'dan büyük olmalı")
	}
	province := strings.TrimSpace(req.Province)
	district := strings.TrimSpace(req.District)
	if province == "" || district == "" {
		return nil, nil, apperr.Validation("İl ve ilçe zorunlu")
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, nil, err
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		return nil, nil, err
	}
	intent, err := parseIntent(req.ListingIntent)
	if err != nil {
		return nil, nil, err
	}

	p := &models.Property{
		CreatedBy:     caller.UserID,
		AdvisorID:     req.AdvisorID,
		Title:         title,
		Description:   strings.TrimSpace(req.Description),
		Price:         req.Price,
		Currency:      currency,
		Category:      category,
		Province:      province,
		District:      district,
		Neighborhood:  strings.TrimSpace(req.Neighborhood),
		ListingIntent: intent,
		ListingStatus: models.StatusPending,
		ListingState:  models.StateActive,
		IsFeatured:    req.IsFeatured,
	}
	d := &models.PropertyDetail{
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		GrossArea:    req.GrossArea,
		NetArea:      req.NetArea,
		Floor:        strings.TrimSpace(req.Floor),
		HeatingType:  strings.TrimSpace(req.HeatingType),
		BuildingAge:  req.BuildingAge,
		Furnished:    req.Furnished,
		BalconyCount: req.BalconyCount,
		HasBalcony:   req.HasBalcony || req.BalconyCount > 0,
		InComplex:    req.InComplex,
		Features:     encodeFeatures(req.Features),
	}
	return p, d, nil
}

// Update applies a partial patch. The property row, its detail row and the
// image list change together or not at all.
func (s *Service) Update(ctx context.Context, caller *auth.Identity, id uint, req PatchRequest) (PublicView, error) {
	if caller.IsAnonymous() {
		return PublicView{}, apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
	}
	rec, err := s.load(ctx, caller, id)
	if err != nil {
		return PublicView{}, err
	}
	if err := Authorize(caller, rec, OpPatch).Err(); err != nil {
		return PublicView{}, err
	}
	if err := AuthorizeFields(caller, req.restrictedFields()).Err(); err != nil {
		return PublicView{}, err
	}

	updated := *rec
	updated.Detail, updated.Images = nil, nil

	detail := models.PropertyDetail{PropertyID: rec.ID}
	if rec.Detail != nil {
		detail = *rec.Detail
	}

	if err := s.applyPatch(ctx, &updated, &detail, req); err != nil {
		return PublicView{}, err
	}
	if err := checkInvariants(&updated); err != nil {
		return PublicView{}, err
	}
	if err := checkDetail(&detail); err != nil {
		return PublicView{}, err
	}

	var imgs []models.PropertyImage
	if req.Images != nil {
		cover := 0
		if req.CoverIndex != nil {
			cover = *req.CoverIndex
		}
		imgs = buildImages(*req.Images, cover)
	}

	err = s.store.InTransaction(ctx, func(tx Store) error {
		if err := tx.UpdateProperty(ctx, &updated); err != nil {
			return fmt.Errorf("update property: %w", err)
		}
		if req.touchesDetail() {
			if err := tx.SaveDetail(ctx, &detail); err != nil {
				return fmt.Errorf("save detail: %w", err)
			}
		}
		if req.Images != nil {
			if err := tx.ReplaceImages(ctx, rec.ID, imgs); err != nil {
				return fmt.Errorf("replace images: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return PublicView{}, s.persistenceFailure(ctx, err, "update property")
	}

	after, err := s.store.FindPropertyByID(ctx, rec.ID)
	if err != nil {
		return PublicView{}, s.persistenceFailure(ctx, err, "reload property")
	}

	s.writeAudit(ctx, caller, rec.ID, models.AuditActionUpdate,
		fmt.Sprintf("İlan güncellendi: %s", after.Title), rec, after)

	return s.format(ctx, after), nil
}

func (s *Service) applyPatch(ctx context.Context, p *models.Property, d *models.PropertyDetail, req PatchRequest) error {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Currency != nil {
		c, err := parseCurrency(*req.Currency)
		if err != nil {
			return err
		}
		p.Currency = c
	}
	if req.Category != nil {
		c, err := parseCategory(*req.Category)
		if err != nil {
			return err
		}
		p.Category = c
	}
	if req.Province != nil {
		p.Province = strings.TrimSpace(*req.Province)
	}
	if req.District != nil {
		p.District = strings.TrimSpace(*req.District)
	}
	if req.Neighborhood != nil {
		p.Neighborhood = strings.TrimSpace(*req.Neighborhood)
	}
	if req.ListingIntent != nil {
		i, err := parseIntent(*req.ListingIntent)
		if err != nil {
			return err
		}
		p.ListingIntent = i
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
	if req.AdvisorID != nil {
		if *req.AdvisorID == 0 {
			p.AdvisorID = nil
		} else {
			a := *req.AdvisorID
			p.AdvisorID = &a
		}
	}
	if req.ListingStatus != nil {
		st, err := parseStatus(*req.ListingStatus)
		if err != nil {
			return err
		}
		if err := s.applyStatus(ctx, p, st, p.ModerationReason); err != nil {
			return err
		}
	}
	if req.ListingState != nil {
		st, err := parseState(*req.ListingState)
		if err != nil {
			return err
		}
		p.ListingState = st
	}

	if req.Bedrooms != nil {
		d.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		d.Bathrooms = *req.Bathrooms
	}
	if req.GrossArea != nil {
		d.GrossArea = *req.GrossArea
	}
	if req.NetArea != nil {
		d.NetArea = *req.NetArea
	}
	if req.Floor != nil {
		d.Floor = strings.TrimSpace(*req.Floor)
	}
	if req.HeatingType != nil {
		d.HeatingType = strings.TrimSpace(*req.HeatingType)
	}
	if req.BuildingAge != nil {
		d.BuildingAge = *req.BuildingAge
	}
	if req.Furnished != nil {
		d.Furnished = *req.Furnished
	}
	if req.BalconyCount != nil {
		d.BalconyCount = *req.BalconyCount
	}
	if req.HasBalcony != nil {
		d.HasBalcony = *req.HasBalcony
	}
	if req.InComplex != nil {
		d.InComplex = *req.InComplex
	}
	if req.Features != nil {
		d.Features = encodeFeatures(*req.Features)
	}
	return nil
}

// applyStatus moves p to status. Approval stamps ApprovedAt and assigns the
// fallback advisor when none is set; leaving approval resets the state to active.
func (s *Service) applyStatus(ctx context.Context, p *models.Property, status models.ListingStatus, reason string) error {
	prev := p.ListingStatus
	p.ListingStatus = status
	p.ModerationReason = reason

	if status != models.StatusApproved {
		p.ApprovedAt = nil
		p.ListingState = models.StateActive
		return nil
	}

	if p.AdvisorID == nil && s.advisors != nil {
		id, err := s.advisors.DefaultAdvisorID(ctx)
		if err != nil {
			return s.persistenceFailure(ctx, err, "default advisor")
		}
		if id != 0 {
			p.AdvisorID = &id
		}
	}
	if prev != models.StatusApproved || p.ApprovedAt == nil {
		now := s.now()
		p.ApprovedAt = &now
	}
	return nil
}

// Moderate records an admin decision. Rejections need a reason.
func (s *Service) Moderate(ctx context.Context, caller *auth.Identity, id uint, req ModerationRequest) (ModeratedView, error) {
	if caller.IsAnonymous() {
		return ModeratedView{}, apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
	}
	if !caller.IsAdmin() {
		return ModeratedView{}, apperr.Forbidden("İlan onayı sadece yönetici tarafından yapılabilir")
	}

	status, err := parseStatus(req.Status)
	if err != nil {
		return ModeratedView{}, err
	}
	reason := strings.TrimSpace(req.Reason)
	if status == models.StatusRejected && reason == "" {
		return ModeratedView{}, apperr.Validation("Red gerekçesi zorunlu")
	}

	rec, err := s.load(ctx, caller, id)
	if err != nil {
		return ModeratedView{}, err
	}

	updated := *rec
	updated.Detail, updated.Images = nil, nil
	if err := s.applyStatus(ctx, &updated, status, reason); err != nil {
		return ModeratedView{}, err
	}
	if err := checkInvariants(&updated); err != nil {
		return ModeratedView{}, err
	}

	err = s.store.InTransaction(ctx, func(tx Store) error {
		return tx.UpdateProperty(ctx, &updated)
	})
	if err != nil {
		return ModeratedView{}, s.persistenceFailure(ctx, err, "moderate property")
	}

	after, err := s.store.FindPropertyByID(ctx, id)
	if err != nil {
		return ModeratedView{}, s.persistenceFailure(ctx, err, "reload property")
	}

	s.writeAudit(ctx, caller, id, models.AuditActionModerate,
		fmt.Sprintf("İlan durumu %s -> %s: %s", rec.ListingStatus, after.ListingStatus, after.Title), rec, after)

	if err := s.notifier.ListingModerated(ctx, after); err != nil {
		s.logger.WarnContext(ctx, "onay bildirimi kuyruğa alınamadı", "property_id", id, "error", err)
	}

	return ModeratedView{PublicView: s.format(ctx, after), ModerationReason: after.ModerationReason}, nil
}

// Delete soft-deletes a listing.
func (s *Service) Delete(ctx context.Context, caller *auth.Identity, id uint) error {
	if caller.IsAnonymous() {
		return apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
	}
	rec, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := Authorize(caller, rec, OpDelete).Err(); err != nil {
		return err
	}

	err = s.store.InTransaction(ctx, func(tx Store) error {
		return tx.SoftDeleteProperty(ctx, id)
	})
	if err != nil {
		return s.persistenceFailure(ctx, err, "delete property")
	}

	s.writeAudit(ctx, caller, id, models.AuditActionDelete,
		fmt.Sprintf("İlan silindi: %s", rec.Title), rec, nil)
	return nil
}

func (s *Service) persistenceFailure(ctx context.Context, err error, op string) error {
	wrapped := apperr.Persistence(err, op)
	logging.LogError(ctx, s.logger, "veritabanı hatası", wrapped)
	return wrapped
}

func (s *Service) writeAudit(ctx context.Context, caller *auth.Identity, id uint, action models.AuditAction, desc string, before, after any) {
	opts := audit.LogOptions{
		UserID:      caller.UserID,
		UserRole:    caller.Role,
		EntityType:  entityProperty,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	}
	if err := s.audit.WriteLog(ctx, opts); err != nil {
		s.logger.WarnContext(ctx, "audit log yazılamadı", "property_id", id, "error", err)
	}
}

func (s *Service) format(ctx context.Context, rec *models.Property) PublicView {
	return Format(rec, s.advisorFor(ctx, rec, nil), s.baseURL)
}

func (s *Service) formatAll(ctx context.Context, recs []models.Property) []PublicView {
	cache := map[uint]*models.AdvisorProfile{}
	out := make([]PublicView, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		out = append(out, Format(rec, s.advisorFor(ctx, rec, cache), s.baseURL))
	}
	return out
}

// advisorFor looks up the display profile; a lookup failure only drops the advisor block.
func (s *Service) advisorFor(ctx context.Context, rec *models.Property, cache map[uint]*models.AdvisorProfile) *models.AdvisorProfile {
	if rec.AdvisorID == nil || s.advisors == nil {
		return nil
	}
	id := *rec.AdvisorID
	if a, ok := cache[id]; ok {
		return a
	}
	a, err := s.advisors.AdvisorByUserID(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "danışman bilgisi alınamadı", "advisor_id", id, "error", err)
		a = nil
	}
	if cache != nil {
		cache[id] = a
	}
	return a
}
