package listing

import (
	"encoding/json"
	"math"
	"strings"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/models"

	"gorm.io/datatypes"
)

// CreateRequest is the body of a listing submission. JSON and form bodies are accepted.
type CreateRequest struct {
	Title         string  `json:"title" form:"title"`
	Description   string  `json:"description" form:"description"`
	Price         float64 `json:"price" form:"price"`
	Currency      string  `json:"currency" form:"currency"`
	Category      string  `json:"category" form:"category"`
	Province      string  `json:"province" form:"province"`
	District      string  `json:"district" form:"district"`
	Neighborhood  string  `json:"neighborhood" form:"neighborhood"`
	ListingIntent string  `json:"listing_intent" form:"listing_intent"`
	AdvisorID     *uint   `json:"advisor_id" form:"advisor_id"`
	IsFeatured    bool    `json:"is_featured" form:"is_featured"`

	Bedrooms     int      `json:"bedrooms" form:"bedrooms"`
	Bathrooms    int      `json:"bathrooms" form:"bathrooms"`
	GrossArea    float64  `json:"gross_area" form:"gross_area"`
	NetArea      float64  `json:"net_area" form:"net_area"`
	Floor        string   `json:"floor" form:"floor"`
	HeatingType  string   `json:"heating_type" form:"heating_type"`
	BuildingAge  int      `json:"building_age" form:"building_age"`
	Furnished    bool     `json:"furnished" form:"furnished"`
	BalconyCount int      `json:"balcony_count" form:"balcony_count"`
	HasBalcony   bool     `json:"has_balcony" form:"has_balcony"`
	InComplex    bool     `json:"in_complex" form:"in_complex"`
	Features     []string `json:"features" form:"features"`

	Images     []string `json:"images" form:"images"`
	CoverIndex int      `json:"cover_index" form:"cover_index"`
}

func (r CreateRequest) restrictedFields() FieldSet {
	s := FieldSet{}
	if r.IsFeatured {
		s[PatchIsFeatured] = true
	}
	if r.AdvisorID != nil {
		s[PatchAdvisorID] = true
	}
	return s
}

// PatchRequest is a partial update. Nil fields are left unchanged.
type PatchRequest struct {
	Title         *string  `json:"title" form:"title"`
	Description   *string  `json:"description" form:"description"`
	Price         *float64 `json:"price" form:"price"`
	Currency      *string  `json:"currency" form:"currency"`
	Category      *string  `json:"category" form:"category"`
	Province      *string  `json:"province" form:"province"`
	District      *string  `json:"district" form:"district"`
	Neighborhood  *string  `json:"neighborhood" form:"neighborhood"`
	ListingIntent *string  `json:"listing_intent" form:"listing_intent"`
	ListingState  *string  `json:"listing_state" form:"listing_state"`
	ListingStatus *string  `json:"listing_status" form:"listing_status"`
	IsFeatured    *bool    `json:"is_featured" form:"is_featured"`
	AdvisorID     *uint    `json:"advisor_id" form:"advisor_id"`

	Bedrooms     *int      `json:"bedrooms" form:"bedrooms"`
	Bathrooms    *int      `json:"bathrooms" form:"bathrooms"`
	GrossArea    *float64  `json:"gross_area" form:"gross_area"`
	NetArea      *float64  `json:"net_area" form:"net_area"`
	Floor        *string   `json:"floor" form:"floor"`
	HeatingType  *string   `json:"heating_type" form:"heating_type"`
	BuildingAge  *int      `json:"building_age" form:"building_age"`
	Furnished    *bool     `json:"furnished" form:"furnished"`
	BalconyCount *int      `json:"balcony_count" form:"balcony_count"`
	HasBalcony   *bool     `json:"has_balcony" form:"has_balcony"`
	InComplex    *bool     `json:"in_complex" form:"in_complex"`
	Features     *[]string `json:"features" form:"features"`

	Images     *[]string `json:"images" form:"images"`
	CoverIndex *int      `json:"cover_index" form:"cover_index"`
}

func (r PatchRequest) restrictedFields() FieldSet {
	s := FieldSet{}
	if r.ListingStatus != nil {
		s[PatchListingStatus] = true
	}
	if r.IsFeatured != nil {
		s[PatchIsFeatured] = true
	}
	if r.AdvisorID != nil {
		s[PatchAdvisorID] = true
	}
	return s
}

func (r PatchRequest) touchesDetail() bool {
	return r.Bedrooms != nil || r.Bathrooms != nil || r.GrossArea != nil || r.NetArea != nil ||
		r.Floor != nil || r.HeatingType != nil || r.BuildingAge != nil || r.Furnished != nil ||
		r.BalconyCount != nil || r.HasBalcony != nil || r.InComplex != nil || r.Features != nil
}

// ModerationRequest is the admin decision on a listing.
type ModerationRequest struct {
	Status string `json:"status" form:"status"`
	Reason string `json:"reason" form:"reason"`
}

func parseCurrency(s string) (models.Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "TRY" {
		return models.CurrencyTL, nil
	}
	c := models.Currency(s)
	if !c.Valid() {
		return "", apperr.Validation("Geçersiz para birimi: %s", s)
	}
	return c, nil
}

func parseCategory(s string) (models.Category, error) {
	c := models.Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", apperr.Validation("Geçersiz kategori")
	}
	return c, nil
}

func parseIntent(s string) (models.ListingIntent, error) {
	switch normalizeTurkish(s) {
	case "sale", "satilik":
		return models.IntentSale, nil
	case "rent", "kiralik":
		return models.IntentRent, nil
	}
	return "", apperr.Validation("İlan tipi satılık (sale) ya da kiralık (rent) olmalı")
}

func parseState(s string) (models.ListingState, error) {
	st := models.ListingState(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperr.Validation("Geçersiz ilan durumu")
	}
	return st, nil
}

func parseStatus(s string) (models.ListingStatus, error) {
	st := models.ListingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperr.Validation("Geçersiz onay durumu")
	}
	return st, nil
}

func encodeFeatures(tags []string) datatypes.JSON {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	b, _ := json.Marshal(clean)
	return datatypes.JSON(b)
}

// buildImages orders references as given and flags one cover; an out of range index falls back to the first.
func buildImages(refs []string, coverIndex int) []models.PropertyImage {
	imgs := make([]models.PropertyImage, 0, len(refs))
	for _, r := range refs {
		if r = strings.TrimSpace(r); r == "" {
			continue
		}
		imgs = append(imgs, models.PropertyImage{URL: r, SortOrder: len(imgs)})
	}
	if len(imgs) == 0 {
		return imgs
	}
	if coverIndex < 0 || coverIndex >= len(imgs) {
		coverIndex = 0
	}
	imgs[coverIndex].IsCover = true
	return imgs
}

// checkInvariants: satıldı sadece satılıkta, kiralandı sadece kiralıkta ve ikisi de onay ister
func checkInvariants(p *models.Property) error {
	if !p.ListingIntent.Valid() {
		return apperr.Validation("İlan tipi satılık (sale) ya da kiralık (rent) olmalı")
	}
	switch p.ListingState {
	case models.StateSold:
		if p.ListingIntent != models.IntentSale {
			return apperr.Validation("Sadece satılık ilan satıldı olarak işaretlenebilir")
		}
	case models.StateRented:
		if p.ListingIntent != models.IntentRent {
			return apperr.Validation("Sadece kiralık ilan kiralandı olarak işaretlenebilir")
		}
	}
	if p.ListingState != models.StateActive && p.ListingStatus != models.StatusApproved {
		return apperr.Validation("Onaylanmamış ilan satıldı/kiralandı olarak işaretlenemez")
	}
	if !validPrice(p.Price) {
		return apperr.Validation("Fiyat 0'dan büyük olmalı")
	}
	if strings.TrimSpace(p.Title) == "" {
		return apperr.Validation("Başlık boş olamaz")
	}
	if strings.TrimSpace(p.Province) == "" || strings.TrimSpace(p.District) == "" {
		return apperr.Validation("İl ve ilçe zorunlu")
	}
	return nil
}

// checkDetail: alanlar sonlu ve negatif olmayan sayılar olmalı
func checkDetail(d *models.PropertyDetail) error {
	if !validArea(d.GrossArea) || !validArea(d.NetArea) {
		return apperr.Validation("Alan değeri geçersiz")
	}
	return nil
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func validArea(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
