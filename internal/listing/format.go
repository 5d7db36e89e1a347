package listing

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"emlak-backend/internal/models"
)

type DetailView struct {
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	GrossArea    float64 `json:"gross_area"`
	NetArea      float64 `json:"net_area"`
	Floor        string  `json:"floor"`
	HeatingType  string  `json:"heating_type"`
	BuildingAge  int     `json:"building_age"`
	Furnished    bool    `json:"furnished"`
	BalconyCount int     `json:"balcony_count"`
	HasBalcony   bool    `json:"has_balcony"`
	InComplex    bool    `json:"in_complex"`
}

type AdvisorView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	ImageURL string `json:"image_url"`
}

// PublicView is the externally visible shape of a property.
type PublicView struct {
	ID            uint                 `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Price         float64              `json:"price"`
	Currency      models.Currency      `json:"currency"`
	Category      models.Category      `json:"category"`
	Province      string               `json:"province"`
	District      string               `json:"district"`
	Neighborhood  string               `json:"neighborhood"`
	ListingIntent models.ListingIntent `json:"listing_intent"`
	ListingStatus models.ListingStatus `json:"listing_status"`
	ListingState  models.ListingState  `json:"listing_state"`
	StatusLabel   DisplayLabel         `json:"status_label"`
	StatusText    string               `json:"status_text"`
	IsFeatured    bool                 `json:"is_featured"`
	ViewCount     int64                `json:"view_count"`
	AdvisorID     *uint                `json:"advisor_id"`
	Advisor       *AdvisorView         `json:"advisor"`
	Details       *DetailView          `json:"details"`
	Features      []string             `json:"features"`
	Images        []string             `json:"images"`
	CoverImage    string               `json:"cover_image"`
	ApprovedAt    *time.Time           `json:"approved_at"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Format shapes rec for the API. It has no side effects; advisor may be nil.
func Format(rec *models.Property, advisor *models.AdvisorProfile, baseURL string) PublicView {
	label := ClassifyProperty(rec)
	v := PublicView{
		ID:            rec.ID,
		Title:         rec.Title,
		Description:   rec.Description,
		Price:         rec.Price,
		Currency:      rec.Currency,
		Category:      rec.Category,
		Province:      rec.Province,
		District:      rec.District,
		Neighborhood:  rec.Neighborhood,
		ListingIntent: rec.ListingIntent,
		ListingStatus: rec.ListingStatus,
		ListingState:  rec.ListingState,
		StatusLabel:   label,
		StatusText:    label.Text(),
		IsFeatured:    rec.IsFeatured,
		ViewCount:     rec.ViewCount,
		AdvisorID:     rec.AdvisorID,
		Features:      []string{},
		Images:        []string{},
		ApprovedAt:    rec.ApprovedAt,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}

	if d := rec.Detail; d != nil {
		v.Details = &DetailView{
			Bedrooms:     d.Bedrooms,
			Bathrooms:    d.Bathrooms,
			GrossArea:    d.GrossArea,
			NetArea:      d.NetArea,
			Floor:        d.Floor,
			HeatingType:  d.HeatingType,
			BuildingAge:  d.BuildingAge,
			Furnished:    d.Furnished,
			BalconyCount: d.BalconyCount,
			HasBalcony:   d.HasBalcony,
			InComplex:    d.InComplex,
		}
		v.Features = DecodeStringList(d.Features)
	}

	images := append([]models.PropertyImage(nil), rec.Images...)
	sort.SliceStable(images, func(i, j int) bool { return images[i].SortOrder < images[j].SortOrder })
	for _, img := range images {
		u := AbsoluteURL(baseURL, img.URL)
		v.Images = append(v.Images, u)
		if img.IsCover && v.CoverImage == "" {
			v.CoverImage = u
		}
	}
	if v.CoverImage == "" && len(v.Images) > 0 {
		v.CoverImage = v.Images[0]
	}

	if advisor != nil {
		v.Advisor = &AdvisorView{
			ID:       advisor.UserID,
			Name:     advisor.Name,
			Phone:    advisor.Phone,
			ImageURL: AbsoluteURL(baseURL, advisor.ImageURL),
		}
	}
	return v
}

// AbsoluteURL joins a stored media path onto baseURL. Absolute and
// protocol-relative URLs pass through unchanged; empty stays empty.
func AbsoluteURL(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(path, "//") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// DecodeStringList decodes a JSON array column. Null or malformed data yields an empty list.
func DecodeStringList(raw []byte) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
