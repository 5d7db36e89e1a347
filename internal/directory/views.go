package directory

import (
	"strings"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/listing"
	"emlak-backend/internal/models"
)

type AdvisorResponse struct {
	ID       uint   `json:"id"` // kullanıcı ID'si, ilanlardaki advisor_id ile aynı
	Name     string `json:"name"`
	Title    string `json:"title"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio"`
	OfficeID *uint  `json:"office_id"`
}

type OfficeResponse struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Address   string            `json:"address"`
	Phone     string            `json:"phone"`
	Province  string            `json:"province"`
	District  string            `json:"district"`
	ImageURL  string            `json:"image_url"`
	CreatedAt string            `json:"created_at"`
	Advisors  []AdvisorResponse `json:"advisors,omitempty"`
}

type CreateAdvisorRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
	Title    string `json:"title" form:"title"`
	ImageURL string `json:"image_url" form:"image_url"`
	Bio      string `json:"bio" form:"bio"`
	OfficeID *uint  `json:"office_id" form:"office_id"`
}

type UpdateAdvisorRequest struct {
	Name     *string `json:"name" form:"name"`
	Title    *string `json:"title" form:"title"`
	Phone    *string `json:"phone" form:"phone"`
	ImageURL *string `json:"image_url" form:"image_url"`
	Bio      *string `json:"bio" form:"bio"`
	OfficeID *uint   `json:"office_id" form:"office_id"` // 0 ofisten çıkarır
}

func (r UpdateAdvisorRequest) apply(p *models.AdvisorProfile) error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return apperr.Validation("Danışman adı boş olamaz")
		}
		p.Name = name
	}
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.Phone != nil {
		p.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*r.ImageURL)
	}
	if r.Bio != nil {
		p.Bio = strings.TrimSpace(*r.Bio)
	}
	if r.OfficeID != nil {
		if *r.OfficeID == 0 {
			p.OfficeID = nil
		} else {
			id := *r.OfficeID
			p.OfficeID = &id
		}
	}
	return nil
}

type OfficeRequest struct {
	Name     *string `json:"name" form:"name"`
	Address  *string `json:"address" form:"address"`
	Phone    *string `json:"phone" form:"phone"`
	Province *string `json:"province" form:"province"`
	District *string `json:"district" form:"district"`
	ImageURL *string `json:"image_url" form:"image_url"`
}

func (r OfficeRequest) apply(o *models.Office) error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return apperr.Validation("Ofis adı boş olamaz")
		}
		o.Name = name
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&o.Address, r.Address)
	set(&o.Phone, r.Phone)
	set(&o.Province, r.Province)
	set(&o.District, r.District)
	set(&o.ImageURL, r.ImageURL)
	return nil
}

func toAdvisorResponse(p *models.AdvisorProfile, baseURL string) AdvisorResponse {
	return AdvisorResponse{
		ID:       p.UserID,
		Name:     p.Name,
		Title:    p.Title,
		Phone:    p.Phone,
		Email:    p.Email,
		ImageURL: listing.AbsoluteURL(baseURL, p.ImageURL),
		Bio:      p.Bio,
		OfficeID: p.OfficeID,
	}
}

func toAdvisorResponses(ps []models.AdvisorProfile, baseURL string) []AdvisorResponse {
	out := make([]AdvisorResponse, 0, len(ps))
	for i := range ps {
		out = append(out, toAdvisorResponse(&ps[i], baseURL))
	}
	return out
}

func toOfficeResponse(o *models.Office, baseURL string) OfficeResponse {
	res := OfficeResponse{
		ID:        o.ID,
		Name:      o.Name,
		Address:   o.Address,
		Phone:     o.Phone,
		Province:  o.Province,
		District:  o.District,
		ImageURL:  listing.AbsoluteURL(baseURL, o.ImageURL),
		CreatedAt: o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if len(o.Advisors) > 0 {
		res.Advisors = toAdvisorResponses(o.Advisors, baseURL)
	}
	return res
}
