package listing

import (
	"context"
	"io"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/auth"
	"emlak-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

var exportHeader = []any{
	"ID", "Başlık", "Kategori", "Tip", "Durum", "Fiyat", "Para Birimi",
	"İl", "İlçe", "Mahalle", "Oda", "Brüt m²", "Danışman ID", "Görüntülenme", "Oluşturulma",
}

// Export writes the listings matching f as an xlsx workbook. Admin only.
func (s *Service) Export(ctx context.Context, caller *auth.Identity, f Filters, w io.Writer) error {
	if caller.IsAnonymous() {
		return apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
	}
	if !caller.IsAdmin() {
		return apperr.Forbidden("Dışa aktarma sadece yönetici tarafından yapılabilir")
	}

	recs, err := s.find(ctx, caller, f)
	if err != nil {
		return err
	}

	book, err := buildWorkbook(recs)
	if err != nil {
		return apperr.Upstream(err, "excelize")
	}
	defer book.Close()

	if err := book.Write(w); err != nil {
		return apperr.Upstream(err, "excelize")
	}
	return nil
}

func buildWorkbook(recs []models.Property) (*excelize.File, error) {
	book := excelize.NewFile()

	header := exportHeader
	if err := book.SetSheetRow(exportSheet, "A1", &header); err != nil {
		book.Close()
		return nil, err
	}

	for i := range recs {
		p := &recs[i]
		var bedrooms int
		var area float64
		if p.Detail != nil {
			bedrooms = p.Detail.Bedrooms
			area = p.Detail.GrossArea
		}
		var advisor any = ""
		if p.AdvisorID != nil {
			advisor = *p.AdvisorID
		}

		row := []any{
			p.ID, p.Title, string(p.Category), intentText(p.ListingIntent), ClassifyProperty(p).Text(),
			p.Price, string(p.Currency), p.Province, p.District, p.Neighborhood,
			bedrooms, area, advisor, p.ViewCount, p.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			book.Close()
			return nil, err
		}
		if err := book.SetSheetRow(exportSheet, cell, &row); err != nil {
			book.Close()
			return nil, err
		}
	}
	return book, nil
}

func intentText(i models.ListingIntent) string {
	if i == models.IntentRent {
		return "Kiralık"
	}
	return "Satılık"
}
