package listing

import (
	"strings"

	"emlak-backend/internal/models"
)

// DisplayLabel is the lifecycle label shown to visitors.
type DisplayLabel string

const (
	LabelPending DisplayLabel = "pending"
	LabelForSale DisplayLabel = "for_sale"
	LabelSold    DisplayLabel = "sold"
	LabelForRent DisplayLabel = "for_rent"
	LabelRented  DisplayLabel = "rented"
)

// Text is the Turkish display text of the label.
func (l DisplayLabel) Text() string {
	switch l {
	case LabelPending:
		return "Onay Bekliyor"
	case LabelForSale:
		return "Satılık"
	case LabelSold:
		return "Satıldı"
	case LabelForRent:
		return "Kiralık"
	case LabelRented:
		return "Kiralandı"
	}
	return ""
}

// Classify derives the display label from the status triad. First match wins:
// not approved is pending, then intent decides between the sale and rent pairs.
func Classify(intent models.ListingIntent, status models.ListingStatus, state models.ListingState) DisplayLabel {
	if status != models.StatusApproved {
		return LabelPending
	}
	if intent == models.IntentRent {
		if state == models.StateRented {
			return LabelRented
		}
		return LabelForRent
	}
	if state == models.StateSold {
		return LabelSold
	}
	return LabelForSale
}

// ClassifyProperty is Classify over a loaded record.
func ClassifyProperty(p *models.Property) DisplayLabel {
	return Classify(p.ListingIntent, p.ListingStatus, p.ListingState)
}

// LabelConditions returns the conjunction that selects exactly the records
// Classify maps to label.
func LabelConditions(label DisplayLabel) []Expr {
	approved := Eq(FieldStatus, string(models.StatusApproved))
	switch label {
	case LabelPending:
		return []Expr{Ne(FieldStatus, string(models.StatusApproved))}
	case LabelForSale:
		return []Expr{Eq(FieldIntent, string(models.IntentSale)), approved, Ne(FieldState, string(models.StateSold))}
	case LabelSold:
		return []Expr{Eq(FieldIntent, string(models.IntentSale)), approved, Eq(FieldState, string(models.StateSold))}
	case LabelForRent:
		return []Expr{Eq(FieldIntent, string(models.IntentRent)), approved, Ne(FieldState, string(models.StateRented))}
	case LabelRented:
		return []Expr{Eq(FieldIntent, string(models.IntentRent)), approved, Eq(FieldState, string(models.StateRented))}
	}
	return nil
}

var labelAliases = map[string]DisplayLabel{
	"pending":       LabelPending,
	"onay bekliyor": LabelPending,
	"beklemede":     LabelPending,
	"for sale":      LabelForSale,
	"forsale":       LabelForSale,
	"sale":          LabelForSale,
	"satilik":       LabelForSale,
	"sold":          LabelSold,
	"satildi":       LabelSold,
	"for rent":      LabelForRent,
	"forrent":       LabelForRent,
	"rent":          LabelForRent,
	"kiralik":       LabelForRent,
	"rented":        LabelRented,
	"kiralandi":     LabelRented,
}

// ParseLabel accepts English and Turkish spellings ("for_sale", "Satılık", "KİRALANDI").
func ParseLabel(s string) (DisplayLabel, bool) {
	key := normalizeTurkish(s)
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")
	l, ok := labelAliases[key]
	return l, ok
}

// normalizeTurkish: Türkçe karakterleri ASCII karşılıklarına çevirir ve küçültür
// Örn: "KİRALIK" -> "kiralik"
func normalizeTurkish(s string) string {
	replacements := map[rune]string{
		'ç': "c", 'Ç': "C",
		'ğ': "g", 'Ğ': "G",
		'ı': "i", 'İ': "I",
		'ö': "o", 'Ö': "O",
		'ş': "s", 'Ş': "S",
		'ü': "u", 'Ü': "U",
	}

	var result strings.Builder
	for _, r := range s {
		if replacement, ok := replacements[r]; ok {
			result.WriteString(replacement)
		} else {
			result.WriteRune(r)
		}
	}
	return strings.ToLower(strings.TrimSpace(result.String()))
}
