package listing

import (
	"math"
	"strconv"
	"strings"

	"emlak-backend/internal/apperr"
)

// NumericMode decides what happens to malformed numeric, boolean and label input.
type NumericMode string

const (
	// ModeLenient drops malformed values as if the filter were absent.
	ModeLenient NumericMode = "lenient"
	// ModeStrict rejects them with a validation error.
	ModeStrict NumericMode = "strict"
)

// Tri is a tri-state flag filter.
type Tri int8

const (
	TriAny Tri = iota
	TriTrue
	TriFalse
)

// QueryGetter is satisfied by *fiber.Ctx.
type QueryGetter interface {
	Query(key string, defaultValue ...string) string
}

// Filters are the optional listing constraints. Zero values mean "absent".
type Filters struct {
	Category     string
	Province     string
	District     string
	Neighborhood string
	MinPrice     *float64
	MaxPrice     *float64
	MinArea      *float64
	MaxArea      *float64
	RoomCount    *int
	HeatingType  string
	BuildingAge  *int
	Furnished    Tri
	HasBalcony   Tri
	FeaturedOnly bool
	AdvisorID    *uint
	Label        DisplayLabel
}

type filterParser struct {
	q    QueryGetter
	mode NumericMode
	err  error
}

func (fp *filterParser) reject(key, raw string) {
	if fp.mode == ModeStrict && fp.err == nil {
		fp.err = apperr.Validation("Geçersiz filtre değeri: %s=%q", key, raw)
	}
}

func (fp *filterParser) str(key string) string {
	return strings.TrimSpace(fp.q.Query(key))
}

func (fp *filterParser) float(key string) *float64 {
	raw := fp.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		fp.reject(key, raw)
		return nil
	}
	return &v
}

func (fp *filterParser) int(key string) *int {
	raw := fp.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		fp.reject(key, raw)
		return nil
	}
	return &v
}

func (fp *filterParser) id(key string) *uint {
	raw := fp.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		fp.reject(key, raw)
		return nil
	}
	id := uint(v)
	return &id
}

func (fp *filterParser) tri(key string) Tri {
	raw := fp.str(key)
	switch normalizeTurkish(raw) {
	case "", "any", "all", "hepsi", "farketmez":
		return TriAny
	case "1", "true", "yes", "evet", "var":
		return TriTrue
	case "0", "false", "no", "hayir", "yok":
		return TriFalse
	}
	fp.reject(key, raw)
	return TriAny
}

// ParseFilters reads listing filters from query parameters.
func ParseFilters(q QueryGetter, mode NumericMode) (Filters, error) {
	fp := &filterParser{q: q, mode: mode}

	f := Filters{
		Category:     fp.str("category"),
		Province:     fp.str("province"),
		District:     fp.str("district"),
		Neighborhood: fp.str("neighborhood"),
		MinPrice:     fp.float("min_price"),
		MaxPrice:     fp.float("max_price"),
		MinArea:      fp.float("min_area"),
		MaxArea:      fp.float("max_area"),
		RoomCount:    fp.int("room_count"),
		HeatingType:  fp.str("heating_type"),
		BuildingAge:  fp.int("building_age"),
		Furnished:    fp.tri("furnished"),
		HasBalcony:   fp.tri("has_balcony"),
		FeaturedOnly: fp.tri("is_featured") == TriTrue,
		AdvisorID:    fp.id("advisor_id"),
	}

	if raw := fp.str("status"); raw != "" {
		if l, ok := ParseLabel(raw); ok {
			f.Label = l
		} else {
			fp.reject("status", raw)
		}
	}

	if fp.err != nil {
		return Filters{}, fp.err
	}
	return f, nil
}

// Build translates filters into a predicate: a conjunction over present filters only.
func Build(f Filters) Predicate {
	var exprs []Expr

	if f.Category != "" {
		exprs = append(exprs, Eq(FieldCategory, f.Category))
	}
	if f.Province != "" {
		exprs = append(exprs, Eq(FieldProvince, f.Province))
	}
	if f.District != "" {
		exprs = append(exprs, Eq(FieldDistrict, f.District))
	}
	if f.Neighborhood != "" {
		exprs = append(exprs, Eq(FieldNeighborhood, f.Neighborhood))
	}
	if f.MinPrice != nil {
		exprs = append(exprs, Gte(FieldPrice, *f.MinPrice))
	}
	if f.MaxPrice != nil {
		exprs = append(exprs, Lte(FieldPrice, *f.MaxPrice))
	}
	if f.MinArea != nil {
		exprs = append(exprs, Gte(FieldGrossArea, *f.MinArea))
	}
	if f.MaxArea != nil {
		exprs = append(exprs, Lte(FieldGrossArea, *f.MaxArea))
	}
	if f.RoomCount != nil {
		exprs = append(exprs, Eq(FieldBedrooms, *f.RoomCount))
	}
	if f.HeatingType != "" {
		exprs = append(exprs, Eq(FieldHeatingType, f.HeatingType))
	}
	if f.BuildingAge != nil {
		exprs = append(exprs, Eq(FieldBuildingAge, *f.BuildingAge))
	}
	if f.Furnished != TriAny {
		exprs = append(exprs, Eq(FieldFurnished, f.Furnished == TriTrue))
	}
	if f.HasBalcony != TriAny {
		exprs = append(exprs, Eq(FieldHasBalcony, f.HasBalcony == TriTrue))
	}
	if f.FeaturedOnly {
		exprs = append(exprs, Eq(FieldIsFeatured, true))
	}
	if f.AdvisorID != nil {
		exprs = append(exprs, AnyOf{Eq(FieldAdvisorID, *f.AdvisorID), Eq(FieldCreatedBy, *f.AdvisorID)})
	}
	if f.Label != "" {
		exprs = append(exprs, LabelConditions(f.Label)...)
	}

	return Predicate{}.And(exprs...)
}

// ParseNumericMode maps a config value to a mode, defaulting to lenient.
func ParseNumericMode(s string) NumericMode {
	if NumericMode(strings.ToLower(strings.TrimSpace(s))) == ModeStrict {
		return ModeStrict
	}
	return ModeLenient
}
