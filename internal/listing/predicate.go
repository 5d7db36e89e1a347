package listing

import (
	"strings"

	"emlak-backend/internal/models"
)

// Field is a fixed, qualified column identifier. Caller input never becomes a Field.
type Field string

const (
	FieldCategory     Field = "properties.category"
	FieldProvince     Field = "properties.province"
	FieldDistrict     Field = "properties.district"
	FieldNeighborhood Field = "properties.neighborhood"
	FieldPrice        Field = "properties.price"
	FieldIsFeatured   Field = "properties.is_featured"
	FieldAdvisorID    Field = "properties.advisor_id"
	FieldCreatedBy    Field = "properties.created_by"
	FieldIntent       Field = "properties.listing_intent"
	FieldStatus       Field = "properties.listing_status"
	FieldState        Field = "properties.listing_state"

	FieldGrossArea   Field = "property_details.gross_area"
	FieldBedrooms    Field = "property_details.bedrooms"
	FieldHeatingType Field = "property_details.heating_type"
	FieldBuildingAge Field = "property_details.building_age"
	FieldFurnished   Field = "property_details.furnished"
	FieldHasBalcony  Field = "property_details.has_balcony"
)

type Op int

const (
	OpEq Op = iota
	OpNe
	OpGte
	OpLte
)

func (o Op) sql() string {
	switch o {
	case OpNe:
		return "<>"
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	default:
		return "="
	}
}

// Expr is one node of a predicate tree.
type Expr interface {
	render(b *strings.Builder, args *[]any)
	eval(p *models.Property) bool
}

// Cmp compares a column with a bound value.
type Cmp struct {
	Field Field
	Op    Op
	Value any
}

func Eq(f Field, v any) Cmp  { return Cmp{Field: f, Op: OpEq, Value: v} }
func Ne(f Field, v any) Cmp  { return Cmp{Field: f, Op: OpNe, Value: v} }
func Gte(f Field, v any) Cmp { return Cmp{Field: f, Op: OpGte, Value: v} }
func Lte(f Field, v any) Cmp { return Cmp{Field: f, Op: OpLte, Value: v} }

func (c Cmp) render(b *strings.Builder, args *[]any) {
	b.WriteString(string(c.Field))
	b.WriteByte(' ')
	b.WriteString(c.Op.sql())
	b.WriteString(" ?")
	*args = append(*args, c.Value)
}

// eval follows SQL NULL semantics: a missing column never satisfies a comparison.
func (c Cmp) eval(p *models.Property) bool {
	v, ok := fieldValue(p, c.Field)
	if !ok {
		return false
	}
	cmp, ok := compare(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

// AnyOf holds when at least one branch holds.
type AnyOf []Expr

func (a AnyOf) render(b *strings.Builder, args *[]any) {
	if len(a) == 0 {
		b.WriteString("FALSE")
		return
	}
	b.WriteByte('(')
	for i, e := range a {
		if i > 0 {
			b.WriteString(" OR ")
		}
		e.render(b, args)
	}
	b.WriteByte(')')
}

func (a AnyOf) eval(p *models.Property) bool {
	for _, e := range a {
		if e.eval(p) {
			return true
		}
	}
	return false
}

// AllOf holds when every branch holds.
type AllOf []Expr

func (a AllOf) render(b *strings.Builder, args *[]any) {
	if len(a) == 0 {
		b.WriteString("TRUE")
		return
	}
	b.WriteByte('(')
	for i, e := range a {
		if i > 0 {
			b.WriteString(" AND ")
		}
		e.render(b, args)
	}
	b.WriteByte(')')
}

func (a AllOf) eval(p *models.Property) bool {
	for _, e := range a {
		if !e.eval(p) {
			return false
		}
	}
	return true
}

// Predicate is an immutable conjunction of expressions over the property
// relation joined with its detail row.
type Predicate struct {
	exprs []Expr
}

// And returns a new predicate with the given expressions appended.
func (p Predicate) And(exprs ...Expr) Predicate {
	out := make([]Expr, 0, len(p.exprs)+len(exprs))
	out = append(out, p.exprs...)
	out = append(out, exprs...)
	return Predicate{exprs: out}
}

func (p Predicate) Len() int { return len(p.exprs) }

func (p Predicate) IsEmpty() bool { return len(p.exprs) == 0 }

// SQL renders a WHERE fragment with ? placeholders. An empty predicate
// renders as an empty string.
func (p Predicate) SQL() (string, []any) {
	if len(p.exprs) == 0 {
		return "", nil
	}
	var b strings.Builder
	args := make([]any, 0, len(p.exprs))
	for i, e := range p.exprs {
		if i > 0 {
			b.WriteString(" AND ")
		}
		e.render(&b, &args)
	}
	return b.String(), args
}

// Matches evaluates the predicate against a loaded record.
func (p Predicate) Matches(rec *models.Property) bool {
	if rec == nil {
		return false
	}
	for _, e := range p.exprs {
		if !e.eval(rec) {
			return false
		}
	}
	return true
}

func fieldValue(p *models.Property, f Field) (any, bool) {
	switch f {
	case FieldCategory:
		return string(p.Category), true
	case FieldProvince:
		return p.Province, true
	case FieldDistrict:
		return p.District, true
	case FieldNeighborhood:
		return p.Neighborhood, true
	case FieldPrice:
		return p.Price, true
	case FieldIsFeatured:
		return p.IsFeatured, true
	case FieldAdvisorID:
		if p.AdvisorID == nil {
			return nil, false
		}
		return *p.AdvisorID, true
	case FieldCreatedBy:
		return p.CreatedBy, true
	case FieldIntent:
		return string(p.ListingIntent), true
	case FieldStatus:
		return string(p.ListingStatus), true
	case FieldState:
		return string(p.ListingState), true
	}

	d := p.Detail
	if d == nil {
		return nil, false
	}
	switch f {
	case FieldGrossArea:
		return d.GrossArea, true
	case FieldBedrooms:
		return d.Bedrooms, true
	case FieldHeatingType:
		return d.HeatingType, true
	case FieldBuildingAge:
		return d.BuildingAge, true
	case FieldFurnished:
		return d.Furnished, true
	case FieldHasBalcony:
		return d.HasBalcony, true
	}
	return nil, false
}

// compare returns -1/0/1. Booleans only support equality.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if x == y {
			return 0, true
		}
		return 1, true
	}

	x, ok1 := toFloat(a)
	y, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
