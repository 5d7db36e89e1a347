package listing

import (
	"emlak-backend/internal/auth"
	"emlak-backend/internal/models"
)

// IsVisible reports whether caller may see p, in a list or as a detail.
// Soft-deleted records are never visible.
func IsVisible(caller *auth.Identity, p *models.Property) bool {
	if p == nil || p.DeletedAt.Valid {
		return false
	}
	if caller.IsAdmin() {
		return true
	}
	if isOwnWork(caller, p) {
		return true
	}
	return p.ListingStatus == models.StatusApproved && p.ListingState == models.StateActive
}

func isOwnWork(caller *auth.Identity, p *models.Property) bool {
	if caller.Is(p.CreatedBy) {
		return true
	}
	return p.AdvisorID != nil && caller.Is(*p.AdvisorID)
}

func publicExprs() []Expr {
	return []Expr{
		Eq(FieldStatus, string(models.StatusApproved)),
		Eq(FieldState, string(models.StateActive)),
	}
}

// Narrow restricts base to what caller may see. Admins, and callers asking for
// their own advisor_id scope, keep base unchanged. Anonymous callers get the
// approved+active constraint; other authenticated callers additionally keep
// their own records.
func Narrow(caller *auth.Identity, f Filters, base Predicate) Predicate {
	if caller.IsAdmin() {
		return base
	}
	if f.AdvisorID != nil && caller.Is(*f.AdvisorID) {
		return base
	}
	if caller.IsAnonymous() {
		return base.And(publicExprs()...)
	}
	return base.And(AnyOf{
		AllOf(publicExprs()),
		Eq(FieldCreatedBy, caller.UserID),
		Eq(FieldAdvisorID, caller.UserID),
	})
}
