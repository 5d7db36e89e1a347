package listing

import (
	"emlak-backend/internal/apperr"
	"emlak-backend/internal/auth"
	"emlak-backend/internal/models"
)

// Operation is a mutation on a property record.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpPatch  Operation = "patch"
	OpDelete Operation = "delete"
)

// Decision is the outcome of Authorize. Reason is an apperr code when denied.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(code string) Decision { return Decision{Reason: code} }

// Err converts a denial into the matching error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == apperr.CodeUnauthorized {
		return apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
	}
	return apperr.Forbidden("Bu ilan üzerinde işlem yetkiniz yok")
}

// Authorize decides whether caller may perform op on p. Create has no prior
// record and only needs an authenticated caller.
func Authorize(caller *auth.Identity, p *models.Property, op Operation) Decision {
	if caller.IsAnonymous() {
		return deny(apperr.CodeUnauthorized)
	}
	if op == OpCreate || caller.IsAdmin() {
		return allow()
	}
	if p == nil {
		return deny(apperr.CodeForbidden)
	}

	switch caller.Role {
	case models.RoleAdvisor:
		if isOwnWork(caller, p) {
			return allow()
		}
	case models.RoleUser:
		if caller.Is(p.CreatedBy) {
			return allow()
		}
	}
	return deny(apperr.CodeForbidden)
}

// AuthorizeFields applies the field-level restrictions of a patch or create
// body: moderation status and the featured flag are admin only, advisor
// assignment is admin or advisor only.
func AuthorizeFields(caller *auth.Identity, touched FieldSet) Decision {
	if caller.IsAnonymous() {
		return deny(apperr.CodeUnauthorized)
	}
	if caller.IsAdmin() {
		return allow()
	}
	if touched.Has(PatchListingStatus) || touched.Has(PatchIsFeatured) {
		return deny(apperr.CodeForbidden)
	}
	if touched.Has(PatchAdvisorID) && !caller.IsAdvisor() {
		return deny(apperr.CodeForbidden)
	}
	return allow()
}

// PatchField names a restricted body field.
type PatchField string

const (
	PatchListingStatus PatchField = "listing_status"
	PatchIsFeatured    PatchField = "is_featured"
	PatchAdvisorID     PatchField = "advisor_id"
)

// FieldSet is the set of restricted fields a body touches.
type FieldSet map[PatchField]bool

func (s FieldSet) Has(f PatchField) bool { return s[f] }
