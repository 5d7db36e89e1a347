package listing

import (
	"testing"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/auth"
	"emlak-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize_Table(t *testing.T) {
	// caller ids: 10 = the creator, 20 = the assigned advisor, 30 = unrelated
	record := func(createdBy uint, advisorID *uint) *models.Property {
		return &models.Property{ID: 1, CreatedBy: createdBy, AdvisorID: advisorID}
	}
	ops := []Operation{OpUpdate, OpPatch, OpDelete}

	tests := []struct {
		name   string
		caller *auth.Identity
		p      *models.Property
		want   Decision
	}{
		{"admin unrelated", &auth.Identity{UserID: 30, Role: models.RoleAdmin}, record(10, uptr(20)), allow()},
		{"admin no advisor", &auth.Identity{UserID: 30, Role: models.RoleAdmin}, record(10, nil), allow()},
		{"advisor assigned", &auth.Identity{UserID: 20, Role: models.RoleAdvisor}, record(10, uptr(20)), allow()},
		{"advisor creator", &auth.Identity{UserID: 10, Role: models.RoleAdvisor}, record(10, nil), allow()},
		{"advisor unrelated", &auth.Identity{UserID: 30, Role: models.RoleAdvisor}, record(10, uptr(20)), deny(apperr.CodeForbidden)},
		{"advisor unassigned record", &auth.Identity{UserID: 30, Role: models.RoleAdvisor}, record(10, nil), deny(apperr.CodeForbidden)},
		{"user creator", &auth.Identity{UserID: 10, Role: models.RoleUser}, record(10, uptr(20)), allow()},
		{"user as advisor id", &auth.Identity{UserID: 20, Role: models.RoleUser}, record(10, uptr(20)), deny(apperr.CodeForbidden)},
		{"user unrelated", &auth.Identity{UserID: 30, Role: models.RoleUser}, record(10, nil), deny(apperr.CodeForbidden)},
		{"anonymous", nil, record(10, nil), deny(apperr.CodeUnauthorized)},
	}

	for _, tt := range tests {
		for _, op := range ops {
			t.Run(tt.name+"/"+string(op), func(t *testing.T) {
				assert.Equal(t, tt.want, Authorize(tt.caller, tt.p, op))
			})
		}
	}
}

func TestAuthorize_Create(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleUser, models.RoleAdvisor, models.RoleAdmin} {
		assert.True(t, Authorize(&auth.Identity{UserID: 5, Role: role}, nil, OpCreate).Allowed, role)
	}
	d := Authorize(nil, nil, OpCreate)
	assert.False(t, d.Allowed)
	assert.True(t, apperr.Is(d.Err(), apperr.CodeUnauthorized))
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, allow().Err())
	assert.True(t, apperr.Is(deny(apperr.CodeForbidden).Err(), apperr.CodeForbidden))
}

func TestAuthorizeFields(t *testing.T) {
	user := &auth.Identity{UserID: 1, Role: models.RoleUser}
	adv := &auth.Identity{UserID: 2, Role: models.RoleAdvisor}
	adm := &auth.Identity{UserID: 3, Role: models.RoleAdmin}

	status := FieldSet{PatchListingStatus: true}
	featured := FieldSet{PatchIsFeatured: true}
	assign := FieldSet{PatchAdvisorID: true}

	assert.True(t, AuthorizeFields(user, FieldSet{}).Allowed)
	assert.False(t, AuthorizeFields(user, status).Allowed)
	assert.False(t, AuthorizeFields(user, featured).Allowed)
	assert.False(t, AuthorizeFields(user, assign).Allowed)

	assert.False(t, AuthorizeFields(adv, status).Allowed)
	assert.False(t, AuthorizeFields(adv, featured).Allowed)
	assert.True(t, AuthorizeFields(adv, assign).Allowed)

	assert.True(t, AuthorizeFields(adm, status).Allowed)
	assert.True(t, AuthorizeFields(adm, featured).Allowed)
	assert.True(t, AuthorizeFields(adm, assign).Allowed)

	assert.Equal(t, apperr.CodeUnauthorized, AuthorizeFields(nil, FieldSet{}).Reason)
}
