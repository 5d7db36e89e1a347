package listing

import (
	"context"
	"errors"

	"emlak-backend/internal/audit"
	"emlak-backend/internal/models"
)

// ErrNotFound is returned by a Store when no live record has the given id.
var ErrNotFound = errors.New("property not found")

// Store is the property relation. Reads return records with Detail and
// Images loaded, soft-deleted rows excluded.
type Store interface {
	// InTransaction runs fn against a transactional Store. A non-nil error
	// from fn rolls every write back.
	InTransaction(ctx context.Context, fn func(tx Store) error) error

	FindProperties(ctx context.Context, pred Predicate) ([]models.Property, error)
	FindPropertyByID(ctx context.Context, id uint) (*models.Property, error)

	InsertProperty(ctx context.Context, p *models.Property) error
	InsertDetail(ctx context.Context, d *models.PropertyDetail) error
	InsertImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error

	UpdateProperty(ctx context.Context, p *models.Property) error
	SaveDetail(ctx context.Context, d *models.PropertyDetail) error
	ReplaceImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error

	SoftDeleteProperty(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
}

// AdvisorDirectory resolves advisor display data and the fallback advisor.
type AdvisorDirectory interface {
	// AdvisorByUserID returns nil, nil when the user has no advisor profile.
	AdvisorByUserID(ctx context.Context, userID uint) (*models.AdvisorProfile, error)
	// DefaultAdvisorID returns 0 when no advisor can be assigned.
	DefaultAdvisorID(ctx context.Context) (uint, error)
}

// Notifier delivers best-effort notifications. Failures never fail the request.
type Notifier interface {
	ListingSubmitted(ctx context.Context, p *models.Property) error
	ListingModerated(ctx context.Context, p *models.Property) error
}

// AuditWriter records mutations.
type AuditWriter interface {
	WriteLog(ctx context.Context, opts audit.LogOptions) error
}

type nopNotifier struct{}

func (nopNotifier) ListingSubmitted(context.Context, *models.Property) error { return nil }
func (nopNotifier) ListingModerated(context.Context, *models.Property) error { return nil }

type nopAudit struct{}

func (nopAudit) WriteLog(context.Context, audit.LogOptions) error { return nil }
