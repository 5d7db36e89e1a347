package listingtest

import (
	"context"
	"sync"

	"emlak-backend/internal/audit"
	"emlak-backend/internal/models"
)

// Advisors is a fixed advisor directory.
type Advisors struct {
	Profiles  map[uint]*models.AdvisorProfile
	DefaultID uint
	Err       error
}

func (a *Advisors) AdvisorByUserID(ctx context.Context, userID uint) (*models.AdvisorProfile, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	return a.Profiles[userID], nil
}

func (a *Advisors) DefaultAdvisorID(ctx context.Context) (uint, error) {
	if a.Err != nil {
		return 0, a.Err
	}
	return a.DefaultID, nil
}

// Notifier records notifications and can be made to fail.
type Notifier struct {
	mu        sync.Mutex
	Submitted []uint
	Moderated []uint
	Err       error
}

func (n *Notifier) ListingSubmitted(ctx context.Context, p *models.Property) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Submitted = append(n.Submitted, p.ID)
	return n.Err
}

func (n *Notifier) ListingModerated(ctx context.Context, p *models.Property) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Moderated = append(n.Moderated, p.ID)
	return n.Err
}

// Audit keeps written audit entries in memory.
type Audit struct {
	mu      sync.Mutex
	Entries []audit.LogOptions
}

func (a *Audit) WriteLog(ctx context.Context, opts audit.LogOptions) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, opts)
	return nil
}

func (a *Audit) Actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditAction, 0, len(a.Entries))
	for _, e := range a.Entries {
		out = append(out, e.Action)
	}
	return out
}
