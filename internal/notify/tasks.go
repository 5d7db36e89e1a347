// Package notify queues listing notifications on asynq and delivers them as
// e-mail from a separate worker process.
package notify

import (
	"encoding/json"
	"fmt"

	"emlak-backend/internal/models"

	"github.com/hibiken/asynq"
)

const (
	TypeListingSubmitted = "listing:submitted"
	TypeListingModerated = "listing:moderated"

	QueueName = "notifications"
)

// ListingPayload carries a snapshot so the worker never reads a half-written row.
type ListingPayload struct {
	PropertyID uint                 `json:"property_id"`
	Title      string               `json:"title"`
	CreatedBy  uint                 `json:"created_by"`
	Status     models.ListingStatus `json:"status"`
	Reason     string               `json:"reason,omitempty"`
}

func payloadFor(p *models.Property) ListingPayload {
	return ListingPayload{
		PropertyID: p.ID,
		Title:      p.Title,
		CreatedBy:  p.CreatedBy,
		Status:     p.ListingStatus,
		Reason:     p.ModerationReason,
	}
}

func newTask(typ string, p *models.Property) (*asynq.Task, error) {
	b, err := json.Marshal(payloadFor(p))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return asynq.NewTask(typ, b), nil
}

func decodePayload(t *asynq.Task) (ListingPayload, error) {
	var p ListingPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if p.PropertyID == 0 {
		return p, fmt.Errorf("%s payload without property id: %w", t.Type(), asynq.SkipRetry)
	}
	return p, nil
}
