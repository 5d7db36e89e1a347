package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"emlak-backend/internal/auth"
	"emlak-backend/internal/models"

	"github.com/hibiken/asynq"
)

// UserFinder resolves the listing owner's address.
type UserFinder interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Processor handles notification tasks.
type Processor struct {
	users      UserFinder
	sender     Sender
	from       string
	adminEmail string
	baseURL    string
	logger     *slog.Logger
	now        func() time.Time
}

type ProcessorOptions struct {
	Users      UserFinder
	Sender     Sender
	From       string
	AdminEmail string
	BaseURL    string
	Logger     *slog.Logger
}

func NewProcessor(o ProcessorOptions) *Processor {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Processor{
		users:      o.Users,
		sender:     o.Sender,
		from:       o.From,
		adminEmail: o.AdminEmail,
		baseURL:    o.BaseURL,
		logger:     o.Logger,
		now:        time.Now,
	}
}

// HandleListingSubmitted tells the admin that a listing waits for moderation.
func (p *Processor) HandleListingSubmitted(ctx context.Context, t *asynq.Task) error {
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	if p.adminEmail == "" {
		p.logger.InfoContext(ctx, "yönetici bildirim adresi tanımlı değil, atlanıyor", "property_id", payload.PropertyID)
		return nil
	}

	subject := fmt.Sprintf("Onay bekleyen ilan: %s", payload.Title)
	body := fmt.Sprintf("#%d numaralı \"%s\" ilanı onay bekliyor.\n%s/admin/properties/%d",
		payload.PropertyID, payload.Title, p.baseURL, payload.PropertyID)

	to := []string{p.adminEmail}
	return p.sender.Send(ctx, to, subject, BuildMessage(p.from, to, subject, body, p.now()))
}

// HandleListingModerated tells the owner about the moderation decision.
func (p *Processor) HandleListingModerated(ctx context.Context, t *asynq.Task) error {
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}

	owner, err := p.users.FindUserByID(ctx, payload.CreatedBy)
	if errors.Is(err, auth.ErrUserNotFound) {
		return fmt.Errorf("owner %d of property %d not found: %w", payload.CreatedBy, payload.PropertyID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	var subject, body string
	switch payload.Status {
	case models.StatusApproved:
		subject = fmt.Sprintf("İlanınız yayında: %s", payload.Title)
		body = fmt.Sprintf("Merhaba %s,\n\n\"%s\" ilanınız onaylandı ve yayına alındı.\n%s/properties/%d",
			owner.Name, payload.Title, p.baseURL, payload.PropertyID)
	case models.StatusRejected:
		subject = fmt.Sprintf("İlanınız reddedildi: %s", payload.Title)
		body = fmt.Sprintf("Merhaba %s,\n\n\"%s\" ilanınız reddedildi.\nGerekçe: %s",
			owner.Name, payload.Title, payload.Reason)
	default:
		p.logger.InfoContext(ctx, "bu durum için bildirim yok", "status", payload.Status, "property_id", payload.PropertyID)
		return nil
	}

	to := []string{owner.Email}
	return p.sender.Send(ctx, to, subject, BuildMessage(p.from, to, subject, body, p.now()))
}

// Mux registers the notification handlers.
func (p *Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeListingSubmitted, p.HandleListingSubmitted)
	mux.HandleFunc(TypeListingModerated, p.HandleListingModerated)
	return mux
}

// NewServer builds the worker server for the notification queue.
func NewServer(opt asynq.RedisClientOpt, concurrency int, logger *slog.Logger) *asynq.Server {
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.ErrorContext(ctx, "bildirim görevi başarısız", "type", task.Type(), "error", err)
		}),
	})
}
