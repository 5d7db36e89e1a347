package notify

import (
	"context"
	"log/slog"
	"time"

	"emlak-backend/internal/listing"
	"emlak-backend/internal/models"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// enqueuer is the part of *asynq.Client the queue needs.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RedisOpt reuses the connection settings of an existing go-redis client.
func RedisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	o := rdb.Options()
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(RedisOpt(rdb))
}

// Queue is the asynq-backed listing.Notifier.
type Queue struct {
	client enqueuer
	logger *slog.Logger
}

var _ listing.Notifier = (*Queue)(nil)

func NewQueue(client enqueuer, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{client: client, logger: logger}
}

func (q *Queue) ListingSubmitted(ctx context.Context, p *models.Property) error {
	return q.enqueue(ctx, TypeListingSubmitted, p)
}

func (q *Queue) ListingModerated(ctx context.Context, p *models.Property) error {
	return q.enqueue(ctx, TypeListingModerated, p)
}

func (q *Queue) enqueue(ctx context.Context, typ string, p *models.Property) error {
	task, err := newTask(typ, p)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueName),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return err
	}
	q.logger.DebugContext(ctx, "bildirim kuyruğa alındı", "type", typ, "task_id", info.ID, "property_id", p.ID)
	return nil
}
