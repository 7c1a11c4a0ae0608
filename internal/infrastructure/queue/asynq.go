package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/latchauth/latch/internal/application/ports"
)

const TypeSendMagicLink = "email:magic_link"

// TaskEnqueuer dispatches email delivery through Asynq.
type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) (*TaskEnqueuer, error) {
	client := asynq.NewClient(redisOpt)
	return &TaskEnqueuer{client: client, log: log}, nil
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueSendMagicLink(ctx context.Context, tenantID, email, linkURL string) error {
	payload, _ := json.Marshal(map[string]string{
		"tenant_id": tenantID,
		"email":     email,
		"link_url":  linkURL,
	})
	task := asynq.NewTask(TypeSendMagicLink, payload)
	_, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		q.log.Warn().Err(err).Str("email", email).Msg("enqueue magic link email failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
