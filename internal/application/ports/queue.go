package ports

import "context"

// TaskEnqueuer dispatches background work (email delivery).
type TaskEnqueuer interface {
	EnqueueSendMagicLink(ctx context.Context, tenantID, email, linkURL string) error
}
