package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypePaymentSettled is enqueued when a webhook settles an invoice.
	TypePaymentSettled = "payment:settled"

	queueDefault = "default"
)

// SettledPayload is the wire body of a payment:settled task.
type SettledPayload struct {
	InvoiceID string `json:"invoiceId"`
	Number    string `json:"number"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome"`
}

// NewSettledTask serializes the payload into an asynq task. Retries are
// bounded so a poison payload cannot occupy a worker forever.
func NewSettledTask(p SettledPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePaymentSettled, b,
		asynq.Queue(queueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// Enqueuer wraps an asynq client so handlers depend on a narrow surface.
type Enqueuer struct {
	Client *asynq.Client
}

func (e *Enqueuer) EnqueueSettled(ctx context.Context, p SettledPayload) error {
	if e == nil || e.Client == nil {
		return nil
	}
	t, err := NewSettledTask(p)
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, t)
	return err
}
