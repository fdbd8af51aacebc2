package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arfan-dev/storefront-api/internal/obs"
)

// Notifier consumes settlement tasks in the worker process. When CallbackURL
// is set the payload is forwarded there as JSON; either way the settlement is
// logged so operators can reconcile against vendor reports.
type Notifier struct {
	Logger      zerolog.Logger
	CallbackURL string
	Client      *http.Client
}

// HTTPClient returns the outbound client used for callback delivery.
func HTTPClient(timeoutMs int) *http.Client {
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}
	return &http.Client{
		Timeout:   time.Duration(timeoutMs) * time.Millisecond,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func (n *Notifier) HandlePaymentSettled(ctx context.Context, t *asynq.Task) error {
	var p SettledPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		observeTask("bad_payload")
		// Malformed payloads never fix themselves on retry.
		return fmt.Errorf("payment settled payload: %w: %s", asynq.SkipRetry, err)
	}
	n.Logger.Info().
		Str("invoice_id", p.InvoiceID).
		Str("invoice_number", p.Number).
		Str("status", p.Status).
		Str("outcome", p.Outcome).
		Msg("payment settled notification")

	if n.CallbackURL == "" {
		observeTask("logged")
		return nil
	}
	if err := n.deliver(ctx, p); err != nil {
		observeTask("delivery_failed")
		return err
	}
	observeTask("delivered")
	return nil
}

func observeTask(result string) {
	if obs.NotifyTasksTotal != nil {
		obs.NotifyTasksTotal.WithLabelValues(result).Inc()
	}
}

func (n *Notifier) deliver(ctx context.Context, p SettledPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode callback body: %w: %s", asynq.SkipRetry, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w: %s", asynq.SkipRetry, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = HTTPClient(0)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver callback: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback responded %d", resp.StatusCode)
	}
	n.Logger.Debug().Str("invoice_number", p.Number).Msg("callback delivered")
	return nil
}

// Mux returns a ServeMux with all task handlers registered.
func (n *Notifier) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePaymentSettled, n.HandlePaymentSettled)
	return mux
}
