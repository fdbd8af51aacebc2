package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arfan-dev/storefront-api/internal/common"
	"github.com/arfan-dev/storefront-api/internal/invoice"
	"github.com/arfan-dev/storefront-api/internal/obs"
	"github.com/arfan-dev/storefront-api/internal/tasks"
	"github.com/arfan-dev/storefront-api/internal/twocheckout"
)

// Notification field names used by the settlement flow.
const (
	fieldOrderRef    = "REFNOEXT"
	fieldVendorRef   = "REFNO"
	fieldOrderStatus = "ORDERSTATUS"
)

// SettlementEnqueuer hands settled invoices to the background worker.
type SettlementEnqueuer interface {
	EnqueueSettled(ctx context.Context, p tasks.SettledPayload) error
}

// Webhook receives instant notifications from the payment vendor, verifies
// their hash against the shared secret and settles the matching invoice.
// Every path returns a well-formed JSON body; the vendor retries on non-2xx.
type Webhook struct {
	Invoices  invoice.Store
	INSSecret string
	Redis     *redis.Client
	ReplayTTL time.Duration
	Tasks     SettlementEnqueuer
	Logger    zerolog.Logger
}

type webhookAck struct {
	Received bool   `json:"received"`
	Result   string `json:"result"`
}

func (h *Webhook) observe(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(result).Inc()
	}
}

// Handle is mounted at POST /webhooks/payment/twocheckout.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.INSSecret == "" {
		h.observe("not_configured")
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook secret is not configured", nil)
		return
	}

	payload, err := twocheckout.ParseNotification(r)
	if err != nil {
		h.observe("bad_payload")
		common.JSONError(w, http.StatusBadRequest, "BAD_PAYLOAD", "could not parse notification body", nil)
		return
	}

	if !twocheckout.VerifyINS(payload, h.INSSecret) {
		h.observe("invalid_signature")
		h.Logger.Warn().
			Str("order_ref", payload[fieldOrderRef]).
			Msg("webhook hash mismatch")
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "notification hash does not match", nil)
		return
	}

	ctx := r.Context()
	if fresh, err := h.markSeen(ctx, payload); err != nil {
		h.observe("replay_check_failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "replay check failed", nil)
		return
	} else if !fresh {
		h.observe("replay")
		common.JSONError(w, http.StatusConflict, "REPLAY", "notification already processed", nil)
		return
	}

	orderRef := payload[fieldOrderRef]
	if orderRef == "" {
		orderRef = payload[fieldVendorRef]
	}
	if orderRef == "" {
		h.observe("missing_reference")
		common.JSONError(w, http.StatusBadRequest, "BAD_PAYLOAD", "notification carries no order reference", nil)
		return
	}

	outcome := twocheckout.Classify(payload[fieldOrderStatus])
	if outcome == twocheckout.OutcomeUnknown || outcome == twocheckout.OutcomePending {
		// Verified but nothing to settle yet. Acknowledge so the vendor
		// stops retrying; a later notification moves the invoice.
		h.observe("acknowledged")
		common.JSON(w, http.StatusOK, webhookAck{Received: true, Result: outcome.String()})
		return
	}

	inv, err := h.Invoices.GetByNumber(ctx, orderRef)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			h.observe("unknown_invoice")
			common.JSONError(w, http.StatusNotFound, "INVOICE_NOT_FOUND", "no invoice matches the order reference", nil)
			return
		}
		h.observe("store_error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice lookup failed", nil)
		return
	}

	changed, err := h.settle(ctx, inv, outcome, payload)
	if err != nil {
		h.observe("store_error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice update failed", nil)
		return
	}

	if changed && outcome == twocheckout.OutcomeSuccessful && h.Tasks != nil {
		p := tasks.SettledPayload{
			InvoiceID: inv.ID.String(),
			Number:    inv.Number,
			Status:    string(invoice.StatusPaid),
			Outcome:   outcome.String(),
		}
		if err := h.Tasks.EnqueueSettled(ctx, p); err != nil {
			// The invoice is already settled; losing the notification
			// task must not fail the webhook.
			h.Logger.Error().Err(err).Str("invoice_number", inv.Number).Msg("enqueue settled task")
		}
	}

	result := "ignored"
	if changed {
		result = "settled"
		if obs.InvoiceTransitionsTotal != nil {
			to := invoice.StatusPaid
			if outcome == twocheckout.OutcomeFailed {
				to = invoice.StatusFailed
			}
			obs.InvoiceTransitionsTotal.WithLabelValues(string(invoice.StatusPending), string(to)).Inc()
		}
	}
	h.observe(result)
	h.Logger.Info().
		Str("invoice_number", inv.Number).
		Str("outcome", outcome.String()).
		Bool("changed", changed).
		Msg("webhook processed")
	common.JSON(w, http.StatusOK, webhookAck{Received: true, Result: result})
}

// markSeen records the notification fingerprint. The key covers every field
// including the hash, so a re-signed notification with new content is not
// mistaken for a replay. Without Redis the guard degrades to the status
// guard on the invoice row.
func (h *Webhook) markSeen(ctx context.Context, payload map[string]string) (bool, error) {
	if h.Redis == nil {
		return true, nil
	}
	key := "wh:twocheckout:" + common.Sha256Hex(twocheckout.Canonicalize(payload))
	ttl := h.ReplayTTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return h.Redis.SetNX(ctx, key, 1, ttl).Result()
}

func (h *Webhook) settle(ctx context.Context, inv invoice.Invoice, outcome twocheckout.Outcome, payload map[string]string) (bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}
	switch outcome {
	case twocheckout.OutcomeSuccessful:
		return h.Invoices.MarkPaid(ctx, inv.ID, raw)
	case twocheckout.OutcomeFailed:
		return h.Invoices.MarkFailed(ctx, inv.ID, raw)
	default:
		return false, nil
	}
}
