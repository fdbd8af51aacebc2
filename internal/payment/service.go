package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/arfan-dev/storefront-api/internal/common"
	"github.com/arfan-dev/storefront-api/internal/invoice"
	"github.com/arfan-dev/storefront-api/internal/obs"
	"github.com/arfan-dev/storefront-api/internal/twocheckout"
)

// Service builds signed checkout links for pending invoices. Secrets arrive
// via Creds at construction time; nothing in here reads the environment.
type Service struct {
	Invoices  invoice.Store
	Creds     twocheckout.Credentials
	Variant   twocheckout.Variant
	ReturnURL string
	CancelURL string
}

// CreateLink loads a pending invoice and produces a signed checkout link for
// it. The returned Link carries the canonical string and signature for
// observability; callers must treat the URL and the invoice it was generated
// from as one immutable unit.
func (s *Service) CreateLink(ctx context.Context, invoiceID string) (twocheckout.Link, invoice.Invoice, error) {
	var zeroLink twocheckout.Link
	var zeroInv invoice.Invoice
	if s == nil || s.Invoices == nil {
		return zeroLink, zeroInv, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateLink")
	defer span.End()

	start := time.Now()
	variantLabel := string(s.variant())
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.link.variant", variantLabel),
			attribute.String("payment.link.result", result),
			attribute.Float64("payment.link.duration_ms", obs.DurationMillis(time.Since(start))),
		)
		if obs.CheckoutLinkTotal != nil {
			obs.CheckoutLinkTotal.WithLabelValues(variantLabel, result).Inc()
		}
	}()

	id, err := uuid.Parse(strings.TrimSpace(invoiceID))
	if err != nil {
		return zeroLink, zeroInv, common.NewAppError("BAD_REQUEST", "invalid invoice id", http.StatusBadRequest, err)
	}
	span.SetAttributes(attribute.String("invoice.id", id.String()))

	inv, err := s.Invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			return zeroLink, zeroInv, common.NewAppError("INVOICE_NOT_FOUND", "invoice not found", http.StatusNotFound, err)
		}
		return zeroLink, zeroInv, err
	}
	if inv.Status != invoice.StatusPending {
		return zeroLink, zeroInv, common.NewAppError("INVALID_STATE", "invoice status "+string(inv.Status)+" does not allow checkout links", http.StatusConflict, nil)
	}

	items := make([]twocheckout.LineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, twocheckout.LineItem{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
			Type:      it.Type,
		})
	}
	link, err := twocheckout.Generate(s.Creds, twocheckout.LinkRequest{
		MerchantOrderID: inv.Number,
		Currency:        inv.Currency,
		Items:           items,
		ReturnURL:       s.ReturnURL,
		CancelURL:       s.CancelURL,
		Variant:         s.variant(),
	})
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, twocheckout.ErrInvalidRequest):
			return zeroLink, zeroInv, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
		case errors.Is(err, twocheckout.ErrSecretRequired), errors.Is(err, twocheckout.ErrMissingField), errors.Is(err, twocheckout.ErrUnknownVariant):
			return zeroLink, zeroInv, common.NewAppError("PAYMENT_NOT_CONFIGURED", err.Error(), http.StatusInternalServerError, err)
		default:
			return zeroLink, zeroInv, err
		}
	}
	result = "success"
	return link, inv, nil
}

// Status reports the consolidated payment state of an invoice. The invoice
// row is the source of truth; webhook processing already folded the vendor
// status into it.
func (s *Service) Status(ctx context.Context, invoiceID string) (invoice.Invoice, error) {
	var zero invoice.Invoice
	id, err := uuid.Parse(strings.TrimSpace(invoiceID))
	if err != nil {
		return zero, common.NewAppError("BAD_REQUEST", "invalid invoice id", http.StatusBadRequest, err)
	}
	inv, err := s.Invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			return zero, common.NewAppError("INVOICE_NOT_FOUND", "invoice not found", http.StatusNotFound, err)
		}
		return zero, err
	}
	return inv, nil
}

func (s *Service) variant() twocheckout.Variant {
	if s.Variant == "" {
		return twocheckout.VariantBuyLink
	}
	return s.Variant
}
