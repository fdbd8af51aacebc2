package payment

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arfan-dev/storefront-api/internal/common"
)

// Handler exposes checkout-link generation and status lookup.
type Handler struct {
	Svc *Service
}

type createLinkRequest struct {
	InvoiceID string `json:"invoiceId"`
}

type createLinkResponse struct {
	InvoiceID string `json:"invoiceId"`
	Number    string `json:"number"`
	URL       string `json:"url"`
	Total     string `json:"total"`
	Currency  string `json:"currency"`
	Variant   string `json:"variant"`
	Signature string `json:"signature"`
}

type statusResponse struct {
	InvoiceID string  `json:"invoiceId"`
	Number    string  `json:"number"`
	Status    string  `json:"status"`
	PaidAt    *string `json:"paidAt,omitempty"`
}

// CreateLink handles POST /api/v1/payments/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment service is not configured", nil)
		return
	}
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	link, inv, err := h.Svc.CreateLink(r.Context(), req.InvoiceID)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, createLinkResponse{
		InvoiceID: inv.ID.String(),
		Number:    inv.Number,
		URL:       link.URL,
		Total:     link.Total,
		Currency:  inv.Currency,
		Variant:   string(link.Variant),
		Signature: link.Signature,
	})
}

// Status handles GET /api/v1/payments/{invoiceId}/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Invoices == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment service is not configured", nil)
		return
	}
	inv, err := h.Svc.Status(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	resp := statusResponse{
		InvoiceID: inv.ID.String(),
		Number:    inv.Number,
		Status:    string(inv.Status),
	}
	if inv.PaidAt != nil {
		s := inv.PaidAt.UTC().Format(time.RFC3339)
		resp.PaidAt = &s
	}
	common.JSON(w, http.StatusOK, resp)
}
