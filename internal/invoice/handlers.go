package invoice

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arfan-dev/storefront-api/internal/common"
)

// Handler exposes admin HTTP endpoints for invoices.
type Handler struct {
	Svc *Service
}

// Create handles POST /admin/invoices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice handler unavailable", nil)
		return
	}
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	inv, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, inv)
}

// Get handles GET /admin/invoices/{invoiceId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice handler unavailable", nil)
		return
	}
	inv, err := h.Svc.Get(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, inv)
}

// List handles GET /admin/invoices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice handler unavailable", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	invoices, total, err := h.Svc.List(r.Context(), page, perPage)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": invoices,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: total,
		},
	})
}
