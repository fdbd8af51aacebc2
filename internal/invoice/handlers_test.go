package invoice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *chi.Mux {
	h := &Handler{Svc: svc}
	r := chi.NewRouter()
	r.Post("/api/v1/invoices", h.Create)
	r.Get("/api/v1/invoices", h.List)
	r.Get("/api/v1/invoices/{invoiceId}", h.Get)
	return r
}

func TestHandlerCreateAndGet(t *testing.T) {
	t.Parallel()

	r := newTestRouter(NewService(newMemStore()))

	body := `{"number":"INV-4001","currency":"USD","items":[{"name":"Desk Mat","unitPrice":2999,"qty":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "INV-4001", created.Number)
	require.Equal(t, int64(2999), created.Total)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerCreateRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	r := newTestRouter(NewService(newMemStore()))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListIncludesPagination(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemStore())
	r := newTestRouter(svc)

	body := `{"number":"INV-4002","currency":"EUR","items":[{"name":"Notebook","unitPrice":500,"qty":3}]}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices?page=1&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []Invoice `json:"data"`
		Pagination struct {
			Page       int   `json:"page"`
			PerPage    int   `json:"perPage"`
			TotalItems int64 `json:"totalItems"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, 1, resp.Pagination.Page)
	require.Equal(t, 10, resp.Pagination.PerPage)
	require.Equal(t, int64(1), resp.Pagination.TotalItems)
}
