package invoice

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arfan-dev/storefront-api/internal/common"
)

type memStore struct {
	created  []CreateParams
	invoices map[uuid.UUID]Invoice
	numbers  map[string]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{invoices: map[uuid.UUID]Invoice{}, numbers: map[string]uuid.UUID{}}
}

func (m *memStore) Create(_ context.Context, arg CreateParams) (Invoice, error) {
	if _, dup := m.numbers[arg.Number]; dup {
		return Invoice{}, ErrDuplicateNumber
	}
	inv := Invoice{
		ID:       uuid.New(),
		Number:   arg.Number,
		Currency: arg.Currency,
		Status:   StatusPending,
		Total:    ComputeTotal(arg.Items),
		Items:    arg.Items,
	}
	m.created = append(m.created, arg)
	m.invoices[inv.ID] = inv
	m.numbers[inv.Number] = inv.ID
	return inv, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

func (m *memStore) GetByNumber(_ context.Context, number string) (Invoice, error) {
	id, ok := m.numbers[number]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return m.invoices[id], nil
}

func (m *memStore) List(_ context.Context, _ int32, _ int32) ([]Invoice, int64, error) {
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) MarkPaid(_ context.Context, id uuid.UUID, _ []byte) (bool, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.Status != StatusPending {
		return false, nil
	}
	inv.Status = StatusPaid
	m.invoices[id] = inv
	return true, nil
}

func (m *memStore) MarkFailed(_ context.Context, id uuid.UUID, _ []byte) (bool, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.Status != StatusPending {
		return false, nil
	}
	inv.Status = StatusFailed
	m.invoices[id] = inv
	return true, nil
}

func validCreateInput() CreateInput {
	return CreateInput{
		Number:   "INV-3001",
		Currency: "USD",
		Items: []ItemInput{
			{Name: "Laptop Stand", UnitPrice: 4999, Qty: 1},
			{Name: "USB Hub", UnitPrice: 1500, Qty: 2},
		},
	}
}

func TestCreateInvoice(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemStore())
	inv, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.Equal(t, StatusPending, inv.Status)
	require.Equal(t, int64(7999), inv.Total)
	require.Len(t, inv.Items, 2)
}

func TestCreateInvoiceValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(in *CreateInput)
	}{
		{"missing number", func(in *CreateInput) { in.Number = "  " }},
		{"bad currency", func(in *CreateInput) { in.Currency = "usd" }},
		{"long currency", func(in *CreateInput) { in.Currency = "EURO" }},
		{"no items", func(in *CreateInput) { in.Items = nil }},
		{"zero price", func(in *CreateInput) { in.Items[0].UnitPrice = 0 }},
		{"negative qty", func(in *CreateInput) { in.Items[0].Qty = -1 }},
		{"semicolon in name", func(in *CreateInput) { in.Items[0].Name = "a;b" }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewService(newMemStore())
			in := validCreateInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
			require.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestCreateInvoiceDuplicateNumber(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemStore())
	_, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreateInput())
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	require.Equal(t, "DUPLICATE_NUMBER", appErr.Code)
}

func TestGetInvoice(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemStore())
	inv, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), inv.ID.String())
	require.NoError(t, err)
	require.Equal(t, inv.Number, got.Number)

	_, err = svc.Get(context.Background(), "nope")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	_, err = svc.Get(context.Background(), uuid.NewString())
	appErr, ok = common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}
