package invoice

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/arfan-dev/storefront-api/internal/common"
)

// ItemInput is one product row in a create request. 0x3B is ";", reserved as
// the vendor's product-list separator.
type ItemInput struct {
	Name      string `json:"name" validate:"required,excludesall=0x3B"`
	UnitPrice int64  `json:"unitPrice" validate:"required,gt=0"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
	Type      string `json:"type" validate:"omitempty,alpha"`
}

// CreateInput is the payload for creating an invoice.
type CreateInput struct {
	Number   string      `json:"number" validate:"required"`
	Currency string      `json:"currency" validate:"required,len=3,alpha,uppercase"`
	Items    []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Service orchestrates invoice operations.
type Service struct {
	Store    Store
	Validate *validator.Validate
}

// NewService constructs an invoice service.
func NewService(store Store) *Service {
	return &Service{Store: store, Validate: validator.New()}
}

// Create validates the input and persists a new pending invoice.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invoice, error) {
	if s == nil || s.Store == nil {
		return Invoice{}, errors.New("invoice service not configured")
	}
	in.Number = strings.TrimSpace(in.Number)
	if err := s.Validate.Struct(in); err != nil {
		return Invoice{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
	}
	items := make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, Item{
			Name:      strings.TrimSpace(it.Name),
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
			Type:      it.Type,
		})
	}
	inv, err := s.Store.Create(ctx, CreateParams{Number: in.Number, Currency: in.Currency, Items: items})
	if err != nil {
		if errors.Is(err, ErrDuplicateNumber) {
			return Invoice{}, common.NewAppError("DUPLICATE_NUMBER", "invoice number already exists", http.StatusConflict, err)
		}
		return Invoice{}, err
	}
	return inv, nil
}

// Get loads an invoice by its id.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return Invoice{}, common.NewAppError("BAD_REQUEST", "invalid invoice id", http.StatusBadRequest, err)
	}
	inv, err := s.Store.GetByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Invoice{}, common.NewAppError("INVOICE_NOT_FOUND", "invoice not found", http.StatusNotFound, err)
		}
		return Invoice{}, err
	}
	return inv, nil
}

// List returns one page of invoices.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Invoice, int64, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := int32((page - 1) * perPage)
	return s.Store.List(ctx, int32(perPage), offset)
}
