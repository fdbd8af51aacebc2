package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	// StatusPending means the invoice awaits payment.
	StatusPending Status = "PENDING"
	// StatusPaid means a verified notification settled the invoice.
	StatusPaid Status = "PAID"
	// StatusFailed means the vendor reported the payment cancelled,
	// reversed or fraudulent.
	StatusFailed Status = "FAILED"
)

// Item is one product row on an invoice. Once the invoice has been included
// in a signed checkout link the row must not change; tampering invalidates
// the link.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unitPrice"`
	Qty       int       `json:"qty"`
	Type      string    `json:"type,omitempty"`
}

// Invoice is a payable order snapshot. Number doubles as the vendor-visible
// merchant-order-id.
type Invoice struct {
	ID              uuid.UUID  `json:"id"`
	Number          string     `json:"number"`
	Currency        string     `json:"currency"`
	Status          Status     `json:"status"`
	Total           int64      `json:"total"`
	Items           []Item     `json:"items,omitempty"`
	ProviderPayload []byte     `json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
}

// ComputeTotal sums price times quantity across items in minor units.
func ComputeTotal(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPrice * int64(it.Qty)
	}
	return total
}
