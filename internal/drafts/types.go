// Package drafts manages the per-tenant pending batch lists behind the
// incoming, outgoing and relocation workflows: lines are accumulated and
// validated one at a time, persisted across restarts, and submitted to
// the inventory backend as a batch on confirm.
package drafts

import (
	"fmt"

	"github.com/quayline/stockdesk-backend/internal/upstream"
)

// Kind selects which workflow a draft list belongs to.
type Kind string

const (
	KindIncoming   Kind = "incoming"
	KindOutgoing   Kind = "outgoing"
	KindRelocation Kind = "relocation"
)

// ParseKind validates a workflow name from the request path.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindIncoming, KindOutgoing, KindRelocation:
		return Kind(value), nil
	}
	return "", fmt.Errorf("unknown draft kind %q", value)
}

// Line is one pending operation in a batch list. The product name is a
// display snapshot taken at add time, never re-resolved. Location holds
// the lot slot for incoming and outgoing lines; relocation lines carry
// the source and destination slots instead.
type Line struct {
	ProductID      string        `json:"product_id"`
	ProductName    string        `json:"product_name"`
	BoxSpec        string        `json:"box_spec"`
	Quantity       int           `json:"quantity"`
	BatchNumber    string        `json:"batch_number"`
	ExpiryDate     upstream.Date `json:"expiry_date"`
	Location       string        `json:"location,omitempty"`
	IncomingReason string        `json:"incoming_reason,omitempty"`
	OutgoingReason string        `json:"outgoing_reason,omitempty"`
	OldLocation    string        `json:"old_location,omitempty"`
	NewLocation    string        `json:"new_location,omitempty"`
}

// sourceLocation is the slot the duplicate check and the stock match key
// on: the lot's own slot, which for a relocation is where the boxes come
// from.
func (l Line) sourceLocation(kind Kind) string {
	if kind == KindRelocation {
		return l.OldLocation
	}
	return l.Location
}

// Defaults tells the caller which form fields reset to a computed value
// after a successful add, instead of going blank.
type Defaults struct {
	BatchNumber string `json:"batch_number,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// AddResult is the outcome of a successful add: the full updated list
// plus the reset defaults.
type AddResult struct {
	Lines    []Line   `json:"lines"`
	Defaults Defaults `json:"defaults"`
}

// ReceiptLine is one confirmed row in a receipt's per-product breakdown.
type ReceiptLine struct {
	BoxSpec     string        `json:"box_spec"`
	Location    string        `json:"location,omitempty"`
	Quantity    int           `json:"quantity"`
	BatchNumber string        `json:"batch_number,omitempty"`
	ExpiryDate  upstream.Date `json:"expiry_date"`
}

// ReceiptProduct groups the confirmed lines of one product.
type ReceiptProduct struct {
	ProductID     string        `json:"product_id"`
	ProductName   string        `json:"product_name"`
	TotalQuantity int           `json:"total_quantity"`
	Lines         []ReceiptLine `json:"lines"`
}

// Receipt summarizes a fully confirmed batch.
type Receipt struct {
	Kind         Kind             `json:"kind"`
	Products     []ReceiptProduct `json:"products"`
	ProductCount int              `json:"product_count"`
	TotalBoxes   int              `json:"total_boxes"`
}

// DeliveryNoteRow is one printable row of the outgoing delivery note.
type DeliveryNoteRow struct {
	ProductName string        `json:"product_name"`
	Location    string        `json:"location,omitempty"`
	BoxSpec     string        `json:"box_spec"`
	Quantity    int           `json:"quantity"`
	BatchNumber string        `json:"batch_number,omitempty"`
	ExpiryDate  upstream.Date `json:"expiry_date"`
}

// DeliveryNote is the data behind the outgoing delivery-note export:
// the pending outgoing lines for the active tenant plus totals. The
// sheet rendering itself happens client-side.
type DeliveryNote struct {
	Merchant   upstream.Merchant `json:"merchant"`
	Rows       []DeliveryNoteRow `json:"rows"`
	TotalBoxes int               `json:"total_boxes"`
}
