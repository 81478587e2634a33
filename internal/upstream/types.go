package upstream

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date is a calendar day as the inventory backend serializes it. The
// zero value marshals to null.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts the backend's date format.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", value, err)
	}
	return Date{Time: t.Truncate(24 * time.Hour)}, nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Equal compares by calendar day; two zero dates are equal.
func (d Date) Equal(other Date) bool {
	if d.IsZero() || other.IsZero() {
		return d.IsZero() == other.IsZero()
	}
	return d.Format(dateLayout) == other.Format(dateLayout)
}

// StockLot is one row of the backend stock listing: a physical batch of
// one product at one location. Product fields are denormalized onto
// every lot; in_transit, daily_consumption and shenzhen_stock are
// product-level values repeated per row.
type StockLot struct {
	ID               int              `json:"id"`
	ProductID        string           `json:"product_id"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Supplier         string           `json:"supplier"`
	Unit             string           `json:"unit"`
	BoxSpec          string           `json:"box_spec"`
	Quantity         int              `json:"quantity"`
	BatchNumber      string           `json:"batch_number"`
	ExpiryDate       Date             `json:"expiry_date"`
	Location         string           `json:"location"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	InTransit        int              `json:"in_transit"`
	DailyConsumption decimal.Decimal  `json:"daily_consumption"`
	ShenzhenStock    int              `json:"shenzhen_stock"`
}

// Product is the select-box listing shape.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Supplier string `json:"supplier"`
	Unit     string `json:"unit"`
}

// Merchant identifies the active tenant.
type Merchant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// IncomingLine is the payload for one incoming write.
type IncomingLine struct {
	ProductID      string `json:"product_id"`
	BoxSpec        string `json:"box_spec"`
	Quantity       int    `json:"quantity"`
	BatchNumber    string `json:"batch_number"`
	IncomingReason string `json:"incoming_reason"`
	ExpiryDate     Date   `json:"expiry_date"`
	Location       string `json:"location"`
}

// OutgoingLine is the payload for one outgoing write.
type OutgoingLine struct {
	ProductID      string `json:"product_id"`
	BoxSpec        string `json:"box_spec"`
	Quantity       int    `json:"quantity"`
	OutgoingReason string `json:"outgoing_reason"`
	Location       string `json:"location"`
	BatchNumber    string `json:"batch_number"`
	ExpiryDate     Date   `json:"expiry_date"`
}

// RelocateRequest asks the backend for an atomic single-lot move.
type RelocateRequest struct {
	ProductID    string `json:"product_id"`
	BoxSpec      string `json:"box_spec"`
	BatchNumber  string `json:"batch_number,omitempty"`
	ExpiryDate   Date   `json:"expiry_date"`
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
	Quantity     int    `json:"quantity"`
}

// StockFieldUpdate is a partial update keyed by product id. Nil fields
// are omitted from the payload and must be left untouched server-side.
type StockFieldUpdate struct {
	ProductID        string           `json:"product_id"`
	InTransit        *int             `json:"in_transit,omitempty"`
	DailyConsumption *decimal.Decimal `json:"daily_consumption,omitempty"`
	ShenzhenStock    *int             `json:"shenzhen_stock,omitempty"`
}

// errorFlag absorbs the backend's two shapes for the "error" field: the
// write endpoints send a boolean flag, the generic handlers send a bare
// message string.
type errorFlag struct {
	raised  bool
	message string
}

func (f *errorFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.raised = b
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.raised = s != ""
		f.message = s
		return nil
	}
	return fmt.Errorf("unexpected error field %s", data)
}

// statusResponse is the write-endpoint envelope. Success is a pointer
// because some endpoints omit it and report only via status code, so an
// absent field must not read as failure.
type statusResponse struct {
	Success *bool     `json:"success"`
	Message string    `json:"message"`
	Error   errorFlag `json:"error"`
}

// failed reports an in-band failure: the backend answers 200 with
// success:false or error:true on several real failure paths.
func (s statusResponse) failed() bool {
	if s.Error.raised {
		return true
	}
	return s.Success != nil && !*s.Success
}

func (s statusResponse) failureMessage() string {
	if s.Message != "" {
		return s.Message
	}
	return s.Error.message
}
