package stockview

import (
	"github.com/quayline/stockdesk-backend/internal/upstream"
	"github.com/shopspring/decimal"
)

// RiskLevel classifies a product for the stock list display.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SortField selects the stock list ordering.
type SortField string

const (
	SortByProductID    SortField = "product_id"
	SortByStockoutDate SortField = "stockout_date"
	SortByExpiryRisk   SortField = "expiry_risk"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Query is everything the stock list view depends on besides the lots
// themselves: the aggregation is a pure function of (lots, query, today).
type Query struct {
	Category             string
	Sort                 SortField
	Direction            SortDirection
	IncludeSecondaryPool bool
}

// LotSpec is one expandable detail row under a product: a lot with
// remaining quantity.
type LotSpec struct {
	BoxSpec     string           `json:"box_spec"`
	Quantity    int              `json:"quantity"`
	ExpiryDate  upstream.Date    `json:"expiry_date"`
	BatchNumber string           `json:"batch_number"`
	Location    string           `json:"location"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// StockoutProjection is the runway estimate for one product.
type StockoutProjection struct {
	// Projected reports whether daily consumption was positive; without
	// it the runway is treated as infinite.
	Projected bool          `json:"projected"`
	Days      int           `json:"days"`
	Date      upstream.Date `json:"date"`
	Risk      RiskLevel     `json:"risk"`
}

// ExpiryRisk is the nearest-expiry classification for one product. Days
// may be negative when a lot has already expired; that is surfaced, not
// clamped.
type ExpiryRisk struct {
	HasDated bool      `json:"has_dated"`
	Days     int       `json:"days"`
	Risk     RiskLevel `json:"risk"`
}

// AggregatedProduct is one main row of the stock list.
type AggregatedProduct struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	Supplier         string          `json:"supplier"`
	Unit             string          `json:"unit"`
	TotalStock       int             `json:"total_stock"`
	ShenzhenStock    int             `json:"shenzhen_stock"`
	InTransit        int             `json:"in_transit"`
	DailyConsumption decimal.Decimal `json:"daily_consumption"`
	Specs            []LotSpec       `json:"specs"`

	Stockout StockoutProjection `json:"stockout"`
	Expiry   ExpiryRisk         `json:"expiry"`
}

// ListResult is the rendered stock list: ordered products plus the
// distinct categories of both pools for the filter dropdown.
type ListResult struct {
	Products   []AggregatedProduct `json:"products"`
	Categories []string            `json:"categories"`
}

// EditableField names the product-level values the view can write back.
type EditableField string

const (
	FieldInTransit        EditableField = "in_transit"
	FieldDailyConsumption EditableField = "daily_consumption"
	FieldShenzhenStock    EditableField = "shenzhen_stock"
)
