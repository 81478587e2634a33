package stockview

import (
	"sort"

	"github.com/quayline/stockdesk-backend/internal/upstream"
)

// BoxUnits parses the leading integer of a box spec ("24" in "24x500ml"),
// the per-box item count. Specs without a digit prefix count as 0.
func BoxUnits(boxSpec string) int {
	units := 0
	seen := false
	for _, r := range boxSpec {
		if r < '0' || r > '9' {
			break
		}
		seen = true
		units = units*10 + int(r-'0')
	}
	if !seen {
		return 0
	}
	return units
}

// aggregate groups lots by product id. Primary lots contribute specs and
// total stock, secondary lots only the separate secondary total; the two
// are never merged. The category filter applies per lot, before
// grouping. Product fields are trusted from the first-seen lot. The
// result keeps first-seen product order, which makes re-running on the
// same input deterministic.
func aggregate(primary, secondary []upstream.StockLot, category string) []AggregatedProduct {
	index := make(map[string]int)
	var products []AggregatedProduct

	group := func(lot upstream.StockLot) *AggregatedProduct {
		if i, ok := index[lot.ProductID]; ok {
			return &products[i]
		}
		products = append(products, AggregatedProduct{
			ProductID:        lot.ProductID,
			Name:             lot.Name,
			Category:         lot.Category,
			Supplier:         lot.Supplier,
			Unit:             lot.Unit,
			InTransit:        lot.InTransit,
			DailyConsumption: lot.DailyConsumption,
		})
		index[lot.ProductID] = len(products) - 1
		return &products[len(products)-1]
	}

	for _, lot := range primary {
		if category != "" && lot.Category != category {
			continue
		}
		product := group(lot)
		if lot.Quantity <= 0 {
			continue
		}
		product.Specs = append(product.Specs, LotSpec{
			BoxSpec:     lot.BoxSpec,
			Quantity:    lot.Quantity,
			ExpiryDate:  lot.ExpiryDate,
			BatchNumber: lot.BatchNumber,
			Location:    lot.Location,
			UnitPrice:   lot.UnitPrice,
		})
		product.TotalStock += BoxUnits(lot.BoxSpec) * lot.Quantity
	}

	for _, lot := range secondary {
		if category != "" && lot.Category != category {
			continue
		}
		product := group(lot)
		if lot.Quantity <= 0 {
			continue
		}
		product.ShenzhenStock += BoxUnits(lot.BoxSpec) * lot.Quantity
	}

	for i := range products {
		sortSpecsByExpiry(products[i].Specs)
	}

	return products
}

// sortSpecsByExpiry orders detail rows soonest-expiry first; undated
// lots keep a stable position at the end.
func sortSpecsByExpiry(specs []LotSpec) {
	sort.SliceStable(specs, func(i, j int) bool {
		a, b := specs[i].ExpiryDate, specs[j].ExpiryDate
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b.Time)
	})
}

// categoriesOf collects the distinct categories across both pools in
// first-seen order, for the filter dropdown.
func categoriesOf(primary, secondary []upstream.StockLot) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, lot := range primary {
		if _, ok := seen[lot.Category]; ok || lot.Category == "" {
			continue
		}
		seen[lot.Category] = struct{}{}
		categories = append(categories, lot.Category)
	}
	for _, lot := range secondary {
		if _, ok := seen[lot.Category]; ok || lot.Category == "" {
			continue
		}
		seen[lot.Category] = struct{}{}
		categories = append(categories, lot.Category)
	}
	return categories
}
