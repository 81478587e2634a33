package stockview

import (
	"math"
	"sort"
)

// sortProducts orders the grouped list by the requested field. Stockout
// and expiry sorts key on the day counts computed during classification,
// with +Inf standing in for "not applicable" so such products land last
// in ascending order. The sort is stable; ties keep first-seen grouping
// order.
func sortProducts(products []AggregatedProduct, field SortField, direction SortDirection) {
	descending := direction == SortDesc

	switch field {
	case SortByStockoutDate, SortByExpiryRisk:
		key := stockoutKey
		if field == SortByExpiryRisk {
			key = expiryKey
		}
		sort.SliceStable(products, func(i, j int) bool {
			a, b := key(products[i]), key(products[j])
			if descending {
				return a > b
			}
			return a < b
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			if descending {
				return products[i].ProductID > products[j].ProductID
			}
			return products[i].ProductID < products[j].ProductID
		})
	}
}

func stockoutKey(product AggregatedProduct) float64 {
	if !product.Stockout.Projected {
		return math.Inf(1)
	}
	return float64(product.Stockout.Days)
}

func expiryKey(product AggregatedProduct) float64 {
	if !product.Expiry.HasDated {
		return math.Inf(1)
	}
	return float64(product.Expiry.Days)
}
