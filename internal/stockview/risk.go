package stockview

import (
	"math"
	"time"

	"github.com/quayline/stockdesk-backend/internal/upstream"
	"github.com/quayline/stockdesk-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// classify fills in the stockout projection and expiry risk for every
// product in place, against the given midnight "today".
func classify(products []AggregatedProduct, thresholds config.RiskConfig, today time.Time, includeSecondary bool) {
	for i := range products {
		products[i].Stockout = stockoutProjection(&products[i], thresholds, today, includeSecondary)
		products[i].Expiry = expiryRisk(&products[i], thresholds, today)
	}
}

func stockoutProjection(product *AggregatedProduct, thresholds config.RiskConfig, today time.Time, includeSecondary bool) StockoutProjection {
	if !product.DailyConsumption.IsPositive() {
		return StockoutProjection{Risk: RiskNone}
	}

	usable := product.TotalStock
	if includeSecondary {
		usable += product.ShenzhenStock
	}

	days := int(decimal.NewFromInt(int64(usable)).Div(product.DailyConsumption).Floor().IntPart())

	projection := StockoutProjection{
		Projected: true,
		Days:      days,
		Date:      upstream.Date{Time: today.AddDate(0, 0, days)},
		Risk:      RiskNone,
	}
	// Strictly under the threshold flips to high risk; exactly at it
	// does not.
	if days < thresholds.StockoutDays {
		projection.Risk = RiskHigh
	}
	return projection
}

func expiryRisk(product *AggregatedProduct, thresholds config.RiskConfig, today time.Time) ExpiryRisk {
	days, ok := minDaysToExpiry(product.Specs, today)
	if !ok {
		return ExpiryRisk{Risk: RiskNone}
	}

	risk := ExpiryRisk{HasDated: true, Days: days, Risk: RiskNone}
	switch {
	case days < thresholds.ExpiryHighDays:
		risk.Risk = RiskHigh
	case days < thresholds.ExpiryNoneDays:
		risk.Risk = RiskMedium
	}
	return risk
}

// minDaysToExpiry scans the remaining (quantity > 0) lots for the
// nearest expiry. Days may be negative for already-expired lots.
func minDaysToExpiry(specs []LotSpec, today time.Time) (int, bool) {
	min, found := 0, false
	for _, spec := range specs {
		if spec.ExpiryDate.IsZero() {
			continue
		}
		days := daysBetween(today, spec.ExpiryDate.Time)
		if !found || days < min {
			min = days
			found = true
		}
	}
	return min, found
}

// daysBetween is ceil((to_midnight - from_midnight) / 1 day).
func daysBetween(from, to time.Time) int {
	from = midnight(from)
	to = midnight(to)
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
