package stockview

import (
	"testing"
	"time"

	"github.com/quayline/stockdesk-backend/internal/upstream"
	"github.com/quayline/stockdesk-backend/pkg/config"
	"github.com/shopspring/decimal"
)

func riskDefaults() config.RiskConfig {
	return config.RiskConfig{StockoutDays: 45, ExpiryHighDays: 90, ExpiryNoneDays: 365}
}

func TestStockoutBoundary(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		total    int
		daily    int64
		wantDays int
		wantRisk RiskLevel
	}{
		{"just under threshold", 88, 2, 44, RiskHigh},
		{"exactly at threshold", 90, 2, 45, RiskNone},
		{"well above", 900, 2, 450, RiskNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := AggregatedProduct{
				TotalStock:       tc.total,
				DailyConsumption: decimal.NewFromInt(tc.daily),
			}
			got := stockoutProjection(&product, riskDefaults(), today, false)
			if !got.Projected {
				t.Fatalf("expected a projection")
			}
			if got.Days != tc.wantDays {
				t.Fatalf("expected %d days, got %d", tc.wantDays, got.Days)
			}
			if got.Risk != tc.wantRisk {
				t.Fatalf("expected risk %s, got %s", tc.wantRisk, got.Risk)
			}
			wantDate := today.AddDate(0, 0, tc.wantDays)
			if !got.Date.Time.Equal(wantDate) {
				t.Fatalf("expected stockout date %v, got %v", wantDate, got.Date.Time)
			}
		})
	}
}

func TestStockoutWithoutConsumptionIsNotProjected(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	product := AggregatedProduct{TotalStock: 100}

	got := stockoutProjection(&product, riskDefaults(), today, false)
	if got.Projected || got.Risk != RiskNone {
		t.Fatalf("zero consumption must not project a stockout: %+v", got)
	}
}

func TestStockoutSecondaryPoolToggle(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	product := AggregatedProduct{
		TotalStock:       40,
		ShenzhenStock:    60,
		DailyConsumption: decimal.NewFromInt(2),
	}

	without := stockoutProjection(&product, riskDefaults(), today, false)
	if without.Days != 20 || without.Risk != RiskHigh {
		t.Fatalf("secondary pool must be excluded by default: %+v", without)
	}

	with := stockoutProjection(&product, riskDefaults(), today, true)
	if with.Days != 50 || with.Risk != RiskNone {
		t.Fatalf("toggle must add the secondary pool to the runway: %+v", with)
	}
}

func TestExpiryRiskBoundaries(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		days int
		want RiskLevel
	}{
		{89, RiskHigh},
		{90, RiskMedium},
		{364, RiskMedium},
		{365, RiskNone},
		{0, RiskHigh},
		{-3, RiskHigh},
	}
	for _, tc := range cases {
		expiry := today.AddDate(0, 0, tc.days)
		product := AggregatedProduct{
			Specs: []LotSpec{{Quantity: 1, ExpiryDate: upstream.Date{Time: expiry}}},
		}
		got := expiryRisk(&product, riskDefaults(), today)
		if !got.HasDated {
			t.Fatalf("%d days out: expected a dated classification", tc.days)
		}
		if got.Days != tc.days {
			t.Fatalf("expected %d days, got %d", tc.days, got.Days)
		}
		if got.Risk != tc.want {
			t.Fatalf("%d days out: expected risk %s, got %s", tc.days, tc.want, got.Risk)
		}
	}
}

func TestExpiryRiskUsesNearestLot(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	product := AggregatedProduct{
		Specs: []LotSpec{
			{Quantity: 1, ExpiryDate: upstream.Date{Time: today.AddDate(0, 0, 400)}},
			{Quantity: 1, ExpiryDate: upstream.Date{Time: today.AddDate(0, 0, 30)}},
			{Quantity: 1},
		},
	}

	got := expiryRisk(&product, riskDefaults(), today)
	if got.Days != 30 || got.Risk != RiskHigh {
		t.Fatalf("expected nearest lot to drive the classification, got %+v", got)
	}
}

func TestExpiryRiskWithoutDatedLots(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	product := AggregatedProduct{Specs: []LotSpec{{Quantity: 3}}}

	got := expiryRisk(&product, riskDefaults(), today)
	if got.HasDated || got.Risk != RiskNone {
		t.Fatalf("undated lots must classify as no risk: %+v", got)
	}
}

// End-to-end scenario: one lot, box spec "10", quantity 5, expiring
// 2024-01-01 as seen from 2023-12-01.
func TestComposeScenario(t *testing.T) {
	t.Parallel()

	today := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	primary := []upstream.StockLot{{
		ProductID:  "P1",
		Name:       "widget",
		BoxSpec:    "10",
		Quantity:   5,
		ExpiryDate: upstream.NewDate(2024, 1, 1),
	}}

	result := Compose(primary, nil, Query{Sort: SortByProductID, Direction: SortAsc}, riskDefaults(), today)
	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(result.Products))
	}
	got := result.Products[0]
	if got.TotalStock != 50 {
		t.Fatalf("expected total stock 50, got %d", got.TotalStock)
	}
	if got.Expiry.Days != 31 || got.Expiry.Risk != RiskHigh {
		t.Fatalf("expected 31 days to expiry at high risk, got %+v", got.Expiry)
	}
	if got.Stockout.Projected {
		t.Fatalf("no consumption, stockout must not be projected: %+v", got.Stockout)
	}
}

func TestDaysBetweenNormalizesToMidnight(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 8, 1, 23, 50, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 10, 0, 0, time.UTC)
	if got := daysBetween(from, to); got != 1 {
		t.Fatalf("expected 1 day across midnight, got %d", got)
	}
	if got := daysBetween(to, from); got != -1 {
		t.Fatalf("expected -1 day backwards, got %d", got)
	}
}
