package features

import (
	"math"
	"testing"

	"github.com/fiscalbyte/budgetlens/internal/budget"
)

const eps = 1e-9

func almost(a, b float64) bool { return math.Abs(a-b) < eps }

func TestStructuralMismatch(t *testing.T) {
	// quantity=100, unit=50000, stated total=4000000 (expected 5000000)
	tab := &budget.Table{Items: []budget.LineItem{
		{Quantity: 100, UnitPrice: 50000, TotalPrice: 4000000},
	}}
	Engineer(tab)
	it := tab.Items[0]
	if !almost(it.CalculatedTotal, 5000000) {
		t.Fatalf("calculated_total = %g, want 5000000", it.CalculatedTotal)
	}
	if !almost(it.TotalPriceDiscrepancy, 1000000) {
		t.Fatalf("total_price_discrepancy = %g, want 1000000", it.TotalPriceDiscrepancy)
	}
	if !almost(it.TotalDiscrepancyRatio, 0.25) {
		t.Fatalf("total_discrepancy_ratio = %g, want 0.25", it.TotalDiscrepancyRatio)
	}
}

func TestZeroTotalPriceIsExplicitZero(t *testing.T) {
	tab := &budget.Table{Items: []budget.LineItem{
		{Quantity: 2, UnitPrice: 10, TotalPrice: 0},
	}}
	Engineer(tab)
	if tab.Items[0].TotalDiscrepancyRatio != 0 {
		t.Fatalf("zero stated total must yield ratio 0, got %g", tab.Items[0].TotalDiscrepancyRatio)
	}
}

func TestLogTransforms(t *testing.T) {
	tab := &budget.Table{Items: []budget.LineItem{{Quantity: 0, UnitPrice: math.E - 1}}}
	Engineer(tab)
	it := tab.Items[0]
	if !almost(it.LogQuantity, 0) {
		t.Fatalf("log_quantity of 0 = %g, want 0", it.LogQuantity)
	}
	if !almost(it.LogUnitPrice, 1) {
		t.Fatalf("log_unit_price of e-1 = %g, want 1", it.LogUnitPrice)
	}
}

func TestReferenceDeviation(t *testing.T) {
	tab := &budget.Table{Items: []budget.LineItem{
		{UnitPrice: 45000000, ReferenceUnitPrice: budget.Defined(40000000)},
		{UnitPrice: 100}, // unmatched
	}}
	Engineer(tab)

	matched := tab.Items[0]
	if !matched.PriceDeviationRatio.Valid || !almost(matched.PriceDeviationRatio.Val, 1.125) {
		t.Fatalf("price_deviation_ratio = %+v, want 1.125", matched.PriceDeviationRatio)
	}
	if !matched.AbsPriceDiff.Valid || !almost(matched.AbsPriceDiff.Val, 5000000) {
		t.Fatalf("abs_price_diff = %+v, want 5000000", matched.AbsPriceDiff)
	}
	wantLog := math.Log1p(45000000) - math.Log1p(40000000)
	if !matched.LogPriceDeviation.Valid || !almost(matched.LogPriceDeviation.Val, wantLog) {
		t.Fatalf("log_price_deviation = %+v, want %g", matched.LogPriceDeviation, wantLog)
	}

	unmatched := tab.Items[1]
	if unmatched.PriceDeviationRatio.Valid || unmatched.AbsPriceDiff.Valid || unmatched.LogPriceDeviation.Valid {
		t.Fatalf("unmatched row must keep deviation features undefined: %+v", unmatched)
	}
}

func TestCategoryZScores(t *testing.T) {
	tab := &budget.Table{
		HasCategory: true,
		Items: []budget.LineItem{
			{Quantity: 1, UnitPrice: 10, Category: "A"},
			{Quantity: 2, UnitPrice: 20, Category: "A"},
			{Quantity: 3, UnitPrice: 30, Category: "A"},
			{Quantity: 7, UnitPrice: 100, Category: "B"}, // singleton group
		},
	}
	Engineer(tab)

	// group A: mean 2, sample std 1
	if !almost(tab.Items[0].QuantityZScore, -1) || !almost(tab.Items[2].QuantityZScore, 1) {
		t.Fatalf("quantity z-scores in A = %g, %g; want -1, 1",
			tab.Items[0].QuantityZScore, tab.Items[2].QuantityZScore)
	}
	if !almost(tab.Items[1].UnitPriceCatZScore, 0) {
		t.Fatalf("middle unit price z = %g, want 0", tab.Items[1].UnitPriceCatZScore)
	}
	// zero variance group falls back to 0
	if tab.Items[3].QuantityZScore != 0 || tab.Items[3].UnitPriceCatZScore != 0 {
		t.Fatalf("singleton group must yield 0 z-scores, got %+v", tab.Items[3])
	}
}

func TestNoCategoryColumnDegradation(t *testing.T) {
	tab := &budget.Table{
		HasCategory: false,
		Items: []budget.LineItem{
			{Quantity: 1, UnitPrice: 5},
			{Quantity: 2, UnitPrice: 50},
			{Quantity: 3, UnitPrice: 500},
		},
	}
	Engineer(tab)
	// global quantity z-score; unit price z fixed at 0
	if !almost(tab.Items[0].QuantityZScore, -1) || !almost(tab.Items[2].QuantityZScore, 1) {
		t.Fatalf("global quantity z-scores = %g, %g; want -1, 1",
			tab.Items[0].QuantityZScore, tab.Items[2].QuantityZScore)
	}
	for i, it := range tab.Items {
		if it.UnitPriceCatZScore != 0 {
			t.Fatalf("row %d: unit_price_cat_z_score must be 0 without categories, got %g", i, it.UnitPriceCatZScore)
		}
	}
}

func TestUncategorizedRowInCategorizedTable(t *testing.T) {
	tab := &budget.Table{
		HasCategory: true,
		Items: []budget.LineItem{
			{Quantity: 1, Category: "A"},
			{Quantity: 9, Category: "A"},
			{Quantity: 100, Category: ""},
		},
	}
	Engineer(tab)
	if tab.Items[2].QuantityZScore != 0 || tab.Items[2].UnitPriceCatZScore != 0 {
		t.Fatalf("row without category must get 0 z-scores, got %+v", tab.Items[2])
	}
}
