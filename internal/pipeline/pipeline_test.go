package pipeline

import (
	"math"
	"testing"

	"github.com/fiscalbyte/budgetlens/internal/budget"
	"github.com/fiscalbyte/budgetlens/internal/catalog"
	"github.com/fiscalbyte/budgetlens/internal/scoring"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{Items: []catalog.Item{
		{Name: "Laptop High Spec", UnitPrice: 40000000},
		{Name: "Paper A4", UnitPrice: 50000},
		{Name: "Desk Chair Ergonomic", UnitPrice: 1500000},
		{Name: "Projector HD", UnitPrice: 9000000},
		{Name: "Whiteboard Marker", UnitPrice: 8000},
		{Name: "External Monitor 24", UnitPrice: 2500000},
	}}
}

func testTable() *budget.Table {
	return &budget.Table{
		HasCategory: true,
		Items: []budget.LineItem{
			{Description: "High Spec Laptop", Quantity: 10, UnitPrice: 45000000, TotalPrice: 450000000, Category: "IT Equipment"},
			{Description: "Paper A4 80gsm", Quantity: 200, UnitPrice: 55000, TotalPrice: 11000000, Category: "Office Supplies"},
			{Description: "Ergonomic Desk Chair", Quantity: 20, UnitPrice: 1400000, TotalPrice: 28000000, Category: "Furniture"},
			{Description: "HD Projector", Quantity: 2, UnitPrice: 9500000, TotalPrice: 19000000, Category: "IT Equipment"},
			{Description: "Whiteboard Marker Pack", Quantity: 50, UnitPrice: 9000, TotalPrice: 450000, Category: "Office Supplies"},
			{Description: "24 External Monitor", Quantity: 8, UnitPrice: 2600000, TotalPrice: 20800000, Category: "IT Equipment"},
			{Description: "catering services annual", Quantity: 1, UnitPrice: 120000000, TotalPrice: 120000000, Category: "Services"},
		},
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	tab := testTable()
	res := Analyze(tab, testCatalog(), Options{Contamination: 0.1})

	if res.RunID == "" {
		t.Fatal("run id must be set")
	}
	if res.Rows != 7 {
		t.Fatalf("rows = %d, want 7", res.Rows)
	}
	if res.Matched != 6 {
		t.Fatalf("matched = %d, want 6", res.Matched)
	}

	laptop := tab.Items[0]
	if laptop.MatchedRefName != "Laptop High Spec" || laptop.MatchScore != 100 {
		t.Fatalf("laptop match: %+v", laptop)
	}
	if !laptop.PriceDeviationRatio.Valid || math.Abs(laptop.PriceDeviationRatio.Val-1.125) > 1e-9 {
		t.Fatalf("laptop price_deviation_ratio = %+v, want 1.125", laptop.PriceDeviationRatio)
	}
	if laptop.TotalPriceDiscrepancy != 0 {
		t.Fatalf("laptop total_price_discrepancy = %g, want 0", laptop.TotalPriceDiscrepancy)
	}

	unmatched := tab.Items[6]
	if unmatched.Matched() {
		t.Fatalf("catering row should not match: %+v", unmatched)
	}
	if unmatched.Explanation != scoring.ExplanationNotVerified || unmatched.RiskScore != 0 || unmatched.AnomalyFlag {
		t.Fatalf("catering row must stay not-verified: %+v", unmatched)
	}

	for i, it := range tab.Items {
		if it.RiskScore < 0 || it.RiskScore > 100 {
			t.Fatalf("row %d: risk score %g outside [0, 100]", i, it.RiskScore)
		}
		if it.Explanation == "" {
			t.Fatalf("row %d: explanation must always be set", i)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := testTable()
	b := testTable()
	Analyze(a, testCatalog(), Options{Contamination: 0.1, Seed: 42})
	Analyze(b, testCatalog(), Options{Contamination: 0.1, Seed: 42})
	for i := range a.Items {
		x, y := a.Items[i], b.Items[i]
		if x.AnomalyFlag != y.AnomalyFlag || x.Explanation != y.Explanation {
			t.Fatalf("row %d: runs diverged: %+v vs %+v", i, x, y)
		}
		if math.Abs(x.RiskScore-y.RiskScore) > 1e-9 {
			t.Fatalf("row %d: risk scores differ: %g vs %g", i, x.RiskScore, y.RiskScore)
		}
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	tab := &budget.Table{Items: []budget.LineItem{
		{Description: "High Spec Laptop", Quantity: 1, UnitPrice: 45000000, TotalPrice: 45000000},
		{Description: "Paper A4", Quantity: 10, UnitPrice: 55000, TotalPrice: 550000},
	}}
	res := Analyze(tab, testCatalog(), Options{})
	if res.Anomalies != 0 {
		t.Fatalf("anomalies = %d, want 0 under the sufficiency guard", res.Anomalies)
	}
	for i, it := range tab.Items {
		if it.Explanation != scoring.ExplanationInsufficient {
			t.Fatalf("row %d: explanation = %q, want %q", i, it.Explanation, scoring.ExplanationInsufficient)
		}
	}
}

func TestAnalyze_FreshRunIDs(t *testing.T) {
	a := Analyze(testTable(), testCatalog(), Options{})
	b := Analyze(testTable(), testCatalog(), Options{})
	if a.RunID == b.RunID {
		t.Fatal("each run must get its own id")
	}
}
