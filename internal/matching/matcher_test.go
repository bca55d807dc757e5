package matching

import (
	"reflect"
	"testing"

	"github.com/fiscalbyte/budgetlens/internal/budget"
	"github.com/fiscalbyte/budgetlens/internal/catalog"
)

func newCatalog(entries ...catalog.Item) *catalog.Catalog {
	return &catalog.Catalog{Items: entries}
}

func TestMatch_ThresholdBoundary(t *testing.T) {
	// "abxyz" vs "abcde" scores exactly 70, "abcdef" vs "abcxyzw" exactly 69.
	cat := newCatalog(
		catalog.Item{Name: "abcde", UnitPrice: 10},
		catalog.Item{Name: "abcxyzw", UnitPrice: 20},
	)
	m := NewMatcher(cat, Options{Workers: 1})

	tab := &budget.Table{Items: []budget.LineItem{
		{Description: "abxyz"},
		{Description: "abcdef"},
	}}
	m.Match(tab)

	at70 := tab.Items[0]
	if !at70.Matched() || at70.MatchScore != 70 || at70.MatchedRefName != "abcde" {
		t.Fatalf("score-70 item should match: %+v", at70)
	}
	if !at70.ReferenceUnitPrice.Valid || at70.ReferenceUnitPrice.Val != 10 {
		t.Fatalf("matched item should carry reference price, got %+v", at70.ReferenceUnitPrice)
	}

	at69 := tab.Items[1]
	if at69.Matched() || at69.MatchScore != 0 || at69.ReferenceUnitPrice.Valid {
		t.Fatalf("score-69 item should be unmatched with score 0: %+v", at69)
	}
}

func TestMatch_TieBreakFirstOccurrence(t *testing.T) {
	// Both entries normalize to the same text; the earlier one must win.
	cat := newCatalog(
		catalog.Item{Name: "Paper A4", UnitPrice: 100},
		catalog.Item{Name: "paper a4!", UnitPrice: 999},
	)
	m := NewMatcher(cat, Options{Workers: 1})

	tab := &budget.Table{Items: []budget.LineItem{{Description: "A4 Paper"}}}
	m.Match(tab)
	it := tab.Items[0]
	if it.MatchedRefName != "Paper A4" || it.ReferenceUnitPrice.Val != 100 {
		t.Fatalf("tie should go to first catalog entry, got %+v", it)
	}
}

func TestMatch_ParallelSameAsSerial(t *testing.T) {
	cat := newCatalog(
		catalog.Item{Name: "Laptop High Spec", UnitPrice: 40000000},
		catalog.Item{Name: "Paper A4", UnitPrice: 50000},
		catalog.Item{Name: "Desk Chair Ergonomic", UnitPrice: 1500000},
		catalog.Item{Name: "Projector HD", UnitPrice: 9000000},
	)
	mkTable := func() *budget.Table {
		return &budget.Table{Items: []budget.LineItem{
			{Description: "High Spec Laptop"},
			{Description: "A4 Paper 80gsm"},
			{Description: "ergonomic chair desk"},
			{Description: "HD projector mount"},
			{Description: "catering services"},
			{Description: ""},
		}}
	}

	serial := mkTable()
	NewMatcher(cat, Options{Workers: 1}).Match(serial)
	parallel := mkTable()
	NewMatcher(cat, Options{Workers: 8}).Match(parallel)

	if !reflect.DeepEqual(serial.Items, parallel.Items) {
		t.Fatalf("parallel matching diverged from serial:\nserial:   %+v\nparallel: %+v", serial.Items, parallel.Items)
	}
}

func TestMatch_EmptyDescriptionUnmatched(t *testing.T) {
	cat := newCatalog(catalog.Item{Name: "Laptop", UnitPrice: 100})
	tab := &budget.Table{Items: []budget.LineItem{{Description: "   "}}}
	NewMatcher(cat, Options{Workers: 1}).Match(tab)
	if tab.Items[0].Matched() {
		t.Fatalf("blank description must not match, got %+v", tab.Items[0])
	}
}
