// Package features derives the numeric signals the anomaly scorer consumes:
// structural consistency of each row, deviation from the matched reference
// price, and category-relative statistics.
package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/fiscalbyte/budgetlens/internal/budget"
)

// Engineer computes every derived column in place. It never removes rows
// and never touches the match columns; undefined computations stay as
// undefined Float values rather than zeros, except where a zero fallback is
// the documented degradation (discrepancy ratio, z-scores).
func Engineer(t *budget.Table) {
	for i := range t.Items {
		structural(&t.Items[i])
		referenceDeviation(&t.Items[i])
	}
	statistical(t)
}

// structural features are computed for every row regardless of match
// status. A missing stated total is "no discrepancy signal", so the ratio
// falls back to an explicit zero.
func structural(it *budget.LineItem) {
	it.CalculatedTotal = it.Quantity * it.UnitPrice
	it.TotalPriceDiscrepancy = math.Abs(it.CalculatedTotal - it.TotalPrice)
	if it.TotalPrice > 0 {
		it.TotalDiscrepancyRatio = it.TotalPriceDiscrepancy / it.TotalPrice
	} else {
		it.TotalDiscrepancyRatio = 0
	}
	it.LogQuantity = math.Log1p(it.Quantity)
	it.LogUnitPrice = math.Log1p(it.UnitPrice)
}

// referenceDeviation features exist only where a positive reference unit
// price is attached; everything else stays undefined.
func referenceDeviation(it *budget.LineItem) {
	if !it.ReferenceUnitPrice.Valid || it.ReferenceUnitPrice.Val <= 0 {
		it.PriceDeviationRatio = budget.Float{}
		it.AbsPriceDiff = budget.Float{}
		it.LogPriceDeviation = budget.Float{}
		return
	}
	ref := it.ReferenceUnitPrice.Val
	it.PriceDeviationRatio = budget.Defined(it.UnitPrice / ref)
	it.AbsPriceDiff = budget.Defined(math.Abs(it.UnitPrice - ref))
	it.LogPriceDeviation = budget.Defined(math.Log1p(it.UnitPrice) - math.Log1p(ref))
}

// statistical computes z-scores of quantity and unit price within each
// category group, or globally for quantity when no category column exists.
// Zero-variance groups (single item, identical values) yield 0 rather than
// an undefined or infinite score.
func statistical(t *budget.Table) {
	if !t.HasCategory {
		quantities := make([]float64, len(t.Items))
		for i := range t.Items {
			quantities[i] = t.Items[i].Quantity
		}
		mean, std := meanStd(quantities)
		for i := range t.Items {
			t.Items[i].QuantityZScore = zScore(t.Items[i].Quantity, mean, std)
			t.Items[i].UnitPriceCatZScore = 0 // cannot compute without categories
		}
		return
	}

	type groupStats struct {
		qtyMean, qtyStd     float64
		priceMean, priceStd float64
	}
	byCat := map[string][]int{}
	for i := range t.Items {
		cat := t.Items[i].Category
		if cat == "" {
			continue
		}
		byCat[cat] = append(byCat[cat], i)
	}
	stats := make(map[string]groupStats, len(byCat))
	for cat, idxs := range byCat {
		qty := make([]float64, len(idxs))
		price := make([]float64, len(idxs))
		for j, i := range idxs {
			qty[j] = t.Items[i].Quantity
			price[j] = t.Items[i].UnitPrice
		}
		var gs groupStats
		gs.qtyMean, gs.qtyStd = meanStd(qty)
		gs.priceMean, gs.priceStd = meanStd(price)
		stats[cat] = gs
	}
	for i := range t.Items {
		it := &t.Items[i]
		gs, ok := stats[it.Category]
		if !ok {
			// uncategorized row in a categorized table: no peer group
			it.QuantityZScore = 0
			it.UnitPriceCatZScore = 0
			continue
		}
		it.QuantityZScore = zScore(it.Quantity, gs.qtyMean, gs.qtyStd)
		it.UnitPriceCatZScore = zScore(it.UnitPrice, gs.priceMean, gs.priceStd)
	}
}

// meanStd returns the mean and sample standard deviation; a group of one
// has no spread, so std is reported as 0.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean, std = stat.MeanStdDev(xs, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

func zScore(x, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (x - mean) / std
}
