package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/fiscalbyte/budgetlens/internal/budget"
)

// Thresholds are the hand-tuned constants behind the explanation rules.
// They are deliberately independent of the matcher's accept threshold.
type Thresholds struct {
	// PriceHighRatio / PriceLowRatio bound the "normal" deviation band.
	PriceHighRatio float64
	PriceLowRatio  float64
	// DiscrepancyTolerance is the accepted quantity*unit vs total slack.
	DiscrepancyTolerance float64
	// QuantityZ flags quantities unusual for their category.
	QuantityZ float64
	// LowMatchScore flags low-confidence reference matches.
	LowMatchScore int
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceHighRatio:       1.5,
		PriceLowRatio:        0.5,
		DiscrepancyTolerance: 0.05,
		QuantityZ:            2,
		LowMatchScore:        80,
	}
}

// Explain builds the human-readable reason string for a scored row. Rules
// are evaluated in a fixed order and joined with "; "; the result is
// independent of the model internals except for the final fallback, which
// consults the already-set anomaly flag.
func Explain(it *budget.LineItem, th Thresholds) string {
	var reasons []string

	if it.PriceDeviationRatio.Valid {
		switch ratio := it.PriceDeviationRatio.Val; {
		case ratio > th.PriceHighRatio:
			reasons = append(reasons, fmt.Sprintf("Price %.1fx higher than reference", ratio))
		case ratio < th.PriceLowRatio:
			reasons = append(reasons, fmt.Sprintf("Price %.1fx lower than reference", ratio))
		}
	}
	if it.TotalDiscrepancyRatio > th.DiscrepancyTolerance {
		reasons = append(reasons, "Total price calculation mismatch")
	}
	if math.Abs(it.QuantityZScore) > th.QuantityZ {
		reasons = append(reasons, "Unusual quantity for category")
	}
	if it.MatchScore < th.LowMatchScore {
		reasons = append(reasons, "Low confidence reference match")
	}

	if len(reasons) == 0 {
		if it.AnomalyFlag {
			return ExplanationStatistical
		}
		return ExplanationNormal
	}
	return strings.Join(reasons, "; ")
}
