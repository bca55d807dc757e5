// Package scoring fits an isolation forest over the engineered features of
// the scorable rows, normalizes the model output into a bounded 0-100 risk
// score, and attaches rule-based explanations.
package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/fiscalbyte/budgetlens/internal/budget"
	"github.com/fiscalbyte/budgetlens/internal/iforest"
)

// Fixed result texts for rows the model never sees.
const (
	ExplanationNotVerified  = "Not Verified (No Reference Match)"
	ExplanationInsufficient = "Insufficient data for modeling"
	ExplanationNormal       = "Normal"
	ExplanationStatistical  = "Statistical anomaly detected (combination of factors)"
)

const (
	// MinScorable is the data-sufficiency floor: with fewer scorable rows
	// the model is skipped for the whole table.
	MinScorable = 5
	// DefaultContamination is the expected outlier fraction.
	DefaultContamination = 0.10
	// Contamination is operator-tunable inside this closed range.
	MinContamination = 0.01
	MaxContamination = 0.20
	// DefaultSeed fixes the forest's randomized splits across runs.
	DefaultSeed = 42
)

// Options tunes one scoring pass.
type Options struct {
	// Contamination is clamped to [MinContamination, MaxContamination];
	// 0 uses DefaultContamination.
	Contamination float64
	// Trees overrides the ensemble size; <= 0 uses iforest.DefaultTrees.
	Trees int
	// Seed for the forest; 0 uses DefaultSeed.
	Seed int64
	// Thresholds for explanation rules; zero value uses DefaultThresholds.
	Thresholds Thresholds
}

func (o Options) contamination() float64 {
	c := o.Contamination
	if c == 0 {
		c = DefaultContamination
	}
	return math.Min(MaxContamination, math.Max(MinContamination, c))
}

// Score fills AnomalyFlag, RiskScore and Explanation for every row. It
// never fails on well-typed input: unmatched rows get the fixed
// not-verified result, and a table with fewer than MinScorable eligible
// rows degrades to an all-normal, explained result.
func Score(t *budget.Table, opt Options) {
	th := opt.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}

	scorable := make([]int, 0, len(t.Items))
	for i := range t.Items {
		it := &t.Items[i]
		if it.ReferenceUnitPrice.Valid && it.LogPriceDeviation.Valid {
			scorable = append(scorable, i)
		}
	}

	if len(scorable) < MinScorable {
		for i := range t.Items {
			t.Items[i].AnomalyFlag = false
			t.Items[i].RiskScore = 0
			t.Items[i].Explanation = ExplanationInsufficient
		}
		return
	}

	for i := range t.Items {
		it := &t.Items[i]
		if !it.ReferenceUnitPrice.Valid || !it.LogPriceDeviation.Valid {
			it.AnomalyFlag = false
			it.RiskScore = 0
			it.Explanation = ExplanationNotVerified
		}
	}

	X := make([][]float64, len(scorable))
	for j, i := range scorable {
		it := &t.Items[i]
		X[j] = []float64{
			optOrZero(it.LogPriceDeviation),
			it.TotalDiscrepancyRatio,
			it.QuantityZScore,
			float64(it.MatchScore),
		}
	}

	seed := opt.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	forest := iforest.Fit(X, iforest.Options{Trees: opt.Trees, Seed: seed})
	inlier := forest.InlierScores(X)

	// Label so that roughly the contamination fraction of the training set
	// falls below the cutoff.
	cutoff := quantile(inlier, opt.contamination())
	for j, i := range scorable {
		t.Items[i].AnomalyFlag = inlier[j] < cutoff
	}

	// Negate so higher = more anomalous, then rescale the batch onto
	// [0, 100]. The mapping is relative to this batch only.
	neg := make([]float64, len(inlier))
	for j, s := range inlier {
		neg[j] = -s
	}
	lo, hi := floats.Min(neg), floats.Max(neg)
	for j, i := range scorable {
		if hi == lo {
			t.Items[i].RiskScore = 0
		} else {
			t.Items[i].RiskScore = (neg[j] - lo) / (hi - lo) * 100
		}
	}

	for _, i := range scorable {
		t.Items[i].Explanation = Explain(&t.Items[i], th)
	}
}

func optOrZero(f budget.Float) float64 {
	if !f.Valid {
		return 0
	}
	return f.Val
}

// quantile returns the linearly interpolated q-quantile of vals.
func quantile(vals []float64, q float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
