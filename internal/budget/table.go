package budget

// Float is a float64 with an explicit defined/undefined state. Derived
// features that cannot be computed for a row (no reference match, zero
// denominator) stay undefined instead of borrowing a sentinel value.
type Float struct {
	Val   float64
	Valid bool
}

// Defined wraps v as a defined Float.
func Defined(v float64) Float { return Float{Val: v, Valid: true} }

// LineItem is one budget row. Ingestion fills the input fields; the
// matcher, feature engineer and scorer enrich it in place.
type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	TotalPrice  float64
	Category    string

	// Reference matching
	MatchedRefName     string
	MatchScore         int
	ReferenceUnitPrice Float

	// Structural features
	CalculatedTotal       float64
	TotalPriceDiscrepancy float64
	TotalDiscrepancyRatio float64
	LogQuantity           float64
	LogUnitPrice          float64

	// Reference-deviation features (undefined without a usable match)
	PriceDeviationRatio Float
	AbsPriceDiff        Float
	LogPriceDeviation   Float

	// Category-relative statistics (0 when the group gives no signal)
	QuantityZScore     float64
	UnitPriceCatZScore float64

	// Scoring output
	AnomalyFlag bool
	RiskScore   float64
	Explanation string
}

// Matched reports whether the matcher found an acceptable reference entry.
func (li *LineItem) Matched() bool { return li.MatchedRefName != "" }

// Table holds the rows of one analysis run. HasCategory records whether the
// source data carried a category column at all; its absence degrades the
// category-relative statistics rather than erroring.
type Table struct {
	Items       []LineItem
	HasCategory bool
}
