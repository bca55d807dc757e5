package budget

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ExportHeader is the column order of the exported result table. It carries
// the externally consumed projection plus every engineered feature.
var ExportHeader = []string{
	"item_description", "quantity", "unit_price", "total_price", "category",
	"matched_ref_name", "match_score", "reference_unit_price",
	"calculated_total", "total_price_discrepancy", "total_discrepancy_ratio",
	"log_quantity", "log_unit_price",
	"price_deviation_ratio", "abs_price_diff", "log_price_deviation",
	"quantity_z_score", "unit_price_cat_z_score",
	"risk_score", "anomaly_flag", "explanation",
}

// WriteCSV serializes the enriched table as UTF-8 delimited text with a
// header row. Undefined optional values become empty fields.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.Items {
		it := &t.Items[i]
		rec := []string{
			it.Description,
			formatFloat(it.Quantity),
			formatFloat(it.UnitPrice),
			formatFloat(it.TotalPrice),
			it.Category,
			it.MatchedRefName,
			strconv.Itoa(it.MatchScore),
			formatOpt(it.ReferenceUnitPrice),
			formatFloat(it.CalculatedTotal),
			formatFloat(it.TotalPriceDiscrepancy),
			formatFloat(it.TotalDiscrepancyRatio),
			formatFloat(it.LogQuantity),
			formatFloat(it.LogUnitPrice),
			formatOpt(it.PriceDeviationRatio),
			formatOpt(it.AbsPriceDiff),
			formatOpt(it.LogPriceDeviation),
			formatFloat(it.QuantityZScore),
			formatFloat(it.UnitPriceCatZScore),
			formatFloat(it.RiskScore),
			strconv.FormatBool(it.AnomalyFlag),
			it.Explanation,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the table to a file at path.
func ExportCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()
	if err := WriteCSV(f, t); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOpt(v Float) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Val)
}
