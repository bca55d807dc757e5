package budget

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names the ingestion boundary requires (case-insensitive).
const (
	colDescription = "item_description"
	colQuantity    = "quantity"
	colUnitPrice   = "unit_price"
	colTotalPrice  = "total_price"
	colCategory    = "category"
)

// ReadOptions controls budget ingestion.
type ReadOptions struct {
	// Delimiter for CSV. If 0, auto-detects from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, strips common separators (',' '.' space)
	// SheetName/SheetIndex select the worksheet for XLSX input.
	SheetName  string
	SheetIndex int
}

// ReadFile loads a budget table from a CSV, TSV or XLSX file. Malformed
// input (missing required column, unparsable numeric field) fails here with
// a descriptive error; downstream stages assume well-typed rows.
func ReadFile(path string, opt ReadOptions) (*Table, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") {
		rows, err := readXLSXRows(path, opt.SheetName, opt.SheetIndex)
		if err != nil {
			return nil, err
		}
		return fromRows(rows, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open budget file: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(f, delim, opt)
}

// ReadCSV loads a budget table from delimited text.
func ReadCSV(r io.Reader, delim rune, opt ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if delim != 0 {
		cr.Comma = delim
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		cp := make([]string, len(rec))
		copy(cp, rec)
		rows = append(rows, cp)
	}
	return fromRows(rows, opt)
}

// fromRows converts a header row plus data rows into a Table.
func fromRows(rows [][]string, opt ReadOptions) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty input: no header row")
	}
	header := rows[0]
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colDescription, colQuantity, colUnitPrice, colTotalPrice} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	catIdx, hasCategory := idx[colCategory]

	t := &Table{HasCategory: hasCategory, Items: make([]LineItem, 0, len(rows)-1)}
	for n, rec := range rows[1:] {
		if isBlankRow(rec) {
			continue
		}
		item := LineItem{Description: cell(rec, idx[colDescription])}
		var err error
		if item.Quantity, err = parseNumericField(cell(rec, idx[colQuantity]), opt); err != nil {
			return nil, fmt.Errorf("row %d: column %q: %w", n+1, colQuantity, err)
		}
		if item.UnitPrice, err = parseNumericField(cell(rec, idx[colUnitPrice]), opt); err != nil {
			return nil, fmt.Errorf("row %d: column %q: %w", n+1, colUnitPrice, err)
		}
		if item.TotalPrice, err = parseNumericField(cell(rec, idx[colTotalPrice]), opt); err != nil {
			return nil, fmt.Errorf("row %d: column %q: %w", n+1, colTotalPrice, err)
		}
		if hasCategory {
			item.Category = strings.TrimSpace(cell(rec, catIdx))
		}
		t.Items = append(t.Items, item)
	}
	return t, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// parseNumericField parses a budget amount with locale auto-detection for
// decimal and thousands separators. An empty field is an error at this
// boundary: the core's quantity/price columns are required.
func parseNumericField(s string, opt ReadOptions) (float64, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable numeric value %q", s)
	}
	return f, nil
}
