package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Item is one reference catalog entry: a standardized item name and its
// reference unit price. Entries are immutable for the duration of a run.
type Item struct {
	Name      string
	UnitPrice float64
}

// Catalog is the read-only reference price list loaded once per run.
// Catalog order is meaningful: the matcher breaks score ties by first
// occurrence.
type Catalog struct {
	Items []Item
}

// Required columns in a reference catalog CSV (case-insensitive).
const (
	colName      = "standardized_item_name"
	colUnitPrice = "unit_price"
)

// Load reads a reference catalog from a CSV file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference catalog: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses catalog CSV content. Rows with an unparsable or non-positive
// unit price fail fast: the reference side must be well-formed.
func Read(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty reference catalog")
		}
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	nameIdx, priceIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case colName:
			nameIdx = i
		case colUnitPrice:
			priceIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", colName)
	}
	if priceIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", colUnitPrice)
	}

	c := &Catalog{}
	row := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read catalog row %d: %w", row+1, err)
		}
		row++
		name := field(rec, nameIdx)
		if name == "" {
			continue
		}
		price, err := strconv.ParseFloat(field(rec, priceIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: unparsable unit_price %q", row, field(rec, priceIdx))
		}
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("catalog row %d: unit_price must be positive, got %g", row, price)
		}
		c.Items = append(c.Items, Item{Name: name, UnitPrice: price})
	}
	if len(c.Items) == 0 {
		return nil, fmt.Errorf("reference catalog has no usable entries")
	}
	return c, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// Summary captures the price distribution of a catalog for inspection.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
}

// Summarize computes price distribution statistics over the catalog.
func (c *Catalog) Summarize() Summary {
	prices := make([]float64, len(c.Items))
	for i, it := range c.Items {
		prices[i] = it.UnitPrice
	}
	s := Summary{Count: len(prices)}
	if len(prices) == 0 {
		return s
	}
	s.Min = floats.Min(prices)
	s.Max = floats.Max(prices)
	s.Mean, s.Std = stat.MeanStdDev(prices, nil)
	if math.IsNaN(s.Std) {
		s.Std = 0
	}
	return s
}
