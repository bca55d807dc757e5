package matching

import (
	"runtime"
	"sync"

	"github.com/fiscalbyte/budgetlens/internal/budget"
	"github.com/fiscalbyte/budgetlens/internal/catalog"
)

// DefaultThreshold is the minimum token-sort score an item must reach
// against some catalog entry to count as matched.
const DefaultThreshold = 70

// Options tunes the reference matcher.
type Options struct {
	// Threshold below which the best candidate is rejected. <= 0 uses
	// DefaultThreshold.
	Threshold int
	// Workers bounds the matching goroutines. <= 0 uses GOMAXPROCS.
	Workers int
}

// Matcher scores budget descriptions against a reference catalog. Reference
// names are normalized once at construction and reused for every row.
type Matcher struct {
	threshold  int
	workers    int
	names      []string
	prices     []float64
	normalized []string
}

// NewMatcher builds a matcher over the given catalog.
func NewMatcher(c *catalog.Catalog, opt Options) *Matcher {
	threshold := opt.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	m := &Matcher{
		threshold:  threshold,
		workers:    workers,
		names:      make([]string, len(c.Items)),
		prices:     make([]float64, len(c.Items)),
		normalized: make([]string, len(c.Items)),
	}
	for i, it := range c.Items {
		m.names[i] = it.Name
		m.prices[i] = it.UnitPrice
		m.normalized[i] = Normalize(it.Name)
	}
	return m
}

// Match enriches every row of t with the matched reference name, the match
// score and the reference unit price. Rows are independent; they are scored
// in parallel and written back by index, so output is identical regardless
// of scheduling.
func (m *Matcher) Match(t *budget.Table) {
	items := t.Items
	workers := m.workers
	if workers > len(items) {
		workers = len(items)
	}
	if workers <= 1 {
		for i := range items {
			m.matchRow(&items[i])
		}
		return
	}

	var wg sync.WaitGroup
	next := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				m.matchRow(&items[i])
			}
		}()
	}
	for i := range items {
		next <- i
	}
	close(next)
	wg.Wait()
}

// matchRow scores one description against every catalog entry and keeps the
// best. Ties go to the earliest catalog entry: only a strictly greater
// score replaces the incumbent.
func (m *Matcher) matchRow(it *budget.LineItem) {
	desc := Normalize(it.Description)
	bestIdx := -1
	bestScore := 0
	for i, ref := range m.normalized {
		score := TokenSortRatio(desc, ref)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < m.threshold {
		it.MatchedRefName = ""
		it.MatchScore = 0
		it.ReferenceUnitPrice = budget.Float{}
		return
	}
	it.MatchedRefName = m.names[bestIdx]
	it.MatchScore = bestScore
	it.ReferenceUnitPrice = budget.Defined(m.prices[bestIdx])
}
