// Package pipeline wires the three analysis stages together: reference
// matching, feature engineering and anomaly scoring. One invocation
// processes one table end to end; nothing survives between runs.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalbyte/budgetlens/internal/budget"
	"github.com/fiscalbyte/budgetlens/internal/catalog"
	"github.com/fiscalbyte/budgetlens/internal/features"
	"github.com/fiscalbyte/budgetlens/internal/matching"
	"github.com/fiscalbyte/budgetlens/internal/scoring"
	"github.com/fiscalbyte/budgetlens/pkg/logger"
)

// Options aggregates the tunables of all stages.
type Options struct {
	Contamination  float64
	MatchThreshold int
	MatchWorkers   int
	Trees          int
	Seed           int64
	Thresholds     scoring.Thresholds
	Logger         logger.Logger
}

// Result is the outcome of one analysis run. Table is the input table
// enriched in place with match, feature and scoring columns.
type Result struct {
	RunID     string
	Table     *budget.Table
	Rows      int
	Matched   int
	Anomalies int
	Elapsed   time.Duration
}

// Analyze runs the full pipeline over the budget table against the
// reference catalog. It enriches t in place and never fails on well-typed
// input; every degenerate condition resolves to a defined result.
func Analyze(t *budget.Table, cat *catalog.Catalog, opt Options) *Result {
	log := opt.Logger
	if log == nil {
		log = logger.NewNop()
	}
	runID := uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.RunIDKey, runID)
	start := time.Now()

	log.Infof(stage(ctx, "match"), "matching %d budget rows against %d reference entries", len(t.Items), len(cat.Items))
	m := matching.NewMatcher(cat, matching.Options{
		Threshold: opt.MatchThreshold,
		Workers:   opt.MatchWorkers,
	})
	m.Match(t)

	log.Infof(stage(ctx, "features"), "engineering features (category column: %t)", t.HasCategory)
	features.Engineer(t)

	log.Infof(stage(ctx, "score"), "scoring with contamination %.2f", opt.Contamination)
	scoring.Score(t, scoring.Options{
		Contamination: opt.Contamination,
		Trees:         opt.Trees,
		Seed:          opt.Seed,
		Thresholds:    opt.Thresholds,
	})

	res := &Result{
		RunID:   runID,
		Table:   t,
		Rows:    len(t.Items),
		Elapsed: time.Since(start),
	}
	for i := range t.Items {
		if t.Items[i].Matched() {
			res.Matched++
		}
		if t.Items[i].AnomalyFlag {
			res.Anomalies++
		}
	}
	log.Infof(ctx, "analysis finished: %d rows, %d matched, %d anomalies in %s",
		res.Rows, res.Matched, res.Anomalies, res.Elapsed)
	return res
}

func stage(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, logger.StageKey, name)
}
