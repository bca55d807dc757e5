// Package iforest implements a seeded isolation forest: an ensemble of
// randomized binary partitioning trees in which outliers isolate at shallow
// depth because they sit in sparse regions of the feature space.
package iforest

import (
	"math"
	"math/rand"
)

const (
	// DefaultTrees is the fixed ensemble size.
	DefaultTrees = 100
	// DefaultSampleSize caps the per-tree training subsample.
	DefaultSampleSize = 256
	// eulerGamma is the Euler-Mascheroni constant used by the average
	// unsuccessful-BST-search path length.
	eulerGamma = 0.5772156649015329
)

// Options configures forest construction. The seed is an explicit
// parameter: identical data and options must produce identical forests.
type Options struct {
	Trees      int
	SampleSize int
	Seed       int64
}

type node struct {
	// leaf when left == nil; size is the number of training points that
	// reached the leaf
	left    *node
	right   *node
	feature int
	split   float64
	size    int
}

// Forest is a fitted isolation forest.
type Forest struct {
	trees      []*node
	sampleSize int
}

// Fit builds the ensemble over X (rows = points, columns = features).
// Trees are built sequentially from one seeded source, so a fixed seed
// fully determines the forest.
func Fit(X [][]float64, opt Options) *Forest {
	trees := opt.Trees
	if trees <= 0 {
		trees = DefaultTrees
	}
	sample := opt.SampleSize
	if sample <= 0 {
		sample = DefaultSampleSize
	}
	if sample > len(X) {
		sample = len(X)
	}
	rng := rand.New(rand.NewSource(opt.Seed))
	heightLimit := int(math.Ceil(math.Log2(math.Max(2, float64(sample)))))

	f := &Forest{trees: make([]*node, 0, trees), sampleSize: sample}
	for t := 0; t < trees; t++ {
		sub := X
		if sample < len(X) {
			perm := rng.Perm(len(X))[:sample]
			sub = make([][]float64, sample)
			for i, p := range perm {
				sub[i] = X[p]
			}
		}
		f.trees = append(f.trees, buildTree(sub, 0, heightLimit, rng))
	}
	return f
}

func buildTree(data [][]float64, depth, limit int, rng *rand.Rand) *node {
	if depth >= limit || len(data) <= 1 {
		return &node{size: len(data)}
	}
	// features with spread in this partition
	ncol := len(data[0])
	splittable := make([]int, 0, ncol)
	for j := 0; j < ncol; j++ {
		lo, hi := data[0][j], data[0][j]
		for _, row := range data {
			if row[j] < lo {
				lo = row[j]
			}
			if row[j] > hi {
				hi = row[j]
			}
		}
		if hi > lo {
			splittable = append(splittable, j)
		}
	}
	if len(splittable) == 0 {
		// all points identical: nothing left to isolate
		return &node{size: len(data)}
	}
	feature := splittable[rng.Intn(len(splittable))]
	lo, hi := data[0][feature], data[0][feature]
	for _, row := range data {
		if row[feature] < lo {
			lo = row[feature]
		}
		if row[feature] > hi {
			hi = row[feature]
		}
	}
	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, row := range data {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &node{size: len(data)}
	}
	return &node{
		feature: feature,
		split:   split,
		left:    buildTree(left, depth+1, limit, rng),
		right:   buildTree(right, depth+1, limit, rng),
		size:    len(data),
	}
}

// pathLength walks x down one tree; reaching a non-singleton leaf adds the
// expected remaining depth c(size).
func pathLength(x []float64, n *node, depth float64) float64 {
	if n.left == nil {
		return depth + avgPathLength(n.size)
	}
	if x[n.feature] < n.split {
		return pathLength(x, n.left, depth+1)
	}
	return pathLength(x, n.right, depth+1)
}

// avgPathLength is c(n), the average path length of an unsuccessful search
// in a binary search tree of n points.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

// AnomalyScore returns 2^(-E[h(x)]/c(sample)) in (0, 1]; higher means more
// anomalous (faster isolation).
func (f *Forest) AnomalyScore(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += pathLength(x, t, 0)
	}
	avg := sum / float64(len(f.trees))
	denom := avgPathLength(f.sampleSize)
	if denom == 0 {
		return 0
	}
	return math.Pow(2, -avg/denom)
}

// InlierScores returns per-point scores that increase with path length:
// more inlier-like points score higher. It is the negated anomaly score.
func (f *Forest) InlierScores(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = -f.AnomalyScore(x)
	}
	return out
}
