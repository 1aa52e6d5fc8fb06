package crossval

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/forest"
)

// Param identifies the forest hyperparameter a Space tunes.
type Param string

const (
	MTry        Param = "mtry"
	NumTrees    Param = "trees"
	MaxDepth    Param = "depth"
	MinNodeSize Param = "min-node"
)

/*
Space describes one cross-validated hyperparameter search: the outcome
column, the parameter under tuning and its candidate values, the fold
count and the options shared by every candidate forest.
*/
type Space struct {
	// Outcome is the name of the outcome column. A continuous outcome
	// is tuned by mean squared error, a discrete one by its
	// misclassification rate.
	Outcome string
	// Param is the hyperparameter under tuning and Values its
	// candidates.
	Param  Param
	Values []int
	// Folds is the fold count k.
	Folds int
	// Seed makes the fold assignment and every trained forest
	// reproducible.
	Seed int64
	// NumWorkers bounds how many (value, fold) pairs are trained at
	// once. Defaults to 1.
	NumWorkers int
	// Options are applied to every candidate forest before the tuned
	// parameter.
	Options []forest.Option
}

// Row is the cross-validation outcome for one candidate value.
type Row struct {
	// Value is the candidate hyperparameter value.
	Value int
	// FoldErrors holds the per-fold test errors, indexed by fold id.
	FoldErrors []float64
	// MeanError is the average of FoldErrors.
	MeanError float64
	// RSquared is 1 - MeanError/variance(outcome) on regression
	// searches and 0 otherwise.
	RSquared float64
}

/*
Result is a cross-validation result table: one row per candidate value,
sorted by ascending value, plus the index of the best row.
*/
type Result struct {
	Param      Param
	Regression bool
	Rows       []Row
	// Best indexes the row with the minimum mean error. Candidates
	// tying on mean error resolve to the smallest value, so the
	// simplest model wins.
	Best int
}

// BestValue returns the candidate value of the best row.
func (r *Result) BestValue() int {
	return r.Rows[r.Best].Value
}

/*
Run cross-validates every candidate value of the space on the given
dataset. For each candidate value v and fold f it trains a forest with
the space options and v on the rows outside f, scores its predictions on
the rows inside f, and averages the k fold errors of v into one row of
the result table.

(value, fold) pairs are independent and run in parallel, each seeded
deterministically from the space seed. If training or scoring any pair
fails, Run reports the failing value and fold instead of aggregating a
partial average.
*/
func (s *Space) Run(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	switch s.Param {
	case MTry, NumTrees, MaxDepth, MinNodeSize:
	default:
		return nil, fmt.Errorf("cross-validating: unknown parameter %q", s.Param)
	}
	if len(s.Values) == 0 {
		return nil, fmt.Errorf("cross-validating %s: no candidate values", s.Param)
	}
	out, ok := ds.Column(s.Outcome)
	if !ok {
		return nil, fmt.Errorf("cross-validating %s: outcome column %s is not part of the dataset", s.Param, s.Outcome)
	}
	regression := out.Continuous()

	assign, err := Folds(ds.Len(), s.Folds, s.Seed)
	if err != nil {
		return nil, fmt.Errorf("cross-validating %s: %v", s.Param, err)
	}

	values := append([]int(nil), s.Values...)
	sort.Ints(values)

	result := &Result{
		Param:      s.Param,
		Regression: regression,
		Rows:       make([]Row, len(values)),
	}
	for i, v := range values {
		result.Rows[i] = Row{Value: v, FoldErrors: make([]float64, s.Folds)}
	}

	// one seed per (value, fold) pair, drawn up front so results do
	// not depend on scheduling
	seeds := make([][]int64, len(values))
	base := rand.New(rand.NewSource(s.Seed))
	for i := range values {
		seeds[i] = make([]int64, s.Folds)
		for j := range seeds[i] {
			seeds[i][j] = base.Int63()
		}
	}

	nWorkers := s.NumWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nWorkers)

	for vi := range values {
		for fi := 0; fi < s.Folds; fi++ {
			vi, fi := vi, fi
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				trainInx, testInx := foldIndices(assign, fi)
				e, err := s.scoreFold(ds, regression, values[vi], seeds[vi][fi], trainInx, testInx)
				if err != nil {
					return fmt.Errorf("cross-validating %s=%d: fold %d: %v", s.Param, values[vi], fi+1, err)
				}
				result.Rows[vi].FoldErrors[fi] = e
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var outcomeVar float64
	if regression {
		outcomeVar = stat.Variance(out.Floats, nil)
	}
	for i := range result.Rows {
		row := &result.Rows[i]
		row.MeanError = stat.Mean(row.FoldErrors, nil)
		if regression && outcomeVar > 0 {
			row.RSquared = 1.0 - row.MeanError/outcomeVar
		}
		if row.MeanError < result.Rows[result.Best].MeanError && i != result.Best {
			result.Best = i
		}
	}
	return result, nil
}

func (s *Space) scoreFold(ds *dataset.Dataset, regression bool, value int, seed int64, trainInx, testInx []int) (float64, error) {
	if len(trainInx) == 0 || len(testInx) == 0 {
		return 0, fmt.Errorf("empty fold partition")
	}
	train := ds.Subset(trainInx)
	test := ds.Subset(testInx)

	options := append([]forest.Option{}, s.Options...)
	options = append(options, s.tunedOption(value), forest.Seed(seed))

	if regression {
		reg := forest.NewRegressor(options...)
		if err := reg.Fit(train, s.Outcome); err != nil {
			return 0, err
		}
		pred, err := reg.Predict(test)
		if err != nil {
			return 0, err
		}
		actual, _ := test.Column(s.Outcome)
		var rss float64
		for i, p := range pred {
			d := actual.Floats[i] - p
			rss += d * d
		}
		return rss / float64(len(pred)), nil
	}

	clf := forest.NewClassifier(options...)
	if err := clf.Fit(train, s.Outcome); err != nil {
		return 0, err
	}
	pred, err := clf.Predict(test)
	if err != nil {
		return 0, err
	}
	actual, _ := test.Column(s.Outcome)
	missed := 0
	for i, p := range pred {
		if clf.Classes[actual.Codes[i]] != p {
			missed++
		}
	}
	return float64(missed) / float64(len(pred)), nil
}

func (s *Space) tunedOption(value int) forest.Option {
	switch s.Param {
	case NumTrees:
		return forest.NumTrees(value)
	case MaxDepth:
		return forest.MaxDepth(value)
	case MinNodeSize:
		return forest.MinNodeSize(value)
	default:
		return forest.MTry(value)
	}
}
