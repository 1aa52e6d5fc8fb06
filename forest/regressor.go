package forest

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"github.com/j3schaue/intro-to-random-forests/tree"
)

// Regressor implements a random forest predicting a continuous outcome.
// It should be initialized with NewRegressor.
type Regressor struct {
	NumTrees    int
	MTry        int
	MaxDepth    int
	MinNodeSize int
	Trees       []*tree.Regressor
	// OOB holds, for every tree, the original row indices left out of
	// the tree's bootstrap sample.
	OOB        [][]int
	Predictors []feature.Feature
	Outcome    feature.Feature
	// MSE and RSquared are the out-of-bag error estimates, filled in
	// when fitting with ComputeOOB.
	MSE      float64
	RSquared float64

	nWorkers   int
	seed       int64
	computeOOB bool
}

func (f *Regressor) setNumTrees(n int)                  { f.NumTrees = n }
func (f *Regressor) setMTry(n int)                      { f.MTry = n }
func (f *Regressor) setMaxDepth(n int)                  { f.MaxDepth = n }
func (f *Regressor) setMinNodeSize(n int)               { f.MinNodeSize = n }
func (f *Regressor) setImpurity(m tree.ImpurityMeasure) {}
func (f *Regressor) setNumWorkers(n int)                { f.nWorkers = n }
func (f *Regressor) setSeed(n int64)                    { f.seed = n }
func (f *Regressor) setComputeOOB()                     { f.computeOOB = true }

// NewRegressor returns a configured/initialized random forest regressor.
// If no options are passed, the returned Regressor will be equivalent to
// the following call:
//
//	reg := NewRegressor(NumTrees(100), MTry(-1), MaxDepth(-1),
//		MinNodeSize(5), NumWorkers(1))
func NewRegressor(options ...Option) *Regressor {
	f := &Regressor{
		NumTrees:    100,
		MTry:        -1,
		MaxDepth:    -1,
		MinNodeSize: 5,
		seed:        time.Now().UnixNano(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

/*
Fit grows NumTrees regression trees over independent bootstrap samples of
the given dataset to predict the outcome column with the given name. The
outcome must be a continuous feature; every other column of the dataset
is used as a predictor. Input validation failures are reported before any
tree is grown.
*/
func (f *Regressor) Fit(ds *dataset.Dataset, outcome string) error {
	X, out, err := ds.Split(outcome)
	if err != nil {
		return fmt.Errorf("fitting regression forest: %v", err)
	}
	if !out.Continuous() {
		return fmt.Errorf("fitting regression forest: outcome %s is not a continuous feature", outcome)
	}
	Y := out.Floats

	mtry := f.MTry
	if mtry < 0 {
		mtry = len(X) / 3
		if mtry < 1 {
			mtry = 1
		}
	}
	if err := validate(f.NumTrees, mtry, f.MaxDepth, f.MinNodeSize, len(X)); err != nil {
		return fmt.Errorf("fitting regression forest: %v", err)
	}

	f.Predictors = make([]feature.Feature, len(X))
	for i, c := range X {
		f.Predictors[i] = c.Feature
	}
	f.Outcome = out.Feature
	f.Trees = make([]*tree.Regressor, f.NumTrees)
	f.OOB = make([][]int, f.NumTrees)

	type fitTree struct {
		id  int
		inx []int
		rng *rand.Rand
		t   *tree.Regressor
		err error
	}

	in := make(chan *fitTree)
	outc := make(chan *fitTree)

	nWorkers := f.nWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}
	for i := 0; i < nWorkers; i++ {
		go func() {
			for w := range in {
				reg := tree.NewRegressor(tree.MinNodeSize(f.MinNodeSize),
					tree.MaxDepth(f.MaxDepth), tree.MTry(mtry), tree.RandState(w.rng))
				w.err = reg.FitInx(X, Y, w.inx)
				w.t = reg
				outc <- w
			}
		}()
	}

	// one reproducible stream per tree, drawn up front so results do
	// not depend on worker scheduling
	go func() {
		base := rand.New(rand.NewSource(f.seed))
		for i := 0; i < f.NumTrees; i++ {
			rng := rand.New(rand.NewSource(base.Int63()))
			inx, oob := Bootstrap(len(Y), rng)
			f.OOB[i] = oob
			in <- &fitTree{id: i, inx: inx, rng: rng}
		}
		close(in)
	}()

	var firstErr error
	for i := 0; i < f.NumTrees; i++ {
		w := <-outc
		if w.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("fitting regression forest: tree %d: %v", w.id, w.err)
		}
		f.Trees[w.id] = w.t
	}
	if firstErr != nil {
		return firstErr
	}

	if f.computeOOB {
		f.MSE, f.RSquared = f.oobError(X, Y)
	}
	return nil
}

// oobError aggregates, for every row, the predictions of the trees that
// left the row out of their bootstrap sample, and scores the aggregate
// against the true outcomes.
func (f *Regressor) oobError(X []dataset.Column, Y []float64) (float64, float64) {
	sum := make([]float64, len(Y))
	ct := make([]int, len(Y))

	for i, t := range f.Trees {
		pred := t.PredictInx(X, f.OOB[i])
		for j, row := range f.OOB[i] {
			sum[row] += pred[j]
			ct[row]++
		}
	}

	var rss float64
	var covered []float64
	for i := range Y {
		// skip rows drawn into every bootstrap sample
		if ct[i] < 1 {
			continue
		}
		d := Y[i] - sum[i]/float64(ct[i])
		rss += d * d
		covered = append(covered, Y[i])
	}
	if len(covered) == 0 {
		return 0, 0
	}

	mse := rss / float64(len(covered))
	tss := stat.Variance(covered, nil) * float64(len(covered)-1)
	rSquared := 0.0
	if tss > 0 {
		rSquared = 1.0 - rss/tss
	}
	return mse, rSquared
}

// Predict returns the forest prediction for every row of the given
// dataset: the mean of the tree predictions. The dataset must have a
// column for every predictor the forest was fitted on.
func (f *Regressor) Predict(ds *dataset.Dataset) ([]float64, error) {
	X, err := ds.Columns(f.Predictors)
	if err != nil {
		return nil, fmt.Errorf("predicting with regression forest: %v", err)
	}
	sum := make([]float64, ds.Len())
	for _, t := range f.Trees {
		for i, val := range t.Predict(X) {
			sum[i] += val
		}
	}
	for i := range sum {
		sum[i] /= float64(len(f.Trees))
	}
	return sum, nil
}

// VarImportance returns one Importance per predictor, in predictor order.
func (f *Regressor) VarImportance() []Importance {
	names := make([]string, len(f.Predictors))
	for i, p := range f.Predictors {
		names[i] = p.Name()
	}
	perTree := make([][]float64, len(f.Trees))
	for i, t := range f.Trees {
		perTree[i] = t.VarImp()
	}
	return importances(names, perTree, len(f.Trees))
}

func validate(numTrees, mtry, maxDepth, minNodeSize, nPredictors int) error {
	if numTrees < 1 {
		return fmt.Errorf("invalid number of trees %d: must be at least 1", numTrees)
	}
	if mtry < 1 || mtry > nPredictors {
		return fmt.Errorf("invalid mtry %d: must be between 1 and %d", mtry, nPredictors)
	}
	if maxDepth < -1 || maxDepth == 0 {
		return fmt.Errorf("invalid max depth %d: must be positive, or -1 for unlimited", maxDepth)
	}
	if minNodeSize < 1 {
		return fmt.Errorf("invalid min node size %d: must be at least 1", minNodeSize)
	}
	return nil
}
