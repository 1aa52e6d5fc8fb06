package forest

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"github.com/j3schaue/intro-to-random-forests/tree"
)

// Classifier implements a random forest predicting a discrete outcome.
// It should be initialized with NewClassifier.
type Classifier struct {
	NumTrees    int
	MTry        int
	MaxDepth    int
	MinNodeSize int
	Classes     []string
	Trees       []*tree.Classifier
	// OOB holds, for every tree, the original row indices left out of
	// the tree's bootstrap sample.
	OOB        [][]int
	Predictors []feature.Feature
	Outcome    feature.Feature
	// ConfusionMatrix, Accuracy and MisclassificationRate are the
	// out-of-bag estimates, filled in when fitting with ComputeOOB.
	// ConfusionMatrix[actual][predicted] counts rows per class pair.
	ConfusionMatrix       [][]int
	Accuracy              float64
	MisclassificationRate float64

	nWorkers   int
	seed       int64
	impurity   tree.ImpurityMeasure
	computeOOB bool
}

func (f *Classifier) setNumTrees(n int)                  { f.NumTrees = n }
func (f *Classifier) setMTry(n int)                      { f.MTry = n }
func (f *Classifier) setMaxDepth(n int)                  { f.MaxDepth = n }
func (f *Classifier) setMinNodeSize(n int)               { f.MinNodeSize = n }
func (f *Classifier) setImpurity(m tree.ImpurityMeasure) { f.impurity = m }
func (f *Classifier) setNumWorkers(n int)                { f.nWorkers = n }
func (f *Classifier) setSeed(n int64)                    { f.seed = n }
func (f *Classifier) setComputeOOB()                     { f.computeOOB = true }

// NewClassifier returns a configured/initialized random forest
// classifier. If no options are passed, the returned Classifier will be
// equivalent to the following call:
//
//	clf := NewClassifier(NumTrees(100), MTry(-1), MaxDepth(-1),
//		MinNodeSize(1), Impurity(Gini), NumWorkers(1))
func NewClassifier(options ...Option) *Classifier {
	f := &Classifier{
		NumTrees:    100,
		MTry:        -1,
		MaxDepth:    -1,
		MinNodeSize: 1,
		impurity:    Gini,
		seed:        time.Now().UnixNano(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

/*
Fit grows NumTrees classification trees over independent bootstrap
samples of the given dataset to predict the outcome column with the given
name. The outcome must be a discrete feature; every other column of the
dataset is used as a predictor. All trees share the class coding of the
outcome feature's available values. Input validation failures are
reported before any tree is grown.
*/
func (f *Classifier) Fit(ds *dataset.Dataset, outcome string) error {
	X, out, err := ds.Split(outcome)
	if err != nil {
		return fmt.Errorf("fitting classification forest: %v", err)
	}
	if out.Continuous() {
		return fmt.Errorf("fitting classification forest: outcome %s is not a discrete feature", outcome)
	}
	yIDs := out.Codes
	classes := out.Feature.(*feature.DiscreteFeature).AvailableValues()

	mtry := f.MTry
	if mtry < 0 {
		mtry = int(math.Sqrt(float64(len(X))))
		if mtry < 1 {
			mtry = 1
		}
	}
	if err := validate(f.NumTrees, mtry, f.MaxDepth, f.MinNodeSize, len(X)); err != nil {
		return fmt.Errorf("fitting classification forest: %v", err)
	}

	f.Classes = classes
	f.Predictors = make([]feature.Feature, len(X))
	for i, c := range X {
		f.Predictors[i] = c.Feature
	}
	f.Outcome = out.Feature
	f.Trees = make([]*tree.Classifier, f.NumTrees)
	f.OOB = make([][]int, f.NumTrees)

	type fitTree struct {
		id  int
		inx []int
		rng *rand.Rand
		t   *tree.Classifier
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
				clf := tree.NewClassifier(tree.MinNodeSize(f.MinNodeSize),
					tree.MaxDepth(f.MaxDepth), tree.MTry(mtry),
					tree.Impurity(f.impurity), tree.RandState(w.rng))
				w.err = clf.FitInx(X, yIDs, w.inx, classes)
				w.t = clf
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
			inx, oob := Bootstrap(len(yIDs), rng)
			f.OOB[i] = oob
			in <- &fitTree{id: i, inx: inx, rng: rng}
		}
		close(in)
	}()

	var firstErr error
	for i := 0; i < f.NumTrees; i++ {
		w := <-outc
		if w.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("fitting classification forest: tree %d: %v", w.id, w.err)
		}
		f.Trees[w.id] = w.t
	}
	if firstErr != nil {
		return firstErr
	}

	if f.computeOOB {
		f.ConfusionMatrix, f.Accuracy = f.oobError(X, yIDs)
		f.MisclassificationRate = 1.0 - f.Accuracy
	}
	return nil
}

// oobError aggregates, for every row, the votes of the trees that left
// the row out of their bootstrap sample, and scores the majority votes
// against the true outcomes.
func (f *Classifier) oobError(X []dataset.Column, yIDs []int) ([][]int, float64) {
	votes := make([][]int, len(yIDs))
	for i := range votes {
		votes[i] = make([]int, len(f.Classes))
	}

	for i, t := range f.Trees {
		pred := t.PredictInx(X, f.OOB[i])
		for j, row := range f.OOB[i] {
			votes[row][pred[j]]++
		}
	}

	confMat := make([][]int, len(f.Classes))
	for i := range confMat {
		confMat[i] = make([]int, len(f.Classes))
	}
	covered := 0
	correct := 0
	for i, actual := range yIDs {
		voted := 0
		for _, ct := range votes[i] {
			voted += ct
		}
		// skip rows drawn into every bootstrap sample
		if voted == 0 {
			continue
		}
		covered++
		predicted := majorityVote(votes[i])
		confMat[actual][predicted]++
		if predicted == actual {
			correct++
		}
	}
	if covered == 0 {
		return confMat, 0
	}
	return confMat, float64(correct) / float64(covered)
}

// Predict returns the forest prediction for every row of the given
// dataset: the majority vote over the tree predictions. The dataset must
// have a column for every predictor the forest was fitted on.
func (f *Classifier) Predict(ds *dataset.Dataset) ([]string, error) {
	votes, err := f.votes(ds)
	if err != nil {
		return nil, err
	}
	p := make([]string, len(votes))
	for i := range votes {
		p[i] = f.Classes[majorityVote(votes[i])]
	}
	return p, nil
}

// PredictProb returns the per-class vote share for every row of the
// given dataset. The indices of the inner slices correspond to Classes.
func (f *Classifier) PredictProb(ds *dataset.Dataset) ([][]float64, error) {
	votes, err := f.votes(ds)
	if err != nil {
		return nil, err
	}
	p := make([][]float64, len(votes))
	for i := range votes {
		row := make([]float64, len(votes[i]))
		for j, ct := range votes[i] {
			row[j] = float64(ct) / float64(len(f.Trees))
		}
		p[i] = row
	}
	return p, nil
}

func (f *Classifier) votes(ds *dataset.Dataset) ([][]int, error) {
	X, err := ds.Columns(f.Predictors)
	if err != nil {
		return nil, fmt.Errorf("predicting with classification forest: %v", err)
	}
	votes := make([][]int, ds.Len())
	for i := range votes {
		votes[i] = make([]int, len(f.Classes))
	}
	for _, t := range f.Trees {
		for i, class := range t.Predict(X) {
			votes[i][class]++
		}
	}
	return votes, nil
}

// VarImportance returns one Importance per predictor, in predictor order.
func (f *Classifier) VarImportance() []Importance {
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

func majorityVote(votes []int) int {
	maxC := 0
	maxCt := 0
	for class, ct := range votes {
		if ct > maxCt {
			maxCt = ct
			maxC = class
		}
	}
	return maxC
}
