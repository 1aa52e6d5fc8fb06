package tree

import (
	"fmt"

	"github.com/j3schaue/intro-to-random-forests/dataset"
)

// Regressor implements a regression tree predicting a continuous outcome.
// It should be initialized with NewRegressor.
type Regressor struct {
	Tree
}

// NewRegressor returns a configured/initialized regression tree.
// If no options are passed, the returned Regressor will be equivalent to
// the following call:
//
//	reg := NewRegressor(MinNodeSize(1), MaxDepth(-1), MTry(-1))
func NewRegressor(options ...Option) *Regressor {
	return &Regressor{newTree(options)}
}

// Fit grows the tree from the provided predictor columns X and outcomes Y.
func (r *Regressor) Fit(X []dataset.Column, Y []float64) error {
	inx := make([]int, len(Y))
	for i := range inx {
		inx[i] = i
	}
	return r.FitInx(X, Y, inx)
}

// FitInx grows the tree as in Fit, but uses only the rows referenced in
// inx. Rows may be referenced more than once, which makes FitInx suitable
// for meta algorithms relying on bootstrap sampling, such as a forest.
func (r *Regressor) FitInx(X []dataset.Column, Y []float64, inx []int) error {
	if err := r.fit(X, newVarTarget(Y), len(Y), inx); err != nil {
		return fmt.Errorf("fitting regression tree: %v", err)
	}
	return nil
}

// Predict returns the predicted outcome for every row of X.
func (r *Regressor) Predict(X []dataset.Column) []float64 {
	n := rowCount(X)
	p := make([]float64, n)
	for i := 0; i < n; i++ {
		p[i] = r.predictRow(X, i).Value
	}
	return p
}

// PredictInx returns the predicted outcome for each row of X referenced
// in inx.
func (r *Regressor) PredictInx(X []dataset.Column, inx []int) []float64 {
	p := make([]float64, len(inx))
	for i, id := range inx {
		p[i] = r.predictRow(X, id).Value
	}
	return p
}

func rowCount(X []dataset.Column) int {
	if len(X) == 0 {
		return 0
	}
	if X[0].Continuous() {
		return len(X[0].Floats)
	}
	return len(X[0].Codes)
}
