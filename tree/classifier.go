package tree

import (
	"fmt"

	"github.com/j3schaue/intro-to-random-forests/dataset"
)

// Classifier implements a classification tree predicting a discrete
// outcome. It should be initialized with NewClassifier.
type Classifier struct {
	Tree
	Classes []string
}

// NewClassifier returns a configured/initialized classification tree.
// If no options are passed, the returned Classifier will be equivalent to
// the following call:
//
//	clf := NewClassifier(MinNodeSize(1), MaxDepth(-1), MTry(-1), Impurity(Gini))
func NewClassifier(options ...Option) *Classifier {
	return &Classifier{Tree: newTree(options)}
}

// Fit grows the tree from the provided predictor columns X and outcome
// labels Y.
func (c *Classifier) Fit(X []dataset.Column, Y []string) error {
	yIDs := make([]int, len(Y))
	uniq := make(map[string]int)
	var classes []string
	for i, val := range Y {
		id, ok := uniq[val]
		if !ok {
			id = len(uniq)
			uniq[val] = id
			classes = append(classes, val)
		}
		yIDs[i] = id
	}

	inx := make([]int, len(Y))
	for i := range inx {
		inx[i] = i
	}
	return c.FitInx(X, yIDs, inx, classes)
}

// FitInx grows the tree as in Fit, but takes outcomes already recoded as
// class ids into the given classes slice and uses only the rows referenced
// in inx. Rows may be referenced more than once, which makes FitInx
// suitable for meta algorithms relying on bootstrap sampling, such as a
// forest ensuring all its trees share one class coding.
func (c *Classifier) FitInx(X []dataset.Column, yIDs []int, inx []int, classes []string) error {
	if len(classes) == 0 {
		return fmt.Errorf("fitting classification tree: no outcome classes")
	}
	c.Classes = classes
	if err := c.fit(X, newClassTarget(yIDs, len(classes), c.impurity), len(yIDs), inx); err != nil {
		return fmt.Errorf("fitting classification tree: %v", err)
	}
	return nil
}

// Predict returns the most probable class id for every row of X. The id
// indexes into Classifier.Classes.
func (c *Classifier) Predict(X []dataset.Column) []int {
	n := rowCount(X)
	p := make([]int, n)
	for i := 0; i < n; i++ {
		p[i] = majorityClass(c.predictRow(X, i).ClassCounts)
	}
	return p
}

// PredictInx returns the most probable class id for each row of X
// referenced in inx.
func (c *Classifier) PredictInx(X []dataset.Column, inx []int) []int {
	p := make([]int, len(inx))
	for i, id := range inx {
		p[i] = majorityClass(c.predictRow(X, id).ClassCounts)
	}
	return p
}

// PredictProb returns the class probability for every row of X. The
// indices of the inner slices correspond to Classifier.Classes.
func (c *Classifier) PredictProb(X []dataset.Column) [][]float64 {
	n := rowCount(X)
	p := make([][]float64, n)
	for i := 0; i < n; i++ {
		node := c.predictRow(X, i)
		row := make([]float64, len(node.ClassCounts))
		for j, ct := range node.ClassCounts {
			row[j] = float64(ct) / float64(node.Samples)
		}
		p[i] = row
	}
	return p
}

func majorityClass(counts []int) int {
	maxC := 0
	maxCt := 0
	for class, count := range counts {
		if count > maxCt {
			maxCt = count
			maxC = class
		}
	}
	return maxC
}
