/*
Package tree implements decision trees for regression and classification
grown by recursive binary splitting.

At every node a random subset of mtry predictor columns is drawn and every
candidate split on them is evaluated: midpoints between sorted distinct
values for continuous columns, each category against the rest for discrete
ones. The split with the largest impurity decrease wins, with ties resolved
in favor of the first candidate in enumeration order. Growth stops at pure
nodes, at the minimum node size, at the maximum depth, or when no candidate
split decreases impurity.
*/
package tree

import (
	"math/rand"
	"time"

	"github.com/j3schaue/intro-to-random-forests/dataset"
)

// ImpurityMeasure selects the node heterogeneity measure used by
// classification trees.
type ImpurityMeasure int

const (
	Gini ImpurityMeasure = iota
	Entropy
)

const impurityEpsilon = 1e-7

/*
Node is a node of a grown tree: either a leaf holding a prediction or a
split node testing one predictor column and owning a left and a right
child. Left gathers the rows satisfying the test: value <= Threshold for a
continuous split, code == Category for a discrete one.
*/
type Node struct {
	Left      *Node
	Right     *Node
	Feature   int
	Threshold float64
	Category  int
	Discrete  bool
	Leaf      bool
	// Value is the mean outcome of the node's training rows on
	// regression trees.
	Value float64
	// ClassCounts is the outcome class distribution of the node's
	// training rows on classification trees.
	ClassCounts []int
	Impurity    float64
	Samples     int
}

/*
Tree holds the configuration and, once grown, the root node shared by
regression and classification trees.
*/
type Tree struct {
	Root        *Node
	MinNodeSize int
	MaxDepth    int
	MTry        int
	nFeatures   int
	impurity    ImpurityMeasure
	randState   *rand.Rand
}

// Option configures a tree before fitting.
type Option func(*Tree)

// MinNodeSize marks nodes with this many rows or fewer as leaves.
func MinNodeSize(n int) Option {
	return func(t *Tree) {
		t.MinNodeSize = n
	}
}

// MaxDepth limits the depth of the fitted tree. Specifying -1 for n will
// grow a full tree, subject to the MinNodeSize constraint.
func MaxDepth(n int) Option {
	return func(t *Tree) {
		t.MaxDepth = n
	}
}

// MTry limits the number of predictor columns considered for splitting at
// each node. If not provided or -1, all predictors are considered.
func MTry(n int) Option {
	return func(t *Tree) {
		t.MTry = n
	}
}

// Impurity sets the impurity measure used by classification trees to
// evaluate each candidate split. Gini and Entropy are the implemented
// options; regression trees always use variance and ignore this setting.
func Impurity(m ImpurityMeasure) Option {
	return func(t *Tree) {
		t.impurity = m
	}
}

// Seed sets the seed for the random number generator used to draw the
// mtry candidate predictors at each node.
func Seed(n int64) Option {
	return func(t *Tree) {
		t.randState = rand.New(rand.NewSource(n))
	}
}

// RandState sets the random number generator used to draw the mtry
// candidate predictors at each node. It is meant for callers that manage
// independent reproducible streams, such as a forest fitting many trees.
func RandState(r *rand.Rand) Option {
	return func(t *Tree) {
		t.randState = r
	}
}

func newTree(options []Option) Tree {
	t := Tree{
		MinNodeSize: 1,
		MaxDepth:    -1,
		MTry:        -1,
		impurity:    Gini,
		randState:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range options {
		opt(&t)
	}
	return t
}

// predictRow walks the tree from the root to the leaf selected by row i of
// the given predictor columns.
func (t *Tree) predictRow(X []dataset.Column, i int) *Node {
	n := t.Root
	for !n.Leaf {
		c := &X[n.Feature]
		if n.Discrete {
			if c.Codes[i] == n.Category {
				n = n.Left
			} else {
				n = n.Right
			}
		} else {
			if c.Floats[i] <= n.Threshold {
				n = n.Left
			} else {
				n = n.Right
			}
		}
	}
	return n
}

/*
VarImp returns the total impurity decrease attributable to splits on each
predictor column, divided by the number of rows the tree was grown on.
Columns never chosen for a split score zero.
*/
func (t *Tree) VarImp() []float64 {
	imp := make([]float64, t.nFeatures)

	s := nodeStack{t.Root}
	for !s.Empty() {
		n := s.Pop()
		if n.Leaf {
			continue
		}
		imp[n.Feature] += float64(n.Samples)*n.Impurity -
			float64(n.Left.Samples)*n.Left.Impurity -
			float64(n.Right.Samples)*n.Right.Impurity
		s.Push(n.Left)
		s.Push(n.Right)
	}

	for i := range imp {
		imp[i] /= float64(t.Root.Samples)
	}
	return imp
}

// lifo stack for tree traversal
type nodeStack []*Node

func (s nodeStack) Empty() bool   { return len(s) == 0 }
func (s *nodeStack) Push(n *Node) { *s = append(*s, n) }
func (s *nodeStack) Pop() *Node {
	d := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return d
}
