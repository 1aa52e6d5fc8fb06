/*
Package forest implements random forests for regression and
classification.

A forest fits many decision trees over independent bootstrap samples of
the training dataset, drawing a fresh random subset of mtry predictors at
every node. Tree fits are independent and fan out over a worker pool.
Each tree draws its bootstrap sample and its node-level feature subsets
from its own random stream, seeded deterministically from the forest
seed, so a fitted forest is reproducible regardless of worker scheduling.

The rows left out of a tree's bootstrap sample form its out-of-bag set;
aggregating every tree's predictions on its out-of-bag rows yields an
error estimate without a separate held-out set.
*/
package forest

import (
	"math/rand"
	"sort"

	"github.com/j3schaue/intro-to-random-forests/tree"
)

var (
	Gini    = tree.Gini
	Entropy = tree.Entropy
)

// Configer is the configuration interface shared by the Regressor and
// the Classifier so both accept the same options.
type Configer interface {
	setNumTrees(n int)
	setMTry(n int)
	setMaxDepth(n int)
	setMinNodeSize(n int)
	setImpurity(m tree.ImpurityMeasure)
	setNumWorkers(n int)
	setSeed(n int64)
	setComputeOOB()
}

// Option configures a forest before fitting.
type Option func(Configer)

// NumTrees sets the number of trees grown by the forest.
func NumTrees(n int) Option {
	return func(c Configer) {
		c.setNumTrees(n)
	}
}

// MTry limits the number of predictor columns considered for splitting at
// each tree node. If not provided or -1, a kind-specific default is used:
// a third of the predictors for regression, the square root of the number
// of predictors for classification.
func MTry(n int) Option {
	return func(c Configer) {
		c.setMTry(n)
	}
}

// MaxDepth limits the depth of every fitted tree. Specifying -1 for n
// will grow full trees, subject to the MinNodeSize constraint.
func MaxDepth(n int) Option {
	return func(c Configer) {
		c.setMaxDepth(n)
	}
}

// MinNodeSize marks tree nodes with this many rows or fewer as leaves.
func MinNodeSize(n int) Option {
	return func(c Configer) {
		c.setMinNodeSize(n)
	}
}

// Impurity sets the impurity measure used by classification trees.
// Regression forests ignore it.
func Impurity(m tree.ImpurityMeasure) Option {
	return func(c Configer) {
		c.setImpurity(m)
	}
}

// NumWorkers sets the number of workers used to fit trees.
func NumWorkers(n int) Option {
	return func(c Configer) {
		c.setNumWorkers(n)
	}
}

// Seed fixes the seed of the forest's random source. Two fits of the same
// dataset with the same configuration and seed produce the same forest.
func Seed(n int64) Option {
	return func(c Configer) {
		c.setSeed(n)
	}
}

// ComputeOOB computes the out-of-bag error estimate while fitting.
func ComputeOOB() Option {
	return func(c Configer) {
		c.setComputeOOB()
	}
}

/*
Bootstrap takes a number of rows n and a random source and draws n row
indices independently and uniformly with replacement. It returns the
drawn indices and the sorted complementary out-of-bag indices, the rows
never drawn. The two sets are disjoint, and the result is reproducible
for a source with a fixed seed.
*/
func Bootstrap(n int, r *rand.Rand) ([]int, []int) {
	inBag := make([]bool, n)
	inx := make([]int, n)
	for i := range inx {
		id := r.Intn(n)
		inx[i] = id
		inBag[id] = true
	}
	var oob []int
	for i, in := range inBag {
		if !in {
			oob = append(oob, i)
		}
	}
	return inx, oob
}

/*
Importance scores one predictor feature of a fitted forest: the total
impurity decrease of the splits on the feature, averaged across trees,
and its share of the total decrease over all features. Share values sum
to one; a feature never chosen for a split scores zero on both.
*/
type Importance struct {
	Feature  string
	Decrease float64
	Share    float64
}

// SortByDecrease reorders importances from most to least important,
// breaking ties by feature name.
func SortByDecrease(imp []Importance) {
	sort.Slice(imp, func(i, j int) bool {
		if imp[i].Decrease != imp[j].Decrease {
			return imp[i].Decrease > imp[j].Decrease
		}
		return imp[i].Feature < imp[j].Feature
	})
}

func importances(names []string, perTree [][]float64, nTrees int) []Importance {
	imp := make([]Importance, len(names))
	for i, name := range names {
		imp[i].Feature = name
	}
	for _, ti := range perTree {
		for i, d := range ti {
			imp[i].Decrease += d / float64(nTrees)
		}
	}
	total := 0.0
	for i := range imp {
		total += imp[i].Decrease
	}
	if total > 0 {
		for i := range imp {
			imp[i].Share = imp[i].Decrease / total
		}
	}
	return imp
}
