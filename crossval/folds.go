/*
Package crossval implements k-fold cross-validation for tuning forest
hyperparameters.

A fold assignment partitions the dataset rows into k disjoint groups of
near-equal size via a seeded pseudo-random permutation. The tuner trains
one forest per (candidate value, fold) pair on the rows outside the fold,
scores it on the rows inside, and averages the per-fold scores for each
candidate.
*/
package crossval

import (
	"fmt"
	"math/rand"
)

/*
Folds takes a number of rows n, a fold count k and a seed and assigns
every row a fold id in [0, k). The assignment is a partition: every row
belongs to exactly one fold and fold sizes differ by at most one row. It
is reproducible for a fixed seed.
*/
func Folds(n, k int, seed int64) ([]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("invalid fold count %d: must be at least 2", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", n, k)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	assign := make([]int, n)
	for i, p := range perm {
		assign[p] = i % k
	}
	return assign, nil
}

// foldIndices splits row indices into the rows inside the given fold and
// the rows outside it.
func foldIndices(assign []int, fold int) (train, test []int) {
	for i, f := range assign {
		if f == fold {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return train, test
}

/*
TrainTestSplit takes a number of rows n, a test fraction in (0, 1) and a
seed, and returns disjoint, collectively-exhaustive train and test row
index slices drawn via a seeded pseudo-random permutation. The test side
gets the fraction of rows rounded down, but at least one row on each
side.
*/
func TrainTestSplit(n int, testFraction float64, seed int64) ([]int, []int, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("invalid test fraction %v: must be in (0, 1)", testFraction)
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("cannot split %d rows into train and test", n)
	}
	nTest := int(float64(n) * testFraction)
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
