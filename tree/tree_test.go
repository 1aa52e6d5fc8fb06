package tree

import (
	"math/rand"
	"testing"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"gotest.tools/assert"
)

// synthReg builds a continuous predictor column together with a noisy
// linear outcome and an unrelated noise column.
func synthReg(n int, seed int64) ([]dataset.Column, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	noise := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = rng.Float64() * 10
		noise[i] = rng.Float64() * 10
		y[i] = 2*x[i] + rng.NormFloat64()*0.1
	}
	return []dataset.Column{
		{Feature: feature.NewContinuousFeature("x"), Floats: x},
		{Feature: feature.NewContinuousFeature("noise"), Floats: noise},
	}, y
}

func TestRegressorOverfitsTrainingData(t *testing.T) {
	X, Y := synthReg(200, 7)
	reg := NewRegressor(MinNodeSize(1), Seed(1))
	assert.NilError(t, reg.Fit(X, Y))

	pred := reg.Predict(X)
	for i := range Y {
		d := pred[i] - Y[i]
		if d < -1e-9 || d > 1e-9 {
			t.Fatalf("expected a fully grown tree to reproduce its training outcome, row %d predicted %f instead of %f", i, pred[i], Y[i])
		}
	}
}

func TestRegressorIsReproducibleForAFixedSeed(t *testing.T) {
	X, Y := synthReg(150, 3)

	a := NewRegressor(MinNodeSize(5), MTry(1), Seed(42))
	assert.NilError(t, a.Fit(X, Y))
	b := NewRegressor(MinNodeSize(5), MTry(1), Seed(42))
	assert.NilError(t, b.Fit(X, Y))

	predA := a.Predict(X)
	predB := b.Predict(X)
	assert.DeepEqual(t, predA, predB)
}

func TestRegressorMaxDepthBoundsTheTree(t *testing.T) {
	X, Y := synthReg(200, 11)
	reg := NewRegressor(MinNodeSize(1), MaxDepth(1), Seed(1))
	assert.NilError(t, reg.Fit(X, Y))

	root := reg.Root
	assert.Assert(t, !root.Leaf, "expected the root to split")
	assert.Assert(t, root.Left.Leaf && root.Right.Leaf, "expected both children of the root to be leaves at depth 1")
}

func TestRegressorRejectsInvalidParameters(t *testing.T) {
	X, Y := synthReg(50, 1)

	err := NewRegressor(MTry(5)).Fit(X, Y)
	assert.ErrorContains(t, err, "mtry")

	err = NewRegressor(MinNodeSize(0)).Fit(X, Y)
	assert.ErrorContains(t, err, "node size")

	err = NewRegressor().Fit(X, nil)
	assert.Assert(t, err != nil)
}

func TestClassifierSplitsOnCategory(t *testing.T) {
	// region alone determines the outcome, so a lone discrete split
	// must separate the classes perfectly.
	region := feature.NewDiscreteFeature("region", []string{"north", "south", "west"})
	codes := make([]int, 90)
	labels := make([]string, 90)
	for i := range codes {
		codes[i] = i % 3
		if codes[i] == 1 {
			labels[i] = "high"
		} else {
			labels[i] = "low"
		}
	}
	X := []dataset.Column{{Feature: region, Codes: codes}}

	clf := NewClassifier(MinNodeSize(1), Seed(5))
	assert.NilError(t, clf.Fit(X, labels))

	pred := clf.Predict(X)
	for i, p := range pred {
		assert.Equal(t, labels[i], clf.Classes[p])
	}
}

func TestClassifierPredictProb(t *testing.T) {
	region := feature.NewDiscreteFeature("region", []string{"north", "south", "west"})
	X := []dataset.Column{{Feature: region, Codes: []int{0, 0, 1, 1, 2, 2}}}
	labels := []string{"low", "low", "high", "high", "low", "low"}

	clf := NewClassifier(MinNodeSize(1), Seed(5))
	assert.NilError(t, clf.Fit(X, labels))

	probs := clf.PredictProb(X)
	for i, row := range probs {
		var sum float64
		for _, p := range row {
			sum += p
		}
		assert.Equal(t, 1.0, sum, "expected class probabilities of row %d to sum to one", i)
	}
}

func TestVarImpIgnoresUnusedFeatures(t *testing.T) {
	X, Y := synthReg(200, 13)
	reg := NewRegressor(MinNodeSize(5), Seed(1))
	assert.NilError(t, reg.Fit(X, Y))

	imp := reg.VarImp()
	assert.Equal(t, 2, len(imp))
	for i, v := range imp {
		assert.Assert(t, v >= 0, "expected importance of feature %d to be non-negative, got %f", i, v)
	}
	assert.Assert(t, imp[0] > imp[1], "expected the informative feature to dominate the noise feature")
}

func BenchmarkRegressorFit(b *testing.B) {
	X, Y := synthReg(500, 17)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg := NewRegressor(MinNodeSize(5), Seed(1))
		if err := reg.Fit(X, Y); err != nil {
			b.Fatal(err)
		}
	}
}
