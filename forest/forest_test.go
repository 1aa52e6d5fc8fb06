package forest

import (
	"math"
	"math/rand"
	"testing"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"gonum.org/v1/gonum/stat"
	"gotest.tools/assert"
)

// synthRegDataset builds a dataset where crime follows poverty linearly
// and the noise column carries no signal.
func synthRegDataset(t *testing.T, n int, seed int64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	features := []feature.Feature{
		feature.NewContinuousFeature("poverty"),
		feature.NewContinuousFeature("noise"),
		feature.NewContinuousFeature("crime"),
	}
	samples := make([]dataset.Sample, n)
	for i := range samples {
		poverty := rng.Float64() * 10
		samples[i] = dataset.NewSample(map[string]interface{}{
			"poverty": poverty,
			"noise":   rng.Float64() * 10,
			"crime":   2*poverty + rng.NormFloat64()*0.5,
		})
	}
	ds, err := dataset.New(features, samples)
	assert.NilError(t, err)
	return ds
}

// synthClfDataset builds a dataset where the region determines the
// risk label.
func synthClfDataset(t *testing.T, n int, seed int64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	regions := []string{"north", "south", "west"}
	features := []feature.Feature{
		feature.NewDiscreteFeature("region", regions),
		feature.NewContinuousFeature("noise"),
		feature.NewDiscreteFeature("risk", []string{"low", "high"}),
	}
	samples := make([]dataset.Sample, n)
	for i := range samples {
		region := regions[rng.Intn(len(regions))]
		risk := "low"
		if region == "south" {
			risk = "high"
		}
		samples[i] = dataset.NewSample(map[string]interface{}{
			"region": region,
			"noise":  rng.Float64(),
			"risk":   risk,
		})
	}
	ds, err := dataset.New(features, samples)
	assert.NilError(t, err)
	return ds
}

func TestBootstrap(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	inx, oob := Bootstrap(100, rng)
	assert.Equal(t, 100, len(inx))

	drawn := map[int]bool{}
	for _, i := range inx {
		assert.Assert(t, i >= 0 && i < 100, "bootstrap index %d out of range", i)
		drawn[i] = true
	}
	for _, i := range oob {
		assert.Assert(t, !drawn[i], "row %d is both drawn and out-of-bag", i)
	}
	assert.Equal(t, 100, len(drawn)+len(oob))

	// with n draws with replacement about a third of the rows stay out
	frac := float64(len(oob)) / 100
	assert.Assert(t, frac > 0.2 && frac < 0.5, "expected an out-of-bag fraction near 1/e, got %f", frac)
}

func TestBootstrapIsReproducible(t *testing.T) {
	inxA, oobA := Bootstrap(50, rand.New(rand.NewSource(3)))
	inxB, oobB := Bootstrap(50, rand.New(rand.NewSource(3)))
	assert.DeepEqual(t, inxA, inxB)
	assert.DeepEqual(t, oobA, oobB)
}

func TestRegressorFit(t *testing.T) {
	ds := synthRegDataset(t, 300, 1)
	f := NewRegressor(NumTrees(50), Seed(11), ComputeOOB())
	assert.NilError(t, f.Fit(ds, "crime"))
	assert.Equal(t, 50, len(f.Trees))
	assert.Equal(t, 50, len(f.OOB))

	// predicting the outcome mean would score the outcome variance,
	// the forest has to beat that
	outcome, _ := ds.Column("crime")
	baseline := stat.Variance(outcome.Floats, nil)
	assert.Assert(t, f.MSE < baseline/2, "expected out-of-bag MSE %f to clearly beat the mean model's %f", f.MSE, baseline)
	assert.Assert(t, f.RSquared > 0.5, "expected out-of-bag R^2 above 0.5, got %f", f.RSquared)
}

func TestRegressorPredict(t *testing.T) {
	ds := synthRegDataset(t, 300, 5)
	f := NewRegressor(NumTrees(50), Seed(11))
	assert.NilError(t, f.Fit(ds, "crime"))

	pred, err := f.Predict(ds)
	assert.NilError(t, err)
	assert.Equal(t, ds.Len(), len(pred))

	outcome, _ := ds.Column("crime")
	var mse float64
	for i, p := range pred {
		d := p - outcome.Floats[i]
		mse += d * d
	}
	mse /= float64(len(pred))
	assert.Assert(t, mse < stat.Variance(outcome.Floats, nil)/2, "expected training MSE %f to clearly beat the mean model", mse)
}

func TestRegressorIsReproducibleForAFixedSeed(t *testing.T) {
	ds := synthRegDataset(t, 200, 9)

	a := NewRegressor(NumTrees(20), Seed(17), NumWorkers(4), ComputeOOB())
	assert.NilError(t, a.Fit(ds, "crime"))
	b := NewRegressor(NumTrees(20), Seed(17), NumWorkers(1), ComputeOOB())
	assert.NilError(t, b.Fit(ds, "crime"))

	assert.Equal(t, a.MSE, b.MSE)
	predA, err := a.Predict(ds)
	assert.NilError(t, err)
	predB, err := b.Predict(ds)
	assert.NilError(t, err)
	assert.DeepEqual(t, predA, predB)
}

func TestRegressorVarImportance(t *testing.T) {
	ds := synthRegDataset(t, 300, 13)
	f := NewRegressor(NumTrees(50), Seed(3))
	assert.NilError(t, f.Fit(ds, "crime"))

	importances := f.VarImportance()
	assert.Equal(t, 2, len(importances))
	byName := map[string]Importance{}
	var shareSum float64
	for _, imp := range importances {
		assert.Assert(t, imp.Decrease >= 0, "expected a non-negative importance for %s", imp.Feature)
		byName[imp.Feature] = imp
		shareSum += imp.Share
	}
	assert.Assert(t, byName["poverty"].Decrease > 5*byName["noise"].Decrease,
		"expected poverty to dominate the noise feature, got %f vs %f", byName["poverty"].Decrease, byName["noise"].Decrease)
	assert.Assert(t, math.Abs(shareSum-1) < 1e-9, "expected importance shares to sum to one, got %f", shareSum)
}

func TestRegressorRejectsDiscreteOutcome(t *testing.T) {
	ds := synthClfDataset(t, 60, 1)
	f := NewRegressor(NumTrees(5))
	err := f.Fit(ds, "risk")
	assert.ErrorContains(t, err, "not a continuous feature")
}

func TestRegressorRejectsInvalidConfig(t *testing.T) {
	ds := synthRegDataset(t, 60, 1)

	err := NewRegressor(NumTrees(0)).Fit(ds, "crime")
	assert.ErrorContains(t, err, "number of trees")

	err = NewRegressor(MTry(10)).Fit(ds, "crime")
	assert.ErrorContains(t, err, "mtry")

	err = NewRegressor(MaxDepth(0)).Fit(ds, "crime")
	assert.ErrorContains(t, err, "max depth")
}

func TestClassifierFit(t *testing.T) {
	ds := synthClfDataset(t, 300, 7)
	f := NewClassifier(NumTrees(50), Seed(11), ComputeOOB())
	assert.NilError(t, f.Fit(ds, "risk"))
	assert.DeepEqual(t, []string{"low", "high"}, f.Classes)

	assert.Assert(t, f.Accuracy > 0.95, "expected out-of-bag accuracy above 0.95, got %f", f.Accuracy)
	assert.Equal(t, f.MisclassificationRate, 1-f.Accuracy)
	assert.Equal(t, 2, len(f.ConfusionMatrix))
}

func TestClassifierPredict(t *testing.T) {
	ds := synthClfDataset(t, 300, 19)
	f := NewClassifier(NumTrees(30), Seed(2))
	assert.NilError(t, f.Fit(ds, "risk"))

	pred, err := f.Predict(ds)
	assert.NilError(t, err)

	region, _ := ds.Column("region")
	correct := 0
	for i, p := range pred {
		want := "low"
		if region.Codes[i] == 1 {
			want = "high"
		}
		if p == want {
			correct++
		}
	}
	frac := float64(correct) / float64(len(pred))
	assert.Assert(t, frac > 0.98, "expected training accuracy above 0.98, got %f", frac)
}

func TestClassifierPredictProb(t *testing.T) {
	ds := synthClfDataset(t, 200, 23)
	f := NewClassifier(NumTrees(20), Seed(2))
	assert.NilError(t, f.Fit(ds, "risk"))

	probs, err := f.PredictProb(ds)
	assert.NilError(t, err)
	for i, row := range probs {
		assert.Equal(t, len(f.Classes), len(row))
		var sum float64
		for _, p := range row {
			sum += p
		}
		assert.Assert(t, math.Abs(sum-1) < 1e-9, "expected vote shares of row %d to sum to one, got %f", i, sum)
	}
}

func BenchmarkRegressorFit(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	features := []feature.Feature{
		feature.NewContinuousFeature("poverty"),
		feature.NewContinuousFeature("crime"),
	}
	samples := make([]dataset.Sample, 500)
	for i := range samples {
		poverty := rng.Float64() * 10
		samples[i] = dataset.NewSample(map[string]interface{}{
			"poverty": poverty,
			"crime":   2*poverty + rng.NormFloat64(),
		})
	}
	ds, err := dataset.New(features, samples)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f := NewRegressor(NumTrees(20), Seed(int64(i)+1))
		if err := f.Fit(ds, "crime"); err != nil {
			b.Fatal(err)
		}
	}
}
