package json

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"github.com/j3schaue/intro-to-random-forests/forest"
	"gotest.tools/assert"
)

func regressionDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	features := []feature.Feature{
		feature.NewContinuousFeature("poverty"),
		feature.NewContinuousFeature("crime"),
	}
	samples := make([]dataset.Sample, n)
	for i := range samples {
		poverty := rng.Float64() * 10
		samples[i] = dataset.NewSample(map[string]interface{}{
			"poverty": poverty,
			"crime":   2*poverty + rng.NormFloat64(),
		})
	}
	ds, err := dataset.New(features, samples)
	assert.NilError(t, err)
	return ds
}

func classificationDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(2))
	regions := []string{"north", "south", "west"}
	features := []feature.Feature{
		feature.NewDiscreteFeature("region", regions),
		feature.NewDiscreteFeature("risk", []string{"low", "high"}),
	}
	samples := make([]dataset.Sample, n)
	for i := range samples {
		region := regions[rng.Intn(len(regions))]
		risk := "low"
		if region == "south" {
			risk = "high"
		}
		samples[i] = dataset.NewSample(map[string]interface{}{"region": region, "risk": risk})
	}
	ds, err := dataset.New(features, samples)
	assert.NilError(t, err)
	return ds
}

func TestRegressionModelRoundTrip(t *testing.T) {
	ds := regressionDataset(t, 150)
	f := forest.NewRegressor(forest.NumTrees(10), forest.Seed(3), forest.ComputeOOB())
	assert.NilError(t, f.Fit(ds, "crime"))

	var buf bytes.Buffer
	assert.NilError(t, Write(&buf, &Model{Regressor: f}))

	m, err := Read(&buf)
	assert.NilError(t, err)
	assert.Equal(t, "regression", m.Kind())
	assert.Assert(t, m.Regressor != nil)
	assert.Equal(t, f.MSE, m.Regressor.MSE)
	assert.Equal(t, f.RSquared, m.Regressor.RSquared)
	assert.Equal(t, "crime", m.Regressor.Outcome.Name())

	want, err := f.Predict(ds)
	assert.NilError(t, err)
	got, err := m.Regressor.Predict(ds)
	assert.NilError(t, err)
	assert.DeepEqual(t, want, got)
}

func TestClassificationModelRoundTrip(t *testing.T) {
	ds := classificationDataset(t, 150)
	f := forest.NewClassifier(forest.NumTrees(10), forest.Seed(3), forest.ComputeOOB())
	assert.NilError(t, f.Fit(ds, "risk"))

	var buf bytes.Buffer
	assert.NilError(t, Write(&buf, &Model{Classifier: f}))

	m, err := Read(&buf)
	assert.NilError(t, err)
	assert.Equal(t, "classification", m.Kind())
	assert.Assert(t, m.Classifier != nil)
	assert.DeepEqual(t, f.Classes, m.Classifier.Classes)
	assert.Equal(t, f.Accuracy, m.Classifier.Accuracy)

	want, err := f.Predict(ds)
	assert.NilError(t, err)
	got, err := m.Classifier.Predict(ds)
	assert.NilError(t, err)
	assert.DeepEqual(t, want, got)
}

func TestVarImportanceSurvivesTheRoundTrip(t *testing.T) {
	ds := regressionDataset(t, 150)
	f := forest.NewRegressor(forest.NumTrees(10), forest.Seed(7))
	assert.NilError(t, f.Fit(ds, "crime"))

	var buf bytes.Buffer
	assert.NilError(t, Write(&buf, &Model{Regressor: f}))
	m, err := Read(&buf)
	assert.NilError(t, err)

	assert.DeepEqual(t, f.VarImportance(), m.Regressor.VarImportance())
}

func TestWriteRejectsEmptyModel(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, &Model{})
	assert.ErrorContains(t, err, "wraps no forest")
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version": 9, "kind": "regression"}`))
	assert.ErrorContains(t, err, "unknown version 9")
}

func TestReadRejectsUnknownKind(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version": 1, "kind": "ranking", "outcome": {"name": "y", "kind": "continuous"}}`))
	assert.ErrorContains(t, err, "unknown kind")
}
