package dataset

import (
	"testing"

	"github.com/j3schaue/intro-to-random-forests/feature"
	"gotest.tools/assert"
)

func testFeatures() []feature.Feature {
	return []feature.Feature{
		feature.NewContinuousFeature("crime"),
		feature.NewContinuousFeature("poverty"),
		feature.NewDiscreteFeature("region", []string{"north", "south", "west"}),
	}
}

func testSamples() []Sample {
	return []Sample{
		NewSample(map[string]interface{}{"crime": 12.3, "poverty": 4.5, "region": "north"}),
		NewSample(map[string]interface{}{"crime": 8.1, "poverty": 2.2, "region": "south"}),
		NewSample(map[string]interface{}{"crime": 20.7, "poverty": 9.9, "region": "west"}),
		NewSample(map[string]interface{}{"crime": 5.4, "poverty": 1.1, "region": "north"}),
	}
}

func TestNewDropsIncompleteSamples(t *testing.T) {
	samples := append(testSamples(),
		NewSample(map[string]interface{}{"crime": 7.7, "region": "south"}),
		NewSample(map[string]interface{}{"poverty": 3.3, "region": "west"}),
	)
	ds, err := New(testFeatures(), samples)
	assert.NilError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, 2, ds.Dropped())
}

func TestNewEncodesColumns(t *testing.T) {
	ds, err := New(testFeatures(), testSamples())
	assert.NilError(t, err)

	crime, ok := ds.Column("crime")
	assert.Assert(t, ok)
	assert.Assert(t, crime.Continuous())
	assert.DeepEqual(t, []float64{12.3, 8.1, 20.7, 5.4}, crime.Floats)

	region, ok := ds.Column("region")
	assert.Assert(t, ok)
	assert.Assert(t, !region.Continuous())
	assert.Equal(t, 3, region.Cardinality())
	assert.DeepEqual(t, []int{0, 1, 2, 0}, region.Codes)
}

func TestNewWithoutAnyCompleteSample(t *testing.T) {
	samples := []Sample{
		NewSample(map[string]interface{}{"crime": 7.7}),
	}
	_, err := New(testFeatures(), samples)
	assert.Equal(t, ErrNoSamples, err)
}

func TestNewWithUnknownDiscreteValue(t *testing.T) {
	samples := []Sample{
		NewSample(map[string]interface{}{"crime": 7.7, "poverty": 1.0, "region": "east"}),
	}
	_, err := New(testFeatures(), samples)
	assert.ErrorContains(t, err, "unknown value east")
}

func TestExclude(t *testing.T) {
	ds, err := New(testFeatures(), testSamples())
	assert.NilError(t, err)

	kept, err := ds.Exclude("region")
	assert.NilError(t, err)
	assert.Equal(t, 2, len(kept.Features()))
	assert.Equal(t, 4, kept.Len())
	_, ok := kept.Column("region")
	assert.Assert(t, !ok)

	_, err = ds.Exclude("state")
	assert.ErrorContains(t, err, "no column named state")
}

func TestSplit(t *testing.T) {
	ds, err := New(testFeatures(), testSamples())
	assert.NilError(t, err)

	predictors, outcome, err := ds.Split("crime")
	assert.NilError(t, err)
	assert.Equal(t, 2, len(predictors))
	assert.Equal(t, "crime", outcome.Feature.Name())
	for _, c := range predictors {
		assert.Assert(t, c.Feature.Name() != "crime")
	}

	_, _, err = ds.Split("state")
	assert.ErrorContains(t, err, "not part of the dataset")
}

func TestSubset(t *testing.T) {
	ds, err := New(testFeatures(), testSamples())
	assert.NilError(t, err)

	sub := ds.Subset([]int{2, 0, 2})
	assert.Equal(t, 3, sub.Len())
	crime, _ := sub.Column("crime")
	assert.DeepEqual(t, []float64{20.7, 12.3, 20.7}, crime.Floats)
	region, _ := sub.Column("region")
	assert.DeepEqual(t, []int{2, 0, 2}, region.Codes)
}

func TestColumnsChecksFeatureKind(t *testing.T) {
	ds, err := New(testFeatures(), testSamples())
	assert.NilError(t, err)

	_, err = ds.Columns([]feature.Feature{feature.NewDiscreteFeature("crime", []string{"low", "high"})})
	assert.ErrorContains(t, err, "does not match the feature kind")

	cols, err := ds.Columns([]feature.Feature{feature.NewContinuousFeature("poverty"), feature.NewContinuousFeature("crime")})
	assert.NilError(t, err)
	assert.Equal(t, "poverty", cols[0].Feature.Name())
	assert.Equal(t, "crime", cols[1].Feature.Name())
}

func TestSampleDecodesRow(t *testing.T) {
	ds, err := New(testFeatures(), testSamples())
	assert.NilError(t, err)

	s := ds.Sample(1)
	v, err := s.ValueFor(feature.NewContinuousFeature("crime"))
	assert.NilError(t, err)
	assert.Equal(t, 8.1, v)
	v, err = s.ValueFor(feature.NewDiscreteFeature("region", nil))
	assert.NilError(t, err)
	assert.Equal(t, "south", v)
}
