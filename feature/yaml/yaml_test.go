package yaml

import (
	"testing"

	"github.com/j3schaue/intro-to-random-forests/feature"
	"gotest.tools/assert"
)

const metadata = `
features:
  crime: continuous
  poverty: continuous
  region:
    - north
    - south
    - west
`

func TestReadFeatures(t *testing.T) {
	features, err := ReadFeatures([]byte(metadata))
	assert.NilError(t, err)
	assert.Equal(t, 3, len(features))

	byName := map[string]feature.Feature{}
	for _, f := range features {
		byName[f.Name()] = f
	}

	_, ok := byName["crime"].(*feature.ContinuousFeature)
	assert.Assert(t, ok, "expected crime to parse as a continuous feature")
	_, ok = byName["poverty"].(*feature.ContinuousFeature)
	assert.Assert(t, ok, "expected poverty to parse as a continuous feature")

	region, ok := byName["region"].(*feature.DiscreteFeature)
	assert.Assert(t, ok, "expected region to parse as a discrete feature")
	assert.DeepEqual(t, []string{"north", "south", "west"}, region.AvailableValues())
}

func TestReadFeaturesWithoutFeatureInformation(t *testing.T) {
	_, err := ReadFeatures([]byte("samples: 107"))
	assert.ErrorContains(t, err, "no feature information")
}

func TestReadFeaturesWithInvalidDeclaration(t *testing.T) {
	_, err := ReadFeatures([]byte("features:\n  crime: 12\n"))
	assert.ErrorContains(t, err, "invalid feature declaration")
}
