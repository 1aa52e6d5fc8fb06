package feature

import (
	"testing"

	"gotest.tools/assert"
)

func TestContinuousFeatureValid(t *testing.T) {
	f := NewContinuousFeature("crime")
	ok, err := f.Valid(3.14)
	assert.NilError(t, err)
	assert.Assert(t, ok)

	ok, err = f.Valid(nil)
	assert.NilError(t, err)
	assert.Assert(t, ok)

	ok, err = f.Valid("3.14")
	assert.Assert(t, !ok)
	assert.ErrorContains(t, err, "expects float64")
}

func TestDiscreteFeatureValid(t *testing.T) {
	f := NewDiscreteFeature("region", []string{"north", "south", "west"})
	ok, err := f.Valid("south")
	assert.NilError(t, err)
	assert.Assert(t, ok)

	ok, err = f.Valid(nil)
	assert.NilError(t, err)
	assert.Assert(t, ok)

	ok, err = f.Valid("east")
	assert.Assert(t, !ok)
	assert.ErrorContains(t, err, "unknown value east")

	ok, err = f.Valid(3)
	assert.Assert(t, !ok)
	assert.ErrorContains(t, err, "expects string")
}

func TestDiscreteFeatureIndexOf(t *testing.T) {
	f := NewDiscreteFeature("region", []string{"north", "south", "west"})
	assert.Equal(t, 0, f.IndexOf("north"))
	assert.Equal(t, 2, f.IndexOf("west"))
	assert.Equal(t, -1, f.IndexOf("east"))
}
