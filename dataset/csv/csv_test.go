package csv

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/j3schaue/intro-to-random-forests/dataset"
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

func TestReadDataset(t *testing.T) {
	csvData := `crime,poverty,region
12.3,4.5,north
8.1,2.2,south
20.7,?,west
5.4,1.1,north
`
	ds, err := ReadDataset(strings.NewReader(csvData), testFeatures())
	assert.NilError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, 1, ds.Dropped())

	crime, ok := ds.Column("crime")
	assert.Assert(t, ok)
	assert.DeepEqual(t, []float64{12.3, 8.1, 5.4}, crime.Floats)
	region, ok := ds.Column("region")
	assert.Assert(t, ok)
	assert.DeepEqual(t, []int{0, 1, 0}, region.Codes)
}

func TestReadDatasetWithUnknownHeaderColumn(t *testing.T) {
	csvData := "crime,state\n1.0,CA\n"
	_, err := ReadDataset(strings.NewReader(csvData), testFeatures())
	assert.ErrorContains(t, err, "unknown feature state")
}

func TestReadDatasetWithInvalidValue(t *testing.T) {
	csvData := "crime,poverty,region\n1.0,2.0,east\n"
	_, err := ReadDataset(strings.NewReader(csvData), testFeatures())
	assert.ErrorContains(t, err, "parsing line 2")
}

func TestWriter(t *testing.T) {
	features := testFeatures()
	samples := []dataset.Sample{
		dataset.NewSample(map[string]interface{}{"crime": 12.3, "poverty": 4.5, "region": "north"}),
		dataset.NewSample(map[string]interface{}{"crime": 8.1, "region": "south"}),
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, features)
	assert.NilError(t, err)
	n, err := w.Write(context.Background(), samples)
	assert.NilError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, w.Count())
	assert.NilError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, "crime,poverty,region", lines[0])
	assert.Equal(t, "12.3,4.5,north", lines[1])
	assert.Equal(t, "8.1,?,south", lines[2])
}

func TestWriterStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, testFeatures())
	assert.NilError(t, err)
	n, err := w.Write(ctx, []dataset.Sample{
		dataset.NewSample(map[string]interface{}{"crime": 1.0, "poverty": 2.0, "region": "west"}),
	})
	assert.Equal(t, 0, n)
	assert.Assert(t, err != nil)
}
