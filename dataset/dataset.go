/*
Package dataset implements in-memory tabular datasets for training and
evaluating forests.

A Dataset holds one encoded column per feature over a fixed number of rows.
Continuous features are stored as float64 slices and discrete features as
category codes, the position of each value among the feature's available
values. Rows with missing values are dropped on construction, so every
operation downstream can assume complete rows.
*/
package dataset

import (
	"errors"
	"fmt"

	"github.com/j3schaue/intro-to-random-forests/feature"
)

// ErrNoSamples is returned when a dataset would be built without any
// complete row.
var ErrNoSamples = errors.New("dataset has no samples")

/*
Column holds the encoded values of one feature across all rows of a
dataset. Exactly one of Floats and Codes is populated: Floats for a
continuous feature, Codes for a discrete one.
*/
type Column struct {
	Feature feature.Feature
	Floats  []float64
	Codes   []int
}

/*
Continuous returns whether the column belongs to a continuous feature.
*/
func (c *Column) Continuous() bool {
	_, ok := c.Feature.(*feature.ContinuousFeature)
	return ok
}

/*
Cardinality returns the number of categories available for the column's
feature, or 0 for continuous columns.
*/
func (c *Column) Cardinality() int {
	df, ok := c.Feature.(*feature.DiscreteFeature)
	if !ok {
		return 0
	}
	return len(df.AvailableValues())
}

/*
Dataset is an ordered collection of rows encoded by column. All columns
have the same length and no value is missing.
*/
type Dataset struct {
	features []feature.Feature
	columns  []Column
	n        int
	dropped  int
}

/*
New takes a slice of features and a slice of samples and returns a dataset
with one encoded column per feature, or an error.

Samples with a missing or invalid value for any of the given features are
dropped; the number of dropped samples can be retrieved with Dropped. An
ErrNoSamples error is returned when no sample survives the dropping.
*/
func New(features []feature.Feature, samples []Sample) (*Dataset, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("building dataset: no features given")
	}
	ds := &Dataset{features: features, columns: make([]Column, len(features))}
	for i, f := range features {
		ds.columns[i].Feature = f
		if _, ok := f.(*feature.ContinuousFeature); ok {
			ds.columns[i].Floats = make([]float64, 0, len(samples))
		} else {
			ds.columns[i].Codes = make([]int, 0, len(samples))
		}
	}
	row := make([]interface{}, len(features))
	for _, s := range samples {
		complete := true
		for i, f := range features {
			v, err := s.ValueFor(f)
			if err != nil {
				return nil, fmt.Errorf("building dataset: reading value for %s: %v", f.Name(), err)
			}
			if v == nil {
				complete = false
				break
			}
			row[i] = v
		}
		if !complete {
			ds.dropped++
			continue
		}
		if err := ds.appendRow(row); err != nil {
			return nil, err
		}
		ds.n++
	}
	if ds.n == 0 {
		return nil, ErrNoSamples
	}
	return ds, nil
}

func (ds *Dataset) appendRow(row []interface{}) error {
	for i, v := range row {
		f := ds.features[i]
		switch f := f.(type) {
		case *feature.ContinuousFeature:
			fv, ok := v.(float64)
			if !ok {
				return fmt.Errorf("building dataset: continuous feature %s got %T value %v", f.Name(), v, v)
			}
			ds.columns[i].Floats = append(ds.columns[i].Floats, fv)
		case *feature.DiscreteFeature:
			sv, ok := v.(string)
			if !ok {
				return fmt.Errorf("building dataset: discrete feature %s got %T value %v", f.Name(), v, v)
			}
			code := f.IndexOf(sv)
			if code < 0 {
				return fmt.Errorf("building dataset: discrete feature %s got unknown value %s", f.Name(), sv)
			}
			ds.columns[i].Codes = append(ds.columns[i].Codes, code)
		default:
			return fmt.Errorf("building dataset: unknown feature type %T for feature %v", f, f.Name())
		}
	}
	return nil
}

/*
Len returns the number of rows in the dataset.
*/
func (ds *Dataset) Len() int {
	return ds.n
}

/*
Dropped returns the number of samples dropped on construction because of
missing values.
*/
func (ds *Dataset) Dropped() int {
	return ds.dropped
}

/*
Features returns the features of the dataset in column order.
*/
func (ds *Dataset) Features() []feature.Feature {
	return ds.features
}

/*
Column returns the column for the feature with the given name and whether
such a column exists.
*/
func (ds *Dataset) Column(name string) (*Column, bool) {
	for i, f := range ds.features {
		if f.Name() == name {
			return &ds.columns[i], true
		}
	}
	return nil, false
}

/*
Columns returns the dataset columns matching the given features, in the
given order. It returns an error naming the first feature without a
matching column or whose column belongs to a feature of another kind.
*/
func (ds *Dataset) Columns(features []feature.Feature) ([]Column, error) {
	cols := make([]Column, len(features))
	for i, f := range features {
		c, ok := ds.Column(f.Name())
		if !ok {
			return nil, fmt.Errorf("dataset has no column for feature %s", f.Name())
		}
		if _, continuous := f.(*feature.ContinuousFeature); continuous != c.Continuous() {
			return nil, fmt.Errorf("dataset column %s does not match the feature kind", f.Name())
		}
		cols[i] = *c
	}
	return cols, nil
}

/*
Exclude returns a dataset without the columns for the given feature names,
or an error if any of the names does not correspond to a column. The
returned dataset shares the column data with the receiver.
*/
func (ds *Dataset) Exclude(names ...string) (*Dataset, error) {
	excluded := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := ds.Column(name); !ok {
			return nil, fmt.Errorf("excluding columns: dataset has no column named %s", name)
		}
		excluded[name] = true
	}
	kept := &Dataset{n: ds.n, dropped: ds.dropped}
	for i, f := range ds.features {
		if excluded[f.Name()] {
			continue
		}
		kept.features = append(kept.features, f)
		kept.columns = append(kept.columns, ds.columns[i])
	}
	if len(kept.features) == 0 {
		return nil, fmt.Errorf("excluding columns: no column left")
	}
	return kept, nil
}

/*
Split returns the predictor columns and the outcome column for the given
outcome feature name, or an error if the dataset has no column with that
name or no predictor would remain.
*/
func (ds *Dataset) Split(outcome string) ([]Column, *Column, error) {
	out, ok := ds.Column(outcome)
	if !ok {
		return nil, nil, fmt.Errorf("outcome column %s is not part of the dataset", outcome)
	}
	predictors := make([]Column, 0, len(ds.columns)-1)
	for i, f := range ds.features {
		if f.Name() == outcome {
			continue
		}
		predictors = append(predictors, ds.columns[i])
	}
	if len(predictors) == 0 {
		return nil, nil, fmt.Errorf("no predictor column left after splitting off outcome %s", outcome)
	}
	return predictors, out, nil
}

/*
Subset returns a dataset with the rows referenced in inx, in that order.
An index may be referenced more than once.
*/
func (ds *Dataset) Subset(inx []int) *Dataset {
	sub := &Dataset{
		features: ds.features,
		columns:  make([]Column, len(ds.columns)),
		n:        len(inx),
	}
	for i := range ds.columns {
		c := &ds.columns[i]
		sc := &sub.columns[i]
		sc.Feature = c.Feature
		if c.Continuous() {
			sc.Floats = make([]float64, len(inx))
			for j, r := range inx {
				sc.Floats[j] = c.Floats[r]
			}
		} else {
			sc.Codes = make([]int, len(inx))
			for j, r := range inx {
				sc.Codes[j] = c.Codes[r]
			}
		}
	}
	return sub
}

/*
Sample returns the i-th row of the dataset decoded as a Sample.
*/
func (ds *Dataset) Sample(i int) Sample {
	values := make(map[string]interface{}, len(ds.features))
	for j, f := range ds.features {
		c := &ds.columns[j]
		if c.Continuous() {
			values[f.Name()] = c.Floats[i]
		} else {
			df := f.(*feature.DiscreteFeature)
			values[f.Name()] = df.AvailableValues()[c.Codes[i]]
		}
	}
	return NewSample(values)
}
