/*
Package json serializes fitted forests to JSON and deserializes them
back, so a forest grown by one command can be reused by another to
predict or to be tested against new data.
*/
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/j3schaue/intro-to-random-forests/feature"
	"github.com/j3schaue/intro-to-random-forests/forest"
	"github.com/j3schaue/intro-to-random-forests/tree"
)

const version = 1

/*
Model wraps a fitted forest of either kind. Exactly one of Regressor and
Classifier is non-nil.
*/
type Model struct {
	Regressor  *forest.Regressor
	Classifier *forest.Classifier
}

// Kind returns "regression" or "classification".
func (m *Model) Kind() string {
	if m.Regressor != nil {
		return "regression"
	}
	return "classification"
}

type jsonFeature struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Values []string `json:"values,omitempty"`
}

type jsonModel struct {
	Version     int           `json:"version"`
	Kind        string        `json:"kind"`
	Outcome     jsonFeature   `json:"outcome"`
	Predictors  []jsonFeature `json:"predictors"`
	NumTrees    int           `json:"numTrees"`
	MTry        int           `json:"mtry"`
	MaxDepth    int           `json:"maxDepth"`
	MinNodeSize int           `json:"minNodeSize"`

	Classes               []string `json:"classes,omitempty"`
	MSE                   float64  `json:"mse,omitempty"`
	RSquared              float64  `json:"rSquared,omitempty"`
	Accuracy              float64  `json:"accuracy,omitempty"`
	MisclassificationRate float64  `json:"misclassificationRate,omitempty"`

	Trees []*tree.Node `json:"trees"`
}

/*
Write serializes the given model as JSON onto the io.Writer. An error is
returned if the model wraps no forest or the serialization fails.
*/
func Write(w io.Writer, m *Model) error {
	jm := &jsonModel{Version: version, Kind: m.Kind()}
	switch {
	case m.Regressor != nil:
		f := m.Regressor
		jm.Outcome = encodeFeature(f.Outcome)
		jm.Predictors = encodeFeatures(f.Predictors)
		jm.NumTrees = f.NumTrees
		jm.MTry = f.MTry
		jm.MaxDepth = f.MaxDepth
		jm.MinNodeSize = f.MinNodeSize
		jm.MSE = f.MSE
		jm.RSquared = f.RSquared
		jm.Trees = make([]*tree.Node, len(f.Trees))
		for i, t := range f.Trees {
			jm.Trees[i] = t.Root
		}
	case m.Classifier != nil:
		f := m.Classifier
		jm.Outcome = encodeFeature(f.Outcome)
		jm.Predictors = encodeFeatures(f.Predictors)
		jm.NumTrees = f.NumTrees
		jm.MTry = f.MTry
		jm.MaxDepth = f.MaxDepth
		jm.MinNodeSize = f.MinNodeSize
		jm.Classes = f.Classes
		jm.Accuracy = f.Accuracy
		jm.MisclassificationRate = f.MisclassificationRate
		jm.Trees = make([]*tree.Node, len(f.Trees))
		for i, t := range f.Trees {
			jm.Trees[i] = t.Root
		}
	default:
		return fmt.Errorf("writing model: model wraps no forest")
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(jm); err != nil {
		return fmt.Errorf("writing model: %v", err)
	}
	return nil
}

/*
Read deserializes a model written by Write from the io.Reader, rebuilding
the forest of the encoded kind.
*/
func Read(r io.Reader) (*Model, error) {
	jm := &jsonModel{}
	if err := json.NewDecoder(r).Decode(jm); err != nil {
		return nil, fmt.Errorf("reading model: %v", err)
	}
	if jm.Version != version {
		return nil, fmt.Errorf("reading model: unknown version %d", jm.Version)
	}
	outcome, err := decodeFeature(jm.Outcome)
	if err != nil {
		return nil, fmt.Errorf("reading model: %v", err)
	}
	predictors := make([]feature.Feature, len(jm.Predictors))
	for i, jf := range jm.Predictors {
		predictors[i], err = decodeFeature(jf)
		if err != nil {
			return nil, fmt.Errorf("reading model: %v", err)
		}
	}

	switch jm.Kind {
	case "regression":
		f := &forest.Regressor{
			NumTrees:    jm.NumTrees,
			MTry:        jm.MTry,
			MaxDepth:    jm.MaxDepth,
			MinNodeSize: jm.MinNodeSize,
			MSE:         jm.MSE,
			RSquared:    jm.RSquared,
			Outcome:     outcome,
			Predictors:  predictors,
			Trees:       make([]*tree.Regressor, len(jm.Trees)),
		}
		for i, root := range jm.Trees {
			f.Trees[i] = &tree.Regressor{Tree: tree.Restore(root, len(predictors))}
		}
		return &Model{Regressor: f}, nil
	case "classification":
		f := &forest.Classifier{
			NumTrees:              jm.NumTrees,
			MTry:                  jm.MTry,
			MaxDepth:              jm.MaxDepth,
			MinNodeSize:           jm.MinNodeSize,
			Classes:               jm.Classes,
			Accuracy:              jm.Accuracy,
			MisclassificationRate: jm.MisclassificationRate,
			Outcome:               outcome,
			Predictors:            predictors,
			Trees:                 make([]*tree.Classifier, len(jm.Trees)),
		}
		for i, root := range jm.Trees {
			f.Trees[i] = &tree.Classifier{Tree: tree.Restore(root, len(predictors)), Classes: jm.Classes}
		}
		return &Model{Classifier: f}, nil
	}
	return nil, fmt.Errorf("reading model: unknown kind %q", jm.Kind)
}

func encodeFeature(f feature.Feature) jsonFeature {
	if df, ok := f.(*feature.DiscreteFeature); ok {
		return jsonFeature{Name: df.Name(), Kind: "discrete", Values: df.AvailableValues()}
	}
	return jsonFeature{Name: f.Name(), Kind: "continuous"}
}

func encodeFeatures(fs []feature.Feature) []jsonFeature {
	jfs := make([]jsonFeature, len(fs))
	for i, f := range fs {
		jfs[i] = encodeFeature(f)
	}
	return jfs
}

func decodeFeature(jf jsonFeature) (feature.Feature, error) {
	switch jf.Kind {
	case "continuous":
		return feature.NewContinuousFeature(jf.Name), nil
	case "discrete":
		return feature.NewDiscreteFeature(jf.Name, jf.Values), nil
	}
	return nil, fmt.Errorf("feature %s has unknown kind %q", jf.Name, jf.Kind)
}
