/*
Package mongodataset loads datasets from MongoDB databases.

Samples are read from a collection of documents with one field per
feature: continuous features are read from numeric fields and
discrete features from string fields. Documents without a field for
a feature are treated as samples with a missing value for it.
*/
package mongodataset

import (
	"context"
	"fmt"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const samplesCollectionName = "samples"

/*
Open takes a MongoDB connection URL and returns a session on its
database or an error if it fails to connect to it.
*/
func Open(url string) (*mgo.Session, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %v", err)
	}
	return session, nil
}

/*
Read iterates over the samples collection on the default database for
the given session and returns its documents as a dataset.Dataset.
Documents with missing fields are dropped. It returns an error if the
collection cannot be iterated, if a value has an unexpected type or if
no document at all survives.
*/
func Read(ctx context.Context, session *mgo.Session, features []feature.Feature) (*dataset.Dataset, error) {
	iter := session.DB("").C(samplesCollectionName).Find(nil).Iter()
	defer iter.Close()
	var samples []dataset.Sample
	var doc bson.M
	for iter.Next(&doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sample, err := decodeSample(doc, features)
		if err != nil {
			return nil, fmt.Errorf("reading sample %d from MongoDB: %v", len(samples), err)
		}
		samples = append(samples, sample)
		doc = bson.M{}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("reading samples from MongoDB: %v", err)
	}
	ds, err := dataset.New(features, samples)
	if err != nil {
		return nil, fmt.Errorf("building dataset from MongoDB samples: %v", err)
	}
	return ds, nil
}

func decodeSample(doc bson.M, features []feature.Feature) (dataset.Sample, error) {
	rawSample := make(map[string]interface{})
	for _, f := range features {
		v, ok := doc[f.Name()]
		if !ok || v == nil {
			continue
		}
		if _, continuous := f.(*feature.ContinuousFeature); continuous {
			fv, err := floatValue(v)
			if err != nil {
				return nil, fmt.Errorf("feature %s: %v", f.Name(), err)
			}
			rawSample[f.Name()] = fv
			continue
		}
		sv, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("feature %s: expected string value, got %T value %v", f.Name(), v, v)
		}
		rawSample[f.Name()] = sv
	}
	return dataset.NewSample(rawSample), nil
}

func floatValue(v interface{}) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("expected numeric value, got %T value %v", v, v)
}
