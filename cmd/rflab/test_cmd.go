package main

import (
	"context"
	"fmt"
	"os"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"github.com/j3schaue/intro-to-random-forests/forest/json"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

type testCmdConfig struct {
	*rootCmdConfig
	modelInput string
	dataInput  string
	table      string
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a forest",
		Long:  `Test the performance of a forest against a test data set`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			model, err := readModel(config.Context(), config.rootCmdConfig, config.modelInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			features := modelFeatures(model)
			ds, err := loadDataset(config.Context(), config.rootCmdConfig, config.dataInput, config.table, features, nil)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			config.Logf("Testing forest against a set with %d samples...", ds.Len())
			err = config.test(model, ds)
			if err != nil {
				fmt.Fprintf(os.Stderr, "testing forest: %v\n", err)
				os.Exit(4)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to test the forest against (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "forest", "f", "", "path to a file or redis model URL from which the forest to test will be read and parsed as JSON (required)")
	cmd.PersistentFlags().StringVar(&(config.table), "table", "samples", "name of the table to read on SQL inputs")
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	if tcc.modelInput == "" {
		return fmt.Errorf("required forest flag was not set")
	}
	return nil
}

func (tcc *testCmdConfig) test(model *json.Model, ds *dataset.Dataset) error {
	if model.Regressor != nil {
		actual, ok := ds.Column(model.Regressor.Outcome.Name())
		if !ok {
			return fmt.Errorf("outcome column %s is not part of the dataset", model.Regressor.Outcome.Name())
		}
		predictions, err := model.Regressor.Predict(ds)
		if err != nil {
			return err
		}
		var mse float64
		for i, p := range predictions {
			d := p - actual.Floats[i]
			mse += d * d
		}
		mse /= float64(len(predictions))
		rSquared := 0.0
		if v := stat.Variance(actual.Floats, nil); v > 0 {
			rSquared = 1.0 - mse/v
		}
		fmt.Printf("MSE %f, R^2 %f over %d samples\n", mse, rSquared, len(predictions))
		return nil
	}
	actual, ok := ds.Column(model.Classifier.Outcome.Name())
	if !ok {
		return fmt.Errorf("outcome column %s is not part of the dataset", model.Classifier.Outcome.Name())
	}
	predictions, err := model.Classifier.Predict(ds)
	if err != nil {
		return err
	}
	classes := model.Classifier.Classes
	var correct int
	for i, p := range predictions {
		if p == classes[actual.Codes[i]] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(predictions))
	fmt.Printf("accuracy %f, misclassification rate %f over %d samples\n", accuracy, 1.0-accuracy, len(predictions))
	return nil
}

func modelFeatures(model *json.Model) []feature.Feature {
	var predictors []feature.Feature
	var outcome feature.Feature
	if model.Regressor != nil {
		predictors, outcome = model.Regressor.Predictors, model.Regressor.Outcome
	} else {
		predictors, outcome = model.Classifier.Predictors, model.Classifier.Outcome
	}
	features := append([]feature.Feature{}, predictors...)
	return append(features, outcome)
}

func (tcc *testCmdConfig) setContextAndCancelFunc() {
	if tcc.ctx == nil {
		tcc.ctx, tcc.cancelFunc = context.WithCancel(context.Background())
	}
}

func (tcc *testCmdConfig) Context() context.Context {
	tcc.setContextAndCancelFunc()
	return tcc.ctx
}
