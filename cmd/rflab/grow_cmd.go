package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/j3schaue/intro-to-random-forests/crossval"
	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"github.com/j3schaue/intro-to-random-forests/feature/yaml"
	"github.com/j3schaue/intro-to-random-forests/forest"
	"github.com/j3schaue/intro-to-random-forests/forest/json"
	"github.com/j3schaue/intro-to-random-forests/tree"
	"github.com/spf13/cobra"
)

type growCmdConfig struct {
	*rootCmdConfig
	dataInput      string
	metadataInput  string
	output         string
	outcomeFeature string
	table          string
	impurity       string
	excluded       []string
	numTrees       int
	mtry           int
	maxDepth       int
	minNodeSize    int
	workers        int
	seed           int64
	testFraction   float64
	ctx            context.Context
	cancelFunc     context.CancelFunc
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow a random forest from a set of data",
		Long:  `Grow a random forest from a set of data to predict a certain feature.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			features, err := yaml.ReadFeaturesFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := loadDataset(config.Context(), config.rootCmdConfig, config.dataInput, config.table, features, config.excluded)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			train, test, err := config.split(ds)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			outcome, ok := ds.Column(config.outcomeFeature)
			if !ok {
				fmt.Fprintf(os.Stderr, "outcome feature '%s' is not part of the dataset\n", config.outcomeFeature)
				os.Exit(5)
			}
			options, err := config.forestOptions()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			config.Logf("Growing forest from a set with %d samples and %d features to predict %s ...", train.Len(), len(train.Features())-1, config.outcomeFeature)
			model, err := config.grow(train, outcome, options)
			if err != nil {
				fmt.Fprintf(os.Stderr, "growing the forest: %v\n", err)
				os.Exit(7)
			}
			config.Logf("Done")
			config.logImportances(model)
			if test != nil {
				config.logHeldOutError(model, test, outcome)
			}
			err = writeModel(config.Context(), config.rootCmdConfig, config.output, model)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(8)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to use to grow the forest (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file or redis model URL to which the grown forest will be written in JSON format (defaults to STDOUT)")
	cmd.PersistentFlags().StringVarP(&(config.outcomeFeature), "outcome-feature", "c", "", "name of the feature the grown forest should predict (required)")
	cmd.PersistentFlags().StringSliceVarP(&(config.excluded), "exclude", "x", nil, "names of input columns to drop before growing")
	cmd.PersistentFlags().StringVar(&(config.table), "table", "samples", "name of the table to read on SQL inputs")
	cmd.PersistentFlags().StringVar(&(config.impurity), "impurity", "gini", "impurity measure for classification forests: gini or entropy")
	cmd.PersistentFlags().IntVarP(&(config.numTrees), "trees", "t", 100, "number of trees to grow")
	cmd.PersistentFlags().IntVar(&(config.mtry), "mtry", 0, "number of features drawn at each split (defaults to 0: p/3 for regression, sqrt(p) for classification)")
	cmd.PersistentFlags().IntVar(&(config.maxDepth), "max-depth", -1, "maximum tree depth (defaults to -1: unlimited)")
	cmd.PersistentFlags().IntVar(&(config.minNodeSize), "min-node-size", 5, "minimum number of samples on a node for it to be split")
	cmd.PersistentFlags().IntVar(&(config.workers), "workers", 0, "number of trees to grow at a time (defaults to 0: one per CPU)")
	cmd.PersistentFlags().Int64Var(&(config.seed), "seed", 0, "seed for the bootstrap and feature sampling (defaults to 0: seed from the clock)")
	cmd.PersistentFlags().Float64Var(&(config.testFraction), "test-fraction", 0, "fraction of samples to hold out from growing and report the forest's error on")
	return cmd
}

func (gcc *growCmdConfig) Validate() error {
	if gcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if gcc.outcomeFeature == "" {
		return fmt.Errorf("required outcome-feature flag was not set")
	}
	if gcc.testFraction < 0 || gcc.testFraction >= 1 {
		return fmt.Errorf("test-fraction must be in [0, 1), got %f", gcc.testFraction)
	}
	if _, err := impurityMeasure(gcc.impurity); err != nil {
		return err
	}
	return nil
}

func (gcc *growCmdConfig) forestOptions() ([]forest.Option, error) {
	impurity, err := impurityMeasure(gcc.impurity)
	if err != nil {
		return nil, err
	}
	options := []forest.Option{
		forest.NumTrees(gcc.numTrees),
		forest.MaxDepth(gcc.maxDepth),
		forest.MinNodeSize(gcc.minNodeSize),
		forest.Impurity(impurity),
		forest.ComputeOOB(),
	}
	if gcc.mtry > 0 {
		options = append(options, forest.MTry(gcc.mtry))
	}
	workers := gcc.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	options = append(options, forest.NumWorkers(workers))
	if gcc.seed != 0 {
		options = append(options, forest.Seed(gcc.seed))
	}
	return options, nil
}

func (gcc *growCmdConfig) split(ds *dataset.Dataset) (train, test *dataset.Dataset, err error) {
	if gcc.testFraction == 0 {
		return ds, nil, nil
	}
	trainInx, testInx, err := crossval.TrainTestSplit(ds.Len(), gcc.testFraction, gcc.seed)
	if err != nil {
		return nil, nil, err
	}
	gcc.Logf("Holding out %d of %d samples...", len(testInx), ds.Len())
	return ds.Subset(trainInx), ds.Subset(testInx), nil
}

func (gcc *growCmdConfig) grow(train *dataset.Dataset, outcome *dataset.Column, options []forest.Option) (*json.Model, error) {
	if outcome.Continuous() {
		f := forest.NewRegressor(options...)
		if err := f.Fit(train, gcc.outcomeFeature); err != nil {
			return nil, err
		}
		gcc.Logf("Out-of-bag MSE %f, R^2 %f", f.MSE, f.RSquared)
		return &json.Model{Regressor: f}, nil
	}
	f := forest.NewClassifier(options...)
	if err := f.Fit(train, gcc.outcomeFeature); err != nil {
		return nil, err
	}
	gcc.Logf("Out-of-bag accuracy %f, misclassification rate %f", f.Accuracy, f.MisclassificationRate)
	return &json.Model{Classifier: f}, nil
}

func (gcc *growCmdConfig) logImportances(m *json.Model) {
	var importances []forest.Importance
	if m.Regressor != nil {
		importances = m.Regressor.VarImportance()
	} else {
		importances = m.Classifier.VarImportance()
	}
	forest.SortByDecrease(importances)
	gcc.Logf("Variable importances:")
	for _, imp := range importances {
		gcc.Logf("  %-24s %12.6f (%5.1f%%)", imp.Feature, imp.Decrease, 100*imp.Share)
	}
}

func (gcc *growCmdConfig) logHeldOutError(m *json.Model, test *dataset.Dataset, outcome *dataset.Column) {
	testOutcome, _ := test.Column(gcc.outcomeFeature)
	if m.Regressor != nil {
		predictions, err := m.Regressor.Predict(test)
		if err != nil {
			gcc.Logf("Predicting on the held-out samples: %v", err)
			return
		}
		var mse float64
		for i, p := range predictions {
			d := p - testOutcome.Floats[i]
			mse += d * d
		}
		mse /= float64(len(predictions))
		gcc.Logf("Held-out MSE over %d samples: %f", len(predictions), mse)
		return
	}
	predictions, err := m.Classifier.Predict(test)
	if err != nil {
		gcc.Logf("Predicting on the held-out samples: %v", err)
		return
	}
	classes := outcome.Feature.(*feature.DiscreteFeature).AvailableValues()
	var correct int
	for i, p := range predictions {
		if p == classes[testOutcome.Codes[i]] {
			correct++
		}
	}
	gcc.Logf("Held-out accuracy over %d samples: %f", len(predictions), float64(correct)/float64(len(predictions)))
}

func impurityMeasure(name string) (tree.ImpurityMeasure, error) {
	switch name {
	case "gini":
		return tree.Gini, nil
	case "entropy":
		return tree.Entropy, nil
	}
	return tree.Gini, fmt.Errorf("unknown impurity measure %s", name)
}

func (gcc *growCmdConfig) setContextAndCancelFunc() {
	if gcc.ctx == nil {
		gcc.ctx, gcc.cancelFunc = context.WithCancel(context.Background())
	}
}

func (gcc *growCmdConfig) Context() context.Context {
	gcc.setContextAndCancelFunc()
	return gcc.ctx
}
