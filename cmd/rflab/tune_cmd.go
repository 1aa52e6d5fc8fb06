package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/j3schaue/intro-to-random-forests/crossval"
	"github.com/j3schaue/intro-to-random-forests/feature/yaml"
	"github.com/j3schaue/intro-to-random-forests/forest"
	"github.com/spf13/cobra"
)

type tuneCmdConfig struct {
	*rootCmdConfig
	dataInput      string
	metadataInput  string
	outcomeFeature string
	table          string
	impurity       string
	param          string
	excluded       []string
	values         []int
	folds          int
	numTrees       int
	mtry           int
	maxDepth       int
	minNodeSize    int
	workers        int
	seed           int64
	ctx            context.Context
	cancelFunc     context.CancelFunc
}

func tuneCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &tuneCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Tune a forest hyperparameter with k-fold cross-validation",
		Long:  `Cross-validate a grid of candidate values for a forest hyperparameter and report the test error of each candidate.`,
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
			space, err := config.space()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			config.Logf("Cross-validating %s over %v with %d folds on %d samples...", config.param, config.values, config.folds, ds.Len())
			result, err := space.Run(config.Context(), ds)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			config.Logf("Done")
			printResult(result)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to cross-validate on (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.outcomeFeature), "outcome-feature", "c", "", "name of the feature the candidate forests should predict (required)")
	cmd.PersistentFlags().StringVarP(&(config.param), "param", "p", "mtry", "hyperparameter to tune: mtry, trees, depth or min-node")
	cmd.PersistentFlags().IntSliceVar(&(config.values), "values", nil, "candidate values for the tuned hyperparameter (required)")
	cmd.PersistentFlags().IntVarP(&(config.folds), "folds", "k", 10, "number of cross-validation folds")
	cmd.PersistentFlags().StringSliceVarP(&(config.excluded), "exclude", "x", nil, "names of input columns to drop before cross-validating")
	cmd.PersistentFlags().StringVar(&(config.table), "table", "samples", "name of the table to read on SQL inputs")
	cmd.PersistentFlags().StringVar(&(config.impurity), "impurity", "gini", "impurity measure for classification forests: gini or entropy")
	cmd.PersistentFlags().IntVarP(&(config.numTrees), "trees", "t", 100, "number of trees on every candidate forest")
	cmd.PersistentFlags().IntVar(&(config.mtry), "mtry", 0, "number of features drawn at each split on every candidate forest (defaults to 0: p/3 for regression, sqrt(p) for classification)")
	cmd.PersistentFlags().IntVar(&(config.maxDepth), "max-depth", -1, "maximum tree depth on every candidate forest (defaults to -1: unlimited)")
	cmd.PersistentFlags().IntVar(&(config.minNodeSize), "min-node-size", 5, "minimum number of samples on a node for it to be split")
	cmd.PersistentFlags().IntVar(&(config.workers), "workers", 0, "number of candidate-fold pairs to train at a time (defaults to 0: one per CPU)")
	cmd.PersistentFlags().Int64Var(&(config.seed), "seed", 1, "seed for the fold assignment and every candidate forest")
	return cmd
}

func (tcc *tuneCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if tcc.outcomeFeature == "" {
		return fmt.Errorf("required outcome-feature flag was not set")
	}
	if len(tcc.values) == 0 {
		return fmt.Errorf("required values flag was not set")
	}
	if _, err := impurityMeasure(tcc.impurity); err != nil {
		return err
	}
	return nil
}

func (tcc *tuneCmdConfig) space() (*crossval.Space, error) {
	impurity, err := impurityMeasure(tcc.impurity)
	if err != nil {
		return nil, err
	}
	options := []forest.Option{
		forest.NumTrees(tcc.numTrees),
		forest.MaxDepth(tcc.maxDepth),
		forest.MinNodeSize(tcc.minNodeSize),
		forest.Impurity(impurity),
	}
	if tcc.mtry > 0 {
		options = append(options, forest.MTry(tcc.mtry))
	}
	workers := tcc.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &crossval.Space{
		Outcome:    tcc.outcomeFeature,
		Param:      crossval.Param(tcc.param),
		Values:     tcc.values,
		Folds:      tcc.folds,
		Seed:       tcc.seed,
		NumWorkers: workers,
		Options:    options,
	}, nil
}

func printResult(result *crossval.Result) {
	errorName := "misclassification"
	if result.Regression {
		errorName = "MSE"
	}
	fmt.Printf("%10s %14s", result.Param, errorName)
	if result.Regression {
		fmt.Printf(" %10s", "R^2")
	}
	fmt.Println()
	for i, row := range result.Rows {
		marker := " "
		if i == result.Best {
			marker = "*"
		}
		fmt.Printf("%s%9d %14.6f", marker, row.Value, row.MeanError)
		if result.Regression {
			fmt.Printf(" %10.4f", row.RSquared)
		}
		fmt.Println()
	}
	fmt.Printf("best %s: %d\n", result.Param, result.BestValue())
}

func (tcc *tuneCmdConfig) setContextAndCancelFunc() {
	if tcc.ctx == nil {
		tcc.ctx, tcc.cancelFunc = context.WithCancel(context.Background())
	}
}

func (tcc *tuneCmdConfig) Context() context.Context {
	tcc.setContextAndCancelFunc()
	return tcc.ctx
}
