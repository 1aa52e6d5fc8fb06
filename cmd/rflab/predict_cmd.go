package main

import (
	"context"
	"fmt"
	"os"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/dataset/csv"
	"github.com/j3schaue/intro-to-random-forests/feature"
	"github.com/j3schaue/intro-to-random-forests/forest/json"
	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	*rootCmdConfig
	modelInput string
	dataInput  string
	output     string
	table      string
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict outcome values for a set of samples",
		Long:  `Use a grown forest to predict the outcome feature value for every sample on an input set, and write the samples with their predictions as CSV`,
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
			predictors, outcome := modelPredictors(model)
			ds, err := loadDataset(config.Context(), config.rootCmdConfig, config.dataInput, config.table, predictors, nil)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			config.Logf("Predicting %s for %d samples...", outcome.Name(), ds.Len())
			samples, err := predictSamples(model, ds, predictors, outcome)
			if err != nil {
				fmt.Fprintf(os.Stderr, "predicting: %v\n", err)
				os.Exit(4)
			}
			err = config.writeSamples(samples, append(append([]feature.Feature{}, predictors...), outcome))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with samples to predict for (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "forest", "f", "", "path to a file or redis model URL from which the forest will be read and parsed as JSON (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the samples with their predictions will be written as CSV (defaults to STDOUT)")
	cmd.PersistentFlags().StringVar(&(config.table), "table", "samples", "name of the table to read on SQL inputs")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.modelInput == "" {
		return fmt.Errorf("required forest flag was not set")
	}
	return nil
}

func modelPredictors(model *json.Model) ([]feature.Feature, feature.Feature) {
	if model.Regressor != nil {
		return model.Regressor.Predictors, model.Regressor.Outcome
	}
	return model.Classifier.Predictors, model.Classifier.Outcome
}

func predictSamples(model *json.Model, ds *dataset.Dataset, predictors []feature.Feature, outcome feature.Feature) ([]dataset.Sample, error) {
	columns, err := ds.Columns(predictors)
	if err != nil {
		return nil, err
	}
	predictions := make([]interface{}, ds.Len())
	if model.Regressor != nil {
		predicted, err := model.Regressor.Predict(ds)
		if err != nil {
			return nil, err
		}
		for i, p := range predicted {
			predictions[i] = p
		}
	} else {
		predicted, err := model.Classifier.Predict(ds)
		if err != nil {
			return nil, err
		}
		for i, p := range predicted {
			predictions[i] = p
		}
	}
	samples := make([]dataset.Sample, ds.Len())
	for i := range samples {
		values := make(map[string]interface{}, len(predictors)+1)
		for j, f := range predictors {
			c := &columns[j]
			if c.Continuous() {
				values[f.Name()] = c.Floats[i]
			} else {
				values[f.Name()] = f.(*feature.DiscreteFeature).AvailableValues()[c.Codes[i]]
			}
		}
		values[outcome.Name()] = predictions[i]
		samples[i] = dataset.NewSample(values)
	}
	return samples, nil
}

func (pcc *predictCmdConfig) writeSamples(samples []dataset.Sample, features []feature.Feature) error {
	f := os.Stdout
	if pcc.output != "" {
		var err error
		f, err = os.Create(pcc.output)
		if err != nil {
			return fmt.Errorf("writing predictions to %s: %v", pcc.output, err)
		}
		defer f.Close()
	}
	w, err := csv.NewWriter(f, features)
	if err != nil {
		return err
	}
	if _, err := w.Write(pcc.Context(), samples); err != nil {
		return err
	}
	return w.Flush()
}

func (pcc *predictCmdConfig) setContextAndCancelFunc() {
	if pcc.ctx == nil {
		pcc.ctx, pcc.cancelFunc = context.WithCancel(context.Background())
	}
}

func (pcc *predictCmdConfig) Context() context.Context {
	pcc.setContextAndCancelFunc()
	return pcc.ctx
}
