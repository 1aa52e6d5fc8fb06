package main

import (
	"context"
	"strings"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/dataset/csv"
	"github.com/j3schaue/intro-to-random-forests/dataset/mongodataset"
	"github.com/j3schaue/intro-to-random-forests/dataset/sqldataset"
	"github.com/j3schaue/intro-to-random-forests/feature"
)

/*
readDataset reads a dataset with the given features from dataInput:
a PostgreSQL connection URL, a MongoDB connection URL, a path to an
SQLite3 (.db) file or a path to a CSV file, defaulting to STDIN
interpreted as CSV when dataInput is "". The table parameter names the
table to read on SQL inputs.
*/
func readDataset(ctx context.Context, config *rootCmdConfig, dataInput, table string, features []feature.Feature) (*dataset.Dataset, error) {
	if strings.HasPrefix(dataInput, "postgresql://") {
		config.Logf("Opening PostgreSQL database to read samples from table %s...", table)
		db, err := sqldataset.OpenPostgreSQL(dataInput)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return sqldataset.Read(ctx, db, table, features)
	}
	if strings.HasPrefix(dataInput, "mongodb://") {
		config.Logf("Opening MongoDB database to read samples...")
		session, err := mongodataset.Open(dataInput)
		if err != nil {
			return nil, err
		}
		defer session.Close()
		return mongodataset.Read(ctx, session, features)
	}
	if strings.HasSuffix(dataInput, ".db") {
		config.Logf("Opening SQLite3 file %s to read samples from table %s...", dataInput, table)
		db, err := sqldataset.OpenSQLite3(dataInput)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return sqldataset.Read(ctx, db, table, features)
	}
	if dataInput == "" {
		config.Logf("Reading samples from STDIN...")
	} else {
		config.Logf("Opening %s to read samples...", dataInput)
	}
	return csv.ReadDatasetFromFilePath(dataInput, features)
}

/*
loadDataset reads a dataset with readDataset, drops the columns named
in excluded and logs how many rows with missing values were dropped.
*/
func loadDataset(ctx context.Context, config *rootCmdConfig, dataInput, table string, features []feature.Feature, excluded []string) (*dataset.Dataset, error) {
	ds, err := readDataset(ctx, config, dataInput, table, features)
	if err != nil {
		return nil, err
	}
	if ds.Dropped() > 0 {
		config.Logf("Dropped %d samples with missing values", ds.Dropped())
	}
	if len(excluded) == 0 {
		return ds, nil
	}
	config.Logf("Excluding columns %s...", strings.Join(excluded, ", "))
	return ds.Exclude(excluded...)
}
