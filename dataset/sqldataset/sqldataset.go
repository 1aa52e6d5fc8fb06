/*
Package sqldataset loads datasets from SQL databases.

Samples are read from a table with one column per feature:
continuous features are read as floating-point columns and
discrete features as text columns. NULL cells are treated as
missing values.
*/
package sqldataset

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/j3schaue/intro-to-random-forests/dataset"
	"github.com/j3schaue/intro-to-random-forests/feature"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

/*
OpenSQLite3 takes a path to an SQLite3 database file and returns a
handle on the file's database or an error if it fails to open as an
sqlite3 database.
*/
func OpenSQLite3(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite3 database %s: %v", path, err)
	}
	return db, nil
}

/*
OpenPostgreSQL takes a PostgreSQL database connection URL and returns
a handle on the database or an error if it fails to connect to it.
*/
func OpenPostgreSQL(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening PostgreSQL database: %v", err)
	}
	return db, nil
}

/*
Read queries the given table for one column per given feature and
returns the result as a dataset.Dataset. Rows with NULL cells are
dropped. It returns an error if the table cannot be queried, if a
feature name cannot be used as a column name, if a discrete value is
outside its feature's available values or if no row at all survives.
*/
func Read(ctx context.Context, db *sql.DB, table string, features []feature.Feature) (*dataset.Dataset, error) {
	query, err := buildSelect(table, features)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying samples from %s: %v", table, err)
	}
	defer rows.Close()
	var samples []dataset.Sample
	for rows.Next() {
		sample, err := scanSample(rows, features)
		if err != nil {
			return nil, fmt.Errorf("reading sample %d from %s: %v", len(samples), table, err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading samples from %s: %v", table, err)
	}
	ds, err := dataset.New(features, samples)
	if err != nil {
		return nil, fmt.Errorf("building dataset from %s: %v", table, err)
	}
	return ds, nil
}

func buildSelect(table string, features []feature.Feature) (string, error) {
	if len(features) == 0 {
		return "", fmt.Errorf("no features to query")
	}
	var queryBuffer bytes.Buffer
	queryBuffer.WriteString(`SELECT `)
	for i, f := range features {
		column, err := columnName(f.Name())
		if err != nil {
			return "", err
		}
		if i > 0 {
			queryBuffer.WriteString(", ")
		}
		queryBuffer.WriteString(fmt.Sprintf(`"%s"`, column))
	}
	column, err := columnName(table)
	if err != nil {
		return "", fmt.Errorf("invalid table name: %v", err)
	}
	queryBuffer.WriteString(fmt.Sprintf(` FROM "%s"`, column))
	return queryBuffer.String(), nil
}

func columnName(featureName string) (string, error) {
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func scanSample(rows *sql.Rows, features []feature.Feature) (dataset.Sample, error) {
	values := make([]interface{}, 0, len(features))
	for _, f := range features {
		if _, ok := f.(*feature.ContinuousFeature); ok {
			values = append(values, &sql.NullFloat64{})
		} else {
			values = append(values, &sql.NullString{})
		}
	}
	err := rows.Scan(values...)
	if err != nil {
		return nil, err
	}
	rawSample := make(map[string]interface{})
	for i, f := range features {
		switch v := values[i].(type) {
		case *sql.NullFloat64:
			if v.Valid {
				rawSample[f.Name()] = v.Float64
			}
		case *sql.NullString:
			if v.Valid {
				rawSample[f.Name()] = v.String
			}
		}
	}
	return dataset.NewSample(rawSample), nil
}
