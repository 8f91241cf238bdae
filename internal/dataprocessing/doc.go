// Package dataprocessing loads and cleans the regional panel dataset.
// It covers the first two pipeline stages: reading a delimited text file or
// an Excel workbook into a table of raw string cells, and turning that table
// into a typed, complete table ready for estimation.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Loader: reads CSV/TSV/semicolon files and XLSX sheets into a gota DataFrame
// 2. Preprocessor: derives covid_period, normalises regions, coerces types, drops incomplete rows
// 3. Describe: per-column descriptive statistics of the cleaned table
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	raw, err := loader.LoadFile(ctx, "data/data.csv", dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//
//	pre := dataprocessing.NewPreprocessor(dataprocessing.DefaultTransformOptions(), logger)
//	clean, stats, err := pre.PreprocessWithStats(ctx, raw)
//
// # Data Flow
//
//	File → Loader → raw DataFrame (strings) → Preprocessor → cleaned DataFrame → Observations / Describe
//
// # Error Handling
//
// Loader errors are AppErrors: NOT_FOUND for a missing path, VALIDATION for
// directories and unsupported extensions, PARSING for malformed content.
// Cell-level coercion failures never error; the value becomes missing and
// the row is dropped.
package dataprocessing
