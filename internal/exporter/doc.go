// Package exporter writes the optional report files of a panel run.
//
// CSVWriter is the low-level writer with optional UTF-8 BOM for Excel and a
// streaming mode for large tables. ReportExporter writes the cleaned table,
// the coefficient table and descriptive statistics as CSV files, and
// WorkbookExporter collects the same tables into one XLSX workbook.
//
// Example usage:
//
//	reports := exporter.NewReportExporter(paths, true, logger)
//	path, err := reports.ExportCoefficients(ctx, result, config.CoefficientsFile)
//
//	book := exporter.NewWorkbookExporter(logger)
//	err = book.Export(ctx, paths.GetReportPath(config.WorkbookFile), result, stats, df)
package exporter
