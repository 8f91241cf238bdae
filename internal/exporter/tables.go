package exporter

import (
	"context"
	"log/slog"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// StatisticsHeaders is the header of the descriptive statistics table
var StatisticsHeaders = []string{"variable", "count", "mean", "std", "min", "max"}

// ReportExporter writes the run's tables as CSV files
type ReportExporter struct {
	csvWriter *CSVWriter
	bom       bool
	logger    *slog.Logger
}

// NewReportExporter creates an exporter writing into the reports directory
func NewReportExporter(paths *config.Paths, bom bool, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		csvWriter: NewCSVWriter(paths, logger),
		bom:       bom,
		logger:    logger,
	}
}

// ExportCleanedData streams the cleaned table row by row
func (e *ReportExporter) ExportCleanedData(ctx context.Context, df dataframe.DataFrame, filePath string) (string, error) {
	headers, rows, err := FrameRecords(df)
	if err != nil {
		return "", err
	}

	stream, err := e.csvWriter.CreateStreamWriter(filePath, headers, e.bom)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := stream.WriteRecord(row); err != nil {
			stream.Close()
			return "", err
		}
	}
	if err := stream.Close(); err != nil {
		return "", err
	}

	e.logger.InfoContext(ctx, "Exported cleaned data",
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Count()))
	return stream.Path(), nil
}

// ExportCoefficients writes the coefficient table of result
func (e *ReportExporter) ExportCoefficients(ctx context.Context, result *panel.Result, filePath string) (string, error) {
	if result == nil {
		return "", apperrors.NewValidationError("no fitted model to export")
	}
	headers, rows := result.CoefficientTable()
	path, err := e.csvWriter.WriteCSV(filePath, WriteOptions{Headers: headers, Records: rows, BOMPrefix: e.bom})
	if err != nil {
		return "", err
	}
	e.logger.InfoContext(ctx, "Exported coefficients",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return path, nil
}

// ExportStatistics writes one row of descriptive statistics per column
func (e *ReportExporter) ExportStatistics(ctx context.Context, stats []dataprocessing.ColumnSummary, filePath string) (string, error) {
	rows := StatisticsRecords(stats)
	path, err := e.csvWriter.WriteCSV(filePath, WriteOptions{Headers: StatisticsHeaders, Records: rows, BOMPrefix: e.bom})
	if err != nil {
		return "", err
	}
	e.logger.InfoContext(ctx, "Exported descriptive statistics",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return path, nil
}

// FrameRecords converts df to a header and string rows. Floats keep full
// precision; ints are written without a decimal point.
func FrameRecords(df dataframe.DataFrame) ([]string, [][]string, error) {
	if df.Err != nil {
		return nil, nil, apperrors.NewValidationError("table is invalid: " + df.Err.Error())
	}

	headers := df.Names()
	columns := make([][]string, len(headers))
	for j, name := range headers {
		col := df.Col(name)
		switch col.Type() {
		case series.Float:
			values := col.Float()
			cells := make([]string, len(values))
			for i, v := range values {
				cells[i] = formatFloat(v)
			}
			columns[j] = cells
		case series.Int:
			values, err := col.Int()
			if err != nil {
				return nil, nil, apperrors.NewValidationError("column " + name + " is not integral")
			}
			cells := make([]string, len(values))
			for i, v := range values {
				cells[i] = formatInt(v)
			}
			columns[j] = cells
		default:
			columns[j] = col.Records()
		}
	}

	rows := make([][]string, df.Nrow())
	for i := range rows {
		row := make([]string, len(headers))
		for j := range headers {
			row[j] = columns[j][i]
		}
		rows[i] = row
	}
	return headers, rows, nil
}

// StatisticsRecords formats column summaries in StatisticsHeaders order
func StatisticsRecords(stats []dataprocessing.ColumnSummary) [][]string {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{
			s.Name,
			formatInt(s.Count),
			formatFloat(s.Mean),
			formatFloat(s.Std),
			formatFloat(s.Min),
			formatFloat(s.Max),
		}
	}
	return rows
}
