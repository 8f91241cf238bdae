package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// Sheet names of the report workbook
const (
	SheetCoefficients = "coefficients"
	SheetStatistics   = "statistics"
	SheetData         = "data"
)

// WorkbookExporter writes every report table into one XLSX file
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger}
}

// Export writes the coefficients, statistics and data sheets to path.
// Numeric cells are stored as numbers.
func (w *WorkbookExporter) Export(ctx context.Context, path string, result *panel.Result, stats []dataprocessing.ColumnSummary, df dataframe.DataFrame) error {
	if result == nil {
		return apperrors.NewValidationError("no fitted model to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCoefficients); err != nil {
		return apperrors.NewStorageError("failed to name workbook sheet", err)
	}
	for _, name := range []string{SheetStatistics, SheetData} {
		if _, err := f.NewSheet(name); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to add sheet %s", name), err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewStorageError("failed to create header style", err)
	}

	coefRows := make([][]interface{}, 0, len(result.Coefficients()))
	for _, c := range result.Coefficients() {
		coefRows = append(coefRows, []interface{}{
			c.Name, cellFloat(c.Estimate), cellFloat(c.StdError), cellFloat(c.TStat),
			cellFloat(c.PValue), cellFloat(c.Lower), cellFloat(c.Upper),
		})
	}
	coefHeader, _ := result.CoefficientTable()
	if err := writeSheet(f, SheetCoefficients, coefHeader, coefRows, header); err != nil {
		return err
	}

	statRows := make([][]interface{}, 0, len(stats))
	for _, s := range stats {
		statRows = append(statRows, []interface{}{
			s.Name, s.Count, cellFloat(s.Mean), cellFloat(s.Std), cellFloat(s.Min), cellFloat(s.Max),
		})
	}
	if err := writeSheet(f, SheetStatistics, StatisticsHeaders, statRows, header); err != nil {
		return err
	}

	dataHeader, dataRows, err := frameCells(df)
	if err != nil {
		return err
	}
	if err := writeSheet(f, SheetData, dataHeader, dataRows, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to save workbook %s", path), err)
	}

	w.logger.InfoContext(ctx, "Exported workbook",
		slog.String("path", path),
		slog.Int("coefficients", len(coefRows)),
		slog.Int("statistics", len(statRows)),
		slog.Int("data_rows", len(dataRows)))
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s header", sheet), err)
	}

	if len(header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to style %s header", sheet), err)
		}
		lastCol, _ := excelize.ColumnNumberToName(len(header))
		if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to size %s columns", sheet), err)
		}
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write %s row %d", sheet, i+1), err)
		}
	}
	return nil
}

// frameCells converts df to typed cell rows
func frameCells(df dataframe.DataFrame) ([]string, [][]interface{}, error) {
	if df.Err != nil {
		return nil, nil, apperrors.NewValidationError("table is invalid: " + df.Err.Error())
	}

	names := df.Names()
	rows := make([][]interface{}, df.Nrow())
	for i := range rows {
		rows[i] = make([]interface{}, len(names))
	}

	for j, name := range names {
		col := df.Col(name)
		switch col.Type() {
		case series.Float:
			for i, v := range col.Float() {
				rows[i][j] = cellFloat(v)
			}
		case series.Int:
			values, err := col.Int()
			if err != nil {
				return nil, nil, apperrors.NewValidationError("column " + name + " is not integral")
			}
			for i, v := range values {
				rows[i][j] = v
			}
		default:
			for i, v := range col.Records() {
				rows[i][j] = v
			}
		}
	}
	return names, rows, nil
}

// cellFloat leaves NaN and infinities as empty cells
func cellFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}
