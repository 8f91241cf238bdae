package exporter

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

func TestWorkbookExporter_Export(t *testing.T) {
	df, result := fixture(t)
	stats := dataprocessing.Describe(df)
	path := filepath.Join(t.TempDir(), "reports", "panel_report.xlsx")

	require.NoError(t, NewWorkbookExporter(quietLogger).Export(context.Background(), path, result, stats, df))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetCoefficients, SheetStatistics, SheetData}, f.GetSheetList())

	coefs, err := f.GetRows(SheetCoefficients, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, coefs, len(result.Coefficients())+1)
	assert.Equal(t, "variable", coefs[0][0])
	assert.Equal(t, panel.ConstName, coefs[1][0])

	estimate, err := strconv.ParseFloat(coefs[1][1], 64)
	require.NoError(t, err)
	want, _ := result.Param(panel.ConstName)
	assert.InDelta(t, want, estimate, 1e-9)

	statRows, err := f.GetRows(SheetStatistics)
	require.NoError(t, err)
	assert.Equal(t, StatisticsHeaders, statRows[0])
	assert.Len(t, statRows, len(stats)+1)

	data, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, data, df.Nrow()+1)
	assert.Equal(t, df.Names(), data[0])
	assert.Equal(t, df.Col("region").Records()[0], data[1][0])
	assert.Equal(t, "2015", data[1][1])
}

func TestWorkbookExporter_NilResult(t *testing.T) {
	df, _ := fixture(t)
	err := NewWorkbookExporter(nil).Export(context.Background(), filepath.Join(t.TempDir(), "x.xlsx"), nil, nil, df)
	assert.Error(t, err)
}

func TestCellFloat(t *testing.T) {
	assert.Equal(t, 1.5, cellFloat(1.5))
	assert.Equal(t, "", cellFloat(nan()))
}
