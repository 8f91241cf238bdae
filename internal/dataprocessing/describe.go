package dataprocessing

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Describe returns count, mean, sample standard deviation, min and max for
// every numeric column of df, in column order
func Describe(df dataframe.DataFrame) []ColumnSummary {
	var out []ColumnSummary
	for _, name := range df.Names() {
		col := df.Col(name)
		if col.Type() != series.Float && col.Type() != series.Int {
			continue
		}

		values := col.Float()
		summary := ColumnSummary{Name: name, Count: len(values)}
		if len(values) > 0 {
			summary.Mean, summary.Std = stat.MeanStdDev(values, nil)
			summary.Min = floats.Min(values)
			summary.Max = floats.Max(values)
		}
		if len(values) < 2 {
			summary.Std = 0
		}
		out = append(out, summary)
	}
	return out
}
