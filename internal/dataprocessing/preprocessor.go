package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

// Preprocessor turns a raw string table into the cleaned panel table
type Preprocessor struct {
	opts   TransformOptions
	logger *slog.Logger
}

// NewPreprocessor creates a preprocessor
func NewPreprocessor(opts TransformOptions, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{opts: opts, logger: logger}
}

// Preprocess cleans df with the default options
func Preprocess(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return NewPreprocessor(DefaultTransformOptions(), nil).Preprocess(context.Background(), df)
}

// Preprocess cleans df; see PreprocessWithStats
func (p *Preprocessor) Preprocess(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	clean, _, err := p.PreprocessWithStats(ctx, df)
	return clean, err
}

// PreprocessWithStats derives covid_period from year, title-cases region,
// parses year as an integer and every other column as a float, then drops
// each row with a missing value. An input covid_period column is replaced.
// The result has region, year, the remaining input columns in order, and
// covid_period last.
func (p *Preprocessor) PreprocessWithStats(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, TransformStats, error) {
	stats := TransformStats{DroppedByColumn: make(map[string]int)}

	if df.Err != nil {
		return dataframe.DataFrame{}, stats, apperrors.NewParsingError("input table is invalid", df.Err)
	}

	names := df.Names()
	if missing := missingColumns(names, RequiredColumns); len(missing) > 0 {
		return dataframe.DataFrame{}, stats, apperrors.NewValidationError(
			fmt.Sprintf("data must contain columns %s", strings.Join(missing, ", "))).
			WithContext("columns", names)
	}

	var measures []string
	for _, name := range names {
		if name != ColRegion && name != ColYear && name != ColCovidPeriod {
			measures = append(measures, name)
		}
	}

	n := df.Nrow()
	stats.RowsIn = n

	rawRegion := df.Col(ColRegion).Records()
	rawYear := df.Col(ColYear).Records()
	rawMeasures := make([][]string, len(measures))
	for j, name := range measures {
		rawMeasures[j] = df.Col(name).Records()
	}

	caser := cases.Title(language.Und)

	regions := make([]string, 0, n)
	years := make([]int, 0, n)
	covid := make([]int, 0, n)
	values := make([][]float64, len(measures))
	for j := range values {
		values[j] = make([]float64, 0, n)
	}

	rowValues := make([]float64, len(measures))
	for i := 0; i < n; i++ {
		var missing []string

		year, yearOK := ParseYear(rawYear[i])
		inCovid := 0
		if yearOK && year >= p.opts.CovidStartYear && year <= p.opts.CovidEndYear {
			inCovid = 1
		}

		trimmed := strings.TrimSpace(rawRegion[i])
		if IsMissing(trimmed) {
			missing = append(missing, ColRegion)
		}
		region := caser.String(trimmed)
		if !yearOK {
			missing = append(missing, ColYear)
		}

		for j, name := range measures {
			v, ok := ParseNumeric(rawMeasures[j][i], p.opts.DecimalSeparator)
			if !ok {
				missing = append(missing, name)
			}
			rowValues[j] = v
		}

		if len(missing) > 0 {
			stats.RowsDropped++
			for _, col := range missing {
				stats.DroppedByColumn[col]++
			}
			p.logger.DebugContext(ctx, "Dropping incomplete row",
				slog.Int("row", i+1),
				slog.Any("missing", missing))
			continue
		}

		regions = append(regions, region)
		years = append(years, year)
		covid = append(covid, inCovid)
		for j := range measures {
			values[j] = append(values[j], rowValues[j])
		}
	}

	columns := make([]series.Series, 0, len(measures)+3)
	columns = append(columns,
		series.New(regions, series.String, ColRegion),
		series.New(years, series.Int, ColYear))
	for j, name := range measures {
		columns = append(columns, series.New(values[j], series.Float, name))
	}
	columns = append(columns, series.New(covid, series.Int, ColCovidPeriod))

	clean := dataframe.New(columns...)
	if clean.Err != nil {
		return dataframe.DataFrame{}, stats, apperrors.NewParsingError("failed to build cleaned table", clean.Err)
	}

	stats.RowsOut = len(regions)
	stats.Regions = uniqueSorted(regions)
	stats.Years = uniqueSortedInts(years)
	stats.Columns = clean.Names()

	p.logger.InfoContext(ctx, "Preprocessing complete",
		slog.Int("rows_in", stats.RowsIn),
		slog.Int("rows_out", stats.RowsOut),
		slog.Int("rows_dropped", stats.RowsDropped),
		slog.Int("regions", len(stats.Regions)),
		slog.Int("years", len(stats.Years)))

	if stats.RowsDropped > 0 {
		p.logger.WarnContext(ctx, "Rows dropped during preprocessing",
			slog.Int("rows_dropped", stats.RowsDropped),
			slog.Any("dropped_by_column", stats.DroppedByColumn))
	}

	return clean, stats, nil
}

func missingColumns(have, want []string) []string {
	present := make(map[string]bool, len(have))
	for _, name := range have {
		present[name] = true
	}
	var missing []string
	for _, name := range want {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func uniqueSortedInts(values []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
