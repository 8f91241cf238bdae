package charts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot/plotter"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// NotSignificantSuffix marks bars whose p-value is not below alpha
const NotSignificantSuffix = " (n.s.)"

// Bar is one coefficient bar
type Bar struct {
	Name        string
	Label       string
	Value       float64
	Significant bool
}

// CoefficientBars drops the intercept and the excluded names and marks
// significance at alpha. Order follows coefs.
func CoefficientBars(coefs []panel.Coefficient, excluded []string, alpha float64) []Bar {
	skip := map[string]bool{panel.ConstName: true}
	for _, name := range excluded {
		skip[name] = true
	}

	var bars []Bar
	for _, c := range coefs {
		if skip[c.Name] {
			continue
		}
		bar := Bar{
			Name:        c.Name,
			Label:       c.Name,
			Value:       c.Estimate,
			Significant: c.Significant(alpha),
		}
		if !bar.Significant {
			bar.Label += NotSignificantSuffix
		}
		bars = append(bars, bar)
	}
	return bars
}

// RegionValue is a per-region aggregate
type RegionValue struct {
	Region string
	Value  float64
}

// RegionMeans averages column per region over the rows of year, sorted by
// value descending then region name
func RegionMeans(df dataframe.DataFrame, column string, year int) ([]RegionValue, error) {
	regions, years, values, err := panelColumns(df, column)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, region := range regions {
		if years[i] != year {
			continue
		}
		sums[region] += values[i]
		counts[region]++
	}

	out := make([]RegionValue, 0, len(sums))
	for region, sum := range sums {
		out = append(out, RegionValue{Region: region, Value: sum / float64(counts[region])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Region < out[j].Region
	})
	return out, nil
}

// RegionLine is one region's yearly mean series
type RegionLine struct {
	Region string
	Points plotter.XYs
}

// RegionSeries builds a yearly mean series of column for each requested
// region, in request order. Requested regions absent from df are returned
// in missing. An empty request selects every region, sorted by name.
func RegionSeries(df dataframe.DataFrame, column string, regions []string) ([]RegionLine, []string, error) {
	names, years, values, err := panelColumns(df, column)
	if err != nil {
		return nil, nil, err
	}

	type cell struct {
		sum   float64
		count int
	}
	byRegion := make(map[string]map[int]*cell)
	for i, region := range names {
		yearly, ok := byRegion[region]
		if !ok {
			yearly = make(map[int]*cell)
			byRegion[region] = yearly
		}
		c, ok := yearly[years[i]]
		if !ok {
			c = &cell{}
			yearly[years[i]] = c
		}
		c.sum += values[i]
		c.count++
	}

	if len(regions) == 0 {
		for region := range byRegion {
			regions = append(regions, region)
		}
		sort.Strings(regions)
	}

	var lines []RegionLine
	var missing []string
	for _, region := range regions {
		yearly, ok := byRegion[region]
		if !ok {
			missing = append(missing, region)
			continue
		}
		keys := make([]int, 0, len(yearly))
		for y := range yearly {
			keys = append(keys, y)
		}
		sort.Ints(keys)

		pts := make(plotter.XYs, len(keys))
		for i, y := range keys {
			pts[i].X = float64(y)
			pts[i].Y = yearly[y].sum / float64(yearly[y].count)
		}
		lines = append(lines, RegionLine{Region: region, Points: pts})
	}
	return lines, missing, nil
}

func panelColumns(df dataframe.DataFrame, column string) ([]string, []int, []float64, error) {
	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	var absent []string
	for _, name := range []string{dataprocessing.ColRegion, dataprocessing.ColYear, column} {
		if !present[name] {
			absent = append(absent, name)
		}
	}
	if len(absent) > 0 {
		return nil, nil, nil, apperrors.NewValidationError(
			fmt.Sprintf("chart data is missing columns %s", strings.Join(absent, ", ")))
	}

	years, err := df.Col(dataprocessing.ColYear).Int()
	if err != nil {
		return nil, nil, nil, apperrors.NewValidationError(fmt.Sprintf("year column must be integral: %v", err))
	}
	return df.Col(dataprocessing.ColRegion).Records(), years, df.Col(column).Float(), nil
}
