package charts

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

// MortalityTitle is the heading of the trend chart
const MortalityTitle = "Mortality Over Time by Region"

// MortalityTrend draws yearly mean mortality for each configured region.
// Regions missing from df are logged and skipped.
func (r *Renderer) MortalityTrend(ctx context.Context, df dataframe.DataFrame) (string, error) {
	lines, missing, err := RegionSeries(df, dataprocessing.ColMortality, r.opts.Regions)
	if err != nil {
		return "", err
	}
	for _, region := range missing {
		r.logger.WarnContext(ctx, "Region not found in data, skipping",
			slog.String("region", region))
	}
	if len(lines) == 0 {
		return "", apperrors.NewRenderError("none of the requested regions are present in the data", nil).
			WithContext("regions", r.opts.Regions)
	}

	p, err := trendPlot(lines)
	if err != nil {
		return "", err
	}
	return r.save(ctx, p, config.MortalityTrendFile, "mortality_trend")
}

func trendPlot(lines []RegionLine) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = MortalityTitle
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Mortality"
	p.Legend.Top = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	args := make([]interface{}, 0, 2*len(lines))
	first, last := math.Inf(1), math.Inf(-1)
	for _, line := range lines {
		args = append(args, line.Region, line.Points)
		for _, pt := range line.Points {
			first = math.Min(first, pt.X)
			last = math.Max(last, pt.X)
		}
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return nil, apperrors.NewRenderError("failed to add region lines", err)
	}

	p.X.Tick.Marker = yearTicks(int(first), int(last))
	return p, nil
}

// yearTicks labels every year between first and last inclusive
func yearTicks(first, last int) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, 0, last-first+1)
	for y := first; y <= last; y++ {
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}
	return ticks
}
