package charts

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

// GDPChartFile returns the file name of the GDP chart for year
func GDPChartFile(year int) string {
	return fmt.Sprintf(config.GDPChartFilePattern, year)
}

// GDPChart draws mean GDP per capita per region for the configured year,
// coloured by threshold band
func (r *Renderer) GDPChart(ctx context.Context, df dataframe.DataFrame) (string, error) {
	means, err := RegionMeans(df, dataprocessing.ColGDPPerCapita, r.opts.GDPYear)
	if err != nil {
		return "", err
	}
	if len(means) == 0 {
		return "", apperrors.NewRenderError(fmt.Sprintf("no GDP per capita data for %d", r.opts.GDPYear), nil).
			WithContext("year", r.opts.GDPYear)
	}

	p, err := gdpPlot(means, r.opts.GDPYear, r.opts.Thresholds)
	if err != nil {
		return "", err
	}
	return r.save(ctx, p, GDPChartFile(r.opts.GDPYear), "gdp_per_capita")
}

func gdpPlot(means []RegionValue, year int, t Thresholds) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("GDP per Capita by Region (%d)", year)
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.Text = "GDP per Capita"

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	labels := make([]string, len(means))
	hi := 0.0
	for i, m := range means {
		chart, err := plotter.NewBarChart(plotter.Values{m.Value}, vg.Points(28))
		if err != nil {
			return nil, apperrors.NewRenderError(fmt.Sprintf("failed to build bar for %s", m.Region), err)
		}
		chart.XMin = float64(i)
		chart.Color = BandFor(m.Value, t).Color()
		chart.LineStyle.Color = edgeColor
		chart.LineStyle.Width = vg.Points(0.5)
		p.Add(chart)

		labels[i] = m.Region
		hi = math.Max(hi, m.Value)
	}

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	p.Y.Min = 0
	if hi > 0 {
		p.Y.Max = hi * 1.1
	}
	return p, nil
}
