package charts

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// CoefficientTitle is the heading of the coefficient chart
const CoefficientTitle = "Effect of Variables on Mortality (excluding GDP per capita)"

// CoefficientChart draws one bar per slope, steel blue when significant
func (r *Renderer) CoefficientChart(ctx context.Context, result *panel.Result) (string, error) {
	if result == nil {
		return "", apperrors.NewRenderError("no fitted model to plot", nil)
	}

	bars := CoefficientBars(result.Coefficients(), r.opts.ExcludedCoefficients, r.opts.Significance)
	if len(bars) == 0 {
		return "", apperrors.NewRenderError("no coefficients left to plot after exclusions", nil)
	}

	p, err := coefficientPlot(bars)
	if err != nil {
		return "", err
	}
	return r.save(ctx, p, config.CoefficientChartFile, "coefficients")
}

func coefficientPlot(bars []Bar) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = CoefficientTitle
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.Text = "Coefficient Value"

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Color = gridColor
	grid.Horizontal.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(grid)

	labels := make([]string, len(bars))
	points := make([]plotter.XY, len(bars))
	texts := make([]string, len(bars))
	lo, hi := 0.0, 0.0

	for i, b := range bars {
		chart, err := plotter.NewBarChart(plotter.Values{b.Value}, vg.Points(28))
		if err != nil {
			return nil, apperrors.NewRenderError(fmt.Sprintf("failed to build bar for %s", b.Name), err)
		}
		chart.XMin = float64(i)
		chart.Color = InsignificantColor
		if b.Significant {
			chart.Color = SignificantColor
		}
		chart.LineStyle.Color = edgeColor
		chart.LineStyle.Width = vg.Points(0.5)
		p.Add(chart)

		labels[i] = b.Label
		points[i] = plotter.XY{X: float64(i), Y: b.Value}
		texts[i] = fmt.Sprintf("%.2f", b.Value)
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}

	values, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: texts})
	if err != nil {
		return nil, apperrors.NewRenderError("failed to build value labels", err)
	}
	for i, b := range bars {
		values.TextStyle[i].XAlign = draw.XCenter
		values.TextStyle[i].Font.Size = vg.Points(8)
		if b.Value >= 0 {
			values.TextStyle[i].YAlign = draw.YBottom
		} else {
			values.TextStyle[i].YAlign = draw.YTop
		}
	}
	p.Add(values)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = edgeColor
	zero.Width = vg.Points(0.8)
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(zero)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	// Headroom for the value labels
	span := hi - lo
	if span == 0 {
		span = 1
	}
	p.Y.Min = lo - 0.1*span
	p.Y.Max = hi + 0.1*span

	return p, nil
}
