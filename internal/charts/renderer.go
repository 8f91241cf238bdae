package charts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// Options controls what is drawn and how large
type Options struct {
	// Regions plotted in the mortality trend; empty plots every region
	Regions              []string
	ExcludedCoefficients []string
	Significance         float64
	GDPYear              int
	Thresholds           Thresholds
	Width                vg.Length
	Height               vg.Length
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		Regions:              append([]string(nil), config.DefaultRegions...),
		ExcludedCoefficients: append([]string(nil), config.DefaultExcludedCoefficients...),
		Significance:         config.DefaultSignificance,
		GDPYear:              config.DefaultGDPYear,
		Thresholds:           DefaultThresholds(),
		Width:                config.DefaultChartWidth * vg.Inch,
		Height:               config.DefaultChartHeight * vg.Inch,
	}
}

// OptionsFromConfig converts the plot section of the configuration
func OptionsFromConfig(cfg config.PlotConfig) Options {
	return Options{
		Regions:              append([]string(nil), cfg.Regions...),
		ExcludedCoefficients: append([]string(nil), cfg.ExcludedCoefficients...),
		Significance:         cfg.Significance,
		GDPYear:              cfg.GDPYear,
		Thresholds:           Thresholds{High: cfg.GDPHighThreshold, Mid: cfg.GDPMidThreshold},
		Width:                vg.Length(cfg.WidthInches) * vg.Inch,
		Height:               vg.Length(cfg.HeightInches) * vg.Inch,
	}
}

// Renderer writes charts into one directory
type Renderer struct {
	dir    string
	opts   Options
	logger *slog.Logger
}

// NewRenderer creates a renderer writing into dir
func NewRenderer(dir string, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Width <= 0 {
		opts.Width = config.DefaultChartWidth * vg.Inch
	}
	if opts.Height <= 0 {
		opts.Height = config.DefaultChartHeight * vg.Inch
	}
	if opts.Significance <= 0 {
		opts.Significance = config.DefaultSignificance
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	return &Renderer{dir: dir, opts: opts, logger: logger}
}

// Dir returns the output directory
func (r *Renderer) Dir() string { return r.dir }

// RenderAll draws the coefficient, mortality trend and GDP charts in that
// order and returns the written paths. It stops at the first failure.
func (r *Renderer) RenderAll(ctx context.Context, df dataframe.DataFrame, result *panel.Result) ([]string, error) {
	steps := []func() (string, error){
		func() (string, error) { return r.CoefficientChart(ctx, result) },
		func() (string, error) { return r.MortalityTrend(ctx, df) },
		func() (string, error) { return r.GDPChart(ctx, df) },
	}

	var written []string
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := step()
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// save writes p as a PNG named name, creating the directory if needed
func (r *Renderer) save(ctx context.Context, p *plot.Plot, name, chart string) (string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to create figures directory %s", r.dir), err)
	}

	path := filepath.Join(r.dir, name)
	if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
		return "", apperrors.NewRenderError(fmt.Sprintf("failed to save %s chart", chart), err).
			WithContext("path", path)
	}

	r.logger.InfoContext(ctx, "Chart rendered",
		slog.String("chart", chart),
		slog.String("path", path))
	return path, nil
}
