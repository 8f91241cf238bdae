package charts

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
	"github.com/kotfilip/ds-consulting-project/internal/shared/testutil"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func fittedPanel(t *testing.T) (dataframe.DataFrame, *panel.Result) {
	t.Helper()
	raw, err := dataprocessing.LoadCSV(strings.NewReader(testutil.PanelCSV(testutil.DefaultPanelSpec())), dataprocessing.LoadOptions{})
	require.NoError(t, err)
	df, err := dataprocessing.Preprocess(raw)
	require.NoError(t, err)
	result, err := panel.FitPanelModel(context.Background(), df)
	require.NoError(t, err)
	return df, result
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func TestRenderAll(t *testing.T) {
	df, result := fittedPanel(t)
	dir := filepath.Join(t.TempDir(), "figures", "nested")
	logger, handler := testutil.NewTestLogger(t)

	r := NewRenderer(dir, DefaultOptions(), logger)
	paths, err := r.RenderAll(context.Background(), df, result)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, config.CoefficientChartFile),
		filepath.Join(dir, config.MortalityTrendFile),
		filepath.Join(dir, "gdp_per_capita_2023.png"),
	}, paths)
	for _, p := range paths {
		assertPNG(t, p)
	}

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Chart rendered")
	testutil.AssertNoErrors(t, handler)
}

func TestMortalityTrend_MissingRegions(t *testing.T) {
	df, _ := fittedPanel(t)
	logger, handler := testutil.NewTestLogger(t)

	opts := DefaultOptions()
	opts.Regions = []string{"Mazowieckie", "Atlantis"}
	r := NewRenderer(t.TempDir(), opts, logger)

	path, err := r.MortalityTrend(context.Background(), df)
	require.NoError(t, err)
	assertPNG(t, path)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Region not found in data, skipping")
	testutil.AssertLogAttr(t, handler, "region", "Atlantis")

	opts.Regions = []string{"Atlantis"}
	_, err = NewRenderer(t.TempDir(), opts, logger).MortalityTrend(context.Background(), df)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeRender))
}

func TestGDPChart_Year(t *testing.T) {
	df, _ := fittedPanel(t)

	opts := DefaultOptions()
	opts.GDPYear = 2016
	dir := t.TempDir()
	path, err := NewRenderer(dir, opts, nil).GDPChart(context.Background(), df)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gdp_per_capita_2016.png"), path)
	assertPNG(t, path)

	opts.GDPYear = 1990
	_, err = NewRenderer(dir, opts, nil).GDPChart(context.Background(), df)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeRender))
}

func TestCoefficientChart_Errors(t *testing.T) {
	_, result := fittedPanel(t)
	r := NewRenderer(t.TempDir(), DefaultOptions(), nil)

	_, err := r.CoefficientChart(context.Background(), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeRender))

	opts := DefaultOptions()
	opts.ExcludedCoefficients = result.Names()
	_, err = NewRenderer(t.TempDir(), opts, nil).CoefficientChart(context.Background(), result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeRender))
}

func TestNewRenderer_Defaults(t *testing.T) {
	r := NewRenderer("out", Options{}, nil)
	assert.Equal(t, "out", r.Dir())
	assert.Equal(t, DefaultThresholds(), r.opts.Thresholds)
	assert.Equal(t, config.DefaultSignificance, r.opts.Significance)
	assert.Greater(t, float64(r.opts.Width), 0.0)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Plot
	cfg.GDPHighThreshold = 100
	cfg.GDPMidThreshold = 50
	cfg.Regions = []string{"A"}

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, Thresholds{High: 100, Mid: 50}, opts.Thresholds)
	assert.Equal(t, []string{"A"}, opts.Regions)
	assert.Equal(t, DefaultOptions().Width, opts.Width)
}
