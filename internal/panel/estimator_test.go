package panel

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/shared/testutil"
)

func cleanedPanel(t *testing.T, spec testutil.PanelSpec) dataframe.DataFrame {
	t.Helper()
	raw, err := dataprocessing.LoadCSV(strings.NewReader(testutil.PanelCSV(spec)), dataprocessing.LoadOptions{})
	require.NoError(t, err)
	clean, err := dataprocessing.Preprocess(raw)
	require.NoError(t, err)
	return clean
}

func fit(t *testing.T, df dataframe.DataFrame, opts Options) (*Result, error) {
	t.Helper()
	return NewEstimator(opts, slog.New(slog.NewTextHandler(io.Discard, nil))).Fit(context.Background(), df)
}

func TestFit_RecoversCoefficients(t *testing.T) {
	spec := testutil.DefaultPanelSpec()
	df := cleanedPanel(t, spec)

	res, err := fit(t, df, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 45, res.NObs())
	assert.Equal(t, 5, res.Entities())
	assert.Equal(t, 9, res.TimePeriods())
	assert.Equal(t, 45-9-4, res.DFResid())
	assert.Equal(t, 8, res.DFModel())

	minObs, avgObs, maxObs := res.Periods()
	assert.Equal(t, 9, minObs)
	assert.Equal(t, 9, maxObs)
	assert.InDelta(t, 9.0, avgObs, 1e-12)

	want := map[string]float64{}
	for name, v := range spec.Coefficients {
		want[name] = v
	}
	want[dataprocessing.ColCovidPeriod] = spec.CovidEffect

	for name, v := range want {
		got, ok := res.Param(name)
		require.True(t, ok, name)
		assert.InEpsilon(t, v, got, 0.05, name)
	}

	// Balanced panel: const is the intercept plus the mean region effect
	c, ok := res.Param(ConstName)
	require.True(t, ok)
	assert.InDelta(t, spec.Intercept+1.0, c, 0.05)

	assert.Greater(t, res.RSquaredWithin(), 0.99)
	assert.Greater(t, res.RSquaredOverall(), 0.5)
	assert.Less(t, res.RSquaredOverall(), res.RSquaredWithin())
	assert.False(t, math.IsNaN(res.RSquaredBetween()))
	assert.Equal(t, res.RSquaredWithin(), res.RSquared())

	f := res.FStatistic()
	assert.True(t, f.Valid())
	assert.Equal(t, 8, f.DF1)
	assert.Equal(t, 32, f.DF2)
	assert.Less(t, f.PValue, 1e-6)

	pool := res.Poolability()
	assert.True(t, pool.Valid())
	assert.Equal(t, 4, pool.DF1)
	assert.Less(t, pool.PValue, 1e-6)

	assert.Equal(t, []string{"Entity"}, res.IncludedEffects())
}

func TestFit_CoefficientOrderAndInference(t *testing.T) {
	df := cleanedPanel(t, testutil.DefaultPanelSpec())
	opts := DefaultOptions()

	res, err := fit(t, df, opts)
	require.NoError(t, err)

	assert.Equal(t, append([]string{ConstName}, opts.Covariates...), res.Names())
	assert.Len(t, res.Params(), 9)
	assert.Len(t, res.StdErrors(), 9)
	assert.Len(t, res.TStats(), 9)
	assert.Len(t, res.PValues(), 9)

	for _, c := range res.Coefficients() {
		assert.Greater(t, c.StdError, 0.0, c.Name)
		assert.InDelta(t, c.Estimate/c.StdError, c.TStat, 1e-9, c.Name)
		assert.GreaterOrEqual(t, c.PValue, 0.0, c.Name)
		assert.LessOrEqual(t, c.PValue, 1.0, c.Name)
		assert.Less(t, c.Lower, c.Estimate, c.Name)
		assert.Greater(t, c.Upper, c.Estimate, c.Name)
	}

	age, _ := res.Coefficient(dataprocessing.ColAge65Plus)
	assert.True(t, age.Significant(0.05))

	opts.ConfidenceLevel = 0.99
	wide, err := fit(t, df, opts)
	require.NoError(t, err)
	narrow, _ := res.Coefficient(dataprocessing.ColPollution)
	broad, _ := wide.Coefficient(dataprocessing.ColPollution)
	assert.Less(t, broad.Lower, narrow.Lower)
	assert.Greater(t, broad.Upper, narrow.Upper)
	assert.Equal(t, narrow.Estimate, broad.Estimate)
}

// withinOLS fits the entity demeaned regression directly through the
// normal equations and returns the SSR with (X'X)^-1.
func withinOLS(t *testing.T, df dataframe.DataFrame, opts Options) (ssr float64, xtxInv *mat.Dense, entities int) {
	t.Helper()
	regions := df.Col(dataprocessing.ColRegion).Records()
	group := make(map[string]int)
	for _, r := range regions {
		if _, ok := group[r]; !ok {
			group[r] = len(group)
		}
	}
	n := len(regions)
	within := func(v []float64) []float64 {
		sums := make([]float64, len(group))
		counts := make([]float64, len(group))
		grand := 0.0
		for i, r := range regions {
			sums[group[r]] += v[i]
			counts[group[r]]++
			grand += v[i]
		}
		grand /= float64(n)
		out := make([]float64, n)
		for i, r := range regions {
			g := group[r]
			out[i] = v[i] - sums[g]/counts[g] + grand
		}
		return out
	}

	var cols [][]float64
	if opts.Constant {
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		cols = append(cols, ones)
	}
	for _, c := range opts.Covariates {
		cols = append(cols, within(df.Col(c).Float()))
	}
	k := len(cols)
	x := mat.NewDense(n, k, nil)
	for j, col := range cols {
		for i, v := range col {
			x.Set(i, j, v)
		}
	}
	y := mat.NewVecDense(n, within(df.Col(opts.Dependent).Float()))

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	xtxInv = new(mat.Dense)
	require.NoError(t, xtxInv.Inverse(&xtx))

	var xty, beta, fitted mat.VecDense
	xty.MulVec(x.T(), y)
	beta.MulVec(xtxInv, &xty)
	fitted.MulVec(x, &beta)
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - fitted.AtVec(i)
		ssr += d * d
	}
	return ssr, xtxInv, len(group)
}

func TestFit_CovarianceScaling(t *testing.T) {
	df := cleanedPanel(t, testutil.DefaultPanelSpec())
	base := DefaultOptions()
	ssr, xtxInv, entities := withinOLS(t, df, base)
	n := df.Nrow()
	k := len(base.Covariates) + 1

	tests := []struct {
		name     string
		debiased bool
		divisor  int
		dist     distribution
	}{
		{"unadjusted", false, n - (entities - 1), distuv.UnitNormal},
		{"debiased", true, n - k - (entities - 1), distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - k - (entities - 1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			opts.Debiased = tt.debiased
			res, err := fit(t, df, opts)
			require.NoError(t, err)

			assert.Equal(t, tt.debiased, res.Debiased())
			assert.InEpsilon(t, ssr, res.SSR(), 1e-8)
			s2 := ssr / float64(tt.divisor)
			q := tt.dist.Quantile(0.975)
			for i, c := range res.Coefficients() {
				want := math.Sqrt(s2 * xtxInv.At(i, i))
				assert.InEpsilon(t, want, c.StdError, 1e-6, c.Name)
				assert.InDelta(t, 2*tt.dist.CDF(-math.Abs(c.TStat)), c.PValue, 1e-12, c.Name)
				assert.InDelta(t, c.Estimate+q*c.StdError, c.Upper, 1e-9, c.Name)
			}
		})
	}

	unadj, err := fit(t, df, base)
	require.NoError(t, err)
	opts := base
	opts.Debiased = true
	deb, err := fit(t, df, opts)
	require.NoError(t, err)

	ratio := math.Sqrt(float64(n-(entities-1)) / float64(n-k-(entities-1)))
	for i, c := range deb.Coefficients() {
		u := unadj.Coefficients()[i]
		assert.InEpsilon(t, ratio, c.StdError/u.StdError, 1e-9, c.Name)
		assert.Equal(t, u.Estimate, c.Estimate, c.Name)
		assert.Greater(t, c.Upper-c.Lower, u.Upper-u.Lower, c.Name)
	}
	assert.Equal(t, unadj.FStatistic(), deb.FStatistic())
	assert.Contains(t, deb.Summary(), "Unadjusted (debiased)")
	assert.NotContains(t, unadj.Summary(), "debiased")
}

func TestFit_SingleRegion(t *testing.T) {
	spec := testutil.DefaultPanelSpec()
	spec.Regions = []string{"Mazowieckie"}
	spec.Years = 12

	res, err := fit(t, cleanedPanel(t, spec), DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, res.Coefficients(), 9)
	assert.Equal(t, 1, res.Entities())
	assert.Equal(t, 12-9, res.DFResid())
	assert.True(t, math.IsNaN(res.RSquaredBetween()))
	assert.False(t, res.Poolability().Valid())
}

func TestFit_WithoutConstant(t *testing.T) {
	opts := DefaultOptions()
	opts.Constant = false

	res, err := fit(t, cleanedPanel(t, testutil.DefaultPanelSpec()), opts)
	require.NoError(t, err)

	assert.Equal(t, opts.Covariates, res.Names())
	_, ok := res.Coefficient(ConstName)
	assert.False(t, ok)
	assert.Equal(t, 45-8-4, res.DFResid())
}

func TestFit_ShuffledInputGivesSameResult(t *testing.T) {
	df := cleanedPanel(t, testutil.DefaultPanelSpec())

	reversed := make([]int, df.Nrow())
	for i := range reversed {
		reversed[i] = df.Nrow() - 1 - i
	}
	shuffled := df.Subset(reversed)
	require.NoError(t, shuffled.Err)

	a, err := fit(t, df, DefaultOptions())
	require.NoError(t, err)
	b, err := fit(t, shuffled, DefaultOptions())
	require.NoError(t, err)
	again, err := fit(t, df, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a.Params(), b.Params())
	assert.Equal(t, a.StdErrors(), b.StdErrors())
	assert.Equal(t, a.Params(), again.Params())
	assert.Equal(t, a.Summary(), again.Summary())
}

func TestFit_Errors(t *testing.T) {
	base := cleanedPanel(t, testutil.DefaultPanelSpec())

	onePeriod := testutil.DefaultPanelSpec()
	onePeriod.Years = 1

	tooShort := testutil.DefaultPanelSpec()
	tooShort.Regions = []string{"Mazowieckie"}
	tooShort.Years = 5

	area := make([]float64, base.Nrow())
	for i, region := range base.Col(dataprocessing.ColRegion).Records() {
		area[i] = float64(100 * (len(region) % 7))
	}
	withArea := base.Mutate(series.New(area, series.Float, "area"))
	require.NoError(t, withArea.Err)

	tests := []struct {
		name     string
		df       dataframe.DataFrame
		opts     func(Options) Options
		wantType apperrors.ErrorType
		contains string
	}{
		{
			name:     "missing covariate column",
			df:       base.Drop(dataprocessing.ColPollution),
			wantType: apperrors.ErrTypeValidation,
			contains: "pollution",
		},
		{
			name: "no covariates",
			df:   base,
			opts: func(o Options) Options {
				o.Covariates = nil
				return o
			},
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "dependent listed as covariate",
			df:   base,
			opts: func(o Options) Options {
				o.Covariates = append(o.Covariates, o.Dependent)
				return o
			},
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "duplicate region and year",
			df:       base.RBind(base),
			wantType: apperrors.ErrTypeValidation,
			contains: "duplicate",
		},
		{
			name:     "single period per region",
			df:       cleanedPanel(t, onePeriod),
			wantType: apperrors.ErrTypeModel,
			contains: "within-region variation",
		},
		{
			name:     "too few observations",
			df:       cleanedPanel(t, tooShort),
			wantType: apperrors.ErrTypeModel,
			contains: "degrees of freedom",
		},
		{
			name: "time invariant covariate",
			df:   withArea,
			opts: func(o Options) Options {
				o.Covariates = append(o.Covariates, "area")
				return o
			},
			wantType: apperrors.ErrTypeModel,
			contains: "rank deficient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				opts = tt.opts(opts)
			}
			res, err := fit(t, tt.df, opts)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestFit_RankDeficiencyNamesColumn(t *testing.T) {
	base := cleanedPanel(t, testutil.DefaultPanelSpec())
	flat := make([]float64, base.Nrow())
	for i := range flat {
		flat[i] = 3
	}
	df := base.Mutate(series.New(flat, series.Float, "constant_column"))

	opts := DefaultOptions()
	opts.Covariates = append(opts.Covariates, "constant_column")

	_, err := fit(t, df, opts)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"constant_column"}, appErr.Context["no_within_variation"])
}

func TestFit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEstimator(DefaultOptions(), nil).Fit(ctx, cleanedPanel(t, testutil.DefaultPanelSpec()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFit_Logging(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	_, err := NewEstimator(DefaultOptions(), logger).Fit(context.Background(), cleanedPanel(t, testutil.DefaultPanelSpec()))
	require.NoError(t, err)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "panel estimation complete")
	testutil.AssertLogAttr(t, handler, "entities", 5)
	testutil.AssertNoErrors(t, handler)
}

func TestFitPanelModel(t *testing.T) {
	res, err := FitPanelModel(context.Background(), cleanedPanel(t, testutil.DefaultPanelSpec()))
	require.NoError(t, err)
	assert.Equal(t, dataprocessing.ColMortality, res.Dependent())
	assert.Equal(t, DefaultConfidenceLevel, res.ConfidenceLevel())
}

func TestNewEstimator_CopiesCovariates(t *testing.T) {
	opts := DefaultOptions()
	est := NewEstimator(opts, nil)
	opts.Covariates[0] = "changed"
	assert.Equal(t, dataprocessing.ColUnemploymentRate, est.opts.Covariates[0])
}

func TestSummary(t *testing.T) {
	res, err := fit(t, cleanedPanel(t, testutil.DefaultPanelSpec()), DefaultOptions())
	require.NoError(t, err)

	summary := res.Summary()
	for _, want := range []string{
		"PanelOLS Estimation Summary",
		"Dep. Variable:",
		"mortality",
		"No. Observations:",
		"Entities:",
		"R-squared (Within):",
		"F(8,32)",
		"Parameter Estimates",
		"const",
		"covid_period",
		"F-test for Poolability:",
		"Distribution: F(4,32)",
		"Included effects: Entity",
	} {
		assert.Contains(t, summary, want)
	}
	assert.NotContains(t, summary, "Confidence level:")
	assert.Equal(t, summary, res.String())
}

func TestSummaryFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0000"},
		{1.23456, "1.2346"},
		{-0.5, "-0.5000"},
		{0.00001234, "1.234e-05"},
		{1234567, "1.235e+06"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, summaryFloat(tt.in))
	}
}

func TestSaveCoefficientsCSV(t *testing.T) {
	res, err := fit(t, cleanedPanel(t, testutil.DefaultPanelSpec()), DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reports", "coefficients.csv")
	require.NoError(t, SaveCoefficientsCSV(res, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 10)
	assert.Equal(t, []string{"variable", "coefficient", "std_error", "t_stat", "p_value", "ci_lower", "ci_upper"}, records[0])
	assert.Equal(t, ConstName, records[1][0])
	assert.Equal(t, dataprocessing.ColCovidPeriod, records[9][0])

	assert.Error(t, SaveCoefficientsCSV(nil, path))
}

func TestSaveSummaryReport(t *testing.T) {
	res, err := fit(t, cleanedPanel(t, testutil.DefaultPanelSpec()), DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model_summary.txt")
	require.NoError(t, SaveSummaryReport(res, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Summary(), string(data))
}
