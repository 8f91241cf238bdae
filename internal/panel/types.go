package panel

import (
	"math"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
)

// ConstName labels the intercept
const ConstName = "const"

// DefaultConfidenceLevel is used when Options.ConfidenceLevel is zero
const DefaultConfidenceLevel = 0.95

// Options specifies the regression
type Options struct {
	Dependent  string
	Covariates []string
	// Constant adds an intercept, identified through the grand mean
	Constant        bool
	ConfidenceLevel float64
	// Debiased scales the residual variance by the parameter count as well as
	// the absorbed effects and uses Student's t for inference. The default is
	// the unadjusted estimator: s2 = SSR / (nobs - absorbed effects) with
	// normal p-values and intervals.
	Debiased bool
}

// DefaultOptions regresses mortality on the full covariate set with an intercept
func DefaultOptions() Options {
	return Options{
		Dependent: dataprocessing.ColMortality,
		Covariates: []string{
			dataprocessing.ColUnemploymentRate,
			dataprocessing.ColUrbanization,
			dataprocessing.ColGDPPerCapita,
			dataprocessing.ColAvgSalary,
			dataprocessing.ColDoctorsPer10k,
			dataprocessing.ColPollution,
			dataprocessing.ColAge65Plus,
			dataprocessing.ColCovidPeriod,
		},
		Constant:        true,
		ConfidenceLevel: DefaultConfidenceLevel,
	}
}

// Coefficient is one estimated parameter
type Coefficient struct {
	Name     string
	Estimate float64
	StdError float64
	TStat    float64
	PValue   float64
	Lower    float64
	Upper    float64
}

// Significant reports whether the p-value is below alpha
func (c Coefficient) Significant(alpha float64) bool {
	return !math.IsNaN(c.PValue) && c.PValue < alpha
}

// FTest is an F statistic with its degrees of freedom
type FTest struct {
	Stat   float64
	PValue float64
	DF1    int
	DF2    int
}

// Valid reports whether the test could be computed
func (f FTest) Valid() bool {
	return f.DF1 > 0 && f.DF2 > 0 && !math.IsNaN(f.Stat)
}

// Result is an immutable fitted model
type Result struct {
	dependent       string
	coefficients    []Coefficient
	nobs            int
	entities        int
	timePeriods     int
	minPeriods      int
	maxPeriods      int
	avgPeriods      float64
	dfResid         int
	dfModel         int
	ssr             float64
	rsqWithin       float64
	rsqBetween      float64
	rsqOverall      float64
	fStat           FTest
	poolability     FTest
	confidenceLevel float64
	debiased        bool
	included        []string
}

// Dependent returns the dependent variable name
func (r *Result) Dependent() string { return r.dependent }

// Coefficients returns the estimates, intercept first, then covariates in request order
func (r *Result) Coefficients() []Coefficient {
	return append([]Coefficient(nil), r.coefficients...)
}

// Coefficient looks up one estimate by name
func (r *Result) Coefficient(name string) (Coefficient, bool) {
	for _, c := range r.coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Names returns the parameter names in order
func (r *Result) Names() []string {
	names := make([]string, len(r.coefficients))
	for i, c := range r.coefficients {
		names[i] = c.Name
	}
	return names
}

// Params returns the estimates in Names order
func (r *Result) Params() []float64 {
	return r.column(func(c Coefficient) float64 { return c.Estimate })
}

// Param returns the estimate for name
func (r *Result) Param(name string) (float64, bool) {
	c, ok := r.Coefficient(name)
	return c.Estimate, ok
}

// StdErrors returns the standard errors in Names order
func (r *Result) StdErrors() []float64 {
	return r.column(func(c Coefficient) float64 { return c.StdError })
}

// TStats returns the t statistics in Names order
func (r *Result) TStats() []float64 {
	return r.column(func(c Coefficient) float64 { return c.TStat })
}

// PValues returns the two-sided p-values in Names order
func (r *Result) PValues() []float64 {
	return r.column(func(c Coefficient) float64 { return c.PValue })
}

func (r *Result) column(f func(Coefficient) float64) []float64 {
	out := make([]float64, len(r.coefficients))
	for i, c := range r.coefficients {
		out[i] = f(c)
	}
	return out
}

// NObs returns the number of observations used
func (r *Result) NObs() int { return r.nobs }

// Entities returns the number of regions
func (r *Result) Entities() int { return r.entities }

// TimePeriods returns the number of distinct years
func (r *Result) TimePeriods() int { return r.timePeriods }

// Periods returns the minimum, average and maximum observations per region
func (r *Result) Periods() (minObs int, avgObs float64, maxObs int) {
	return r.minPeriods, r.avgPeriods, r.maxPeriods
}

// DFResid returns the residual degrees of freedom
func (r *Result) DFResid() int { return r.dfResid }

// DFModel returns the number of slope parameters
func (r *Result) DFModel() int { return r.dfModel }

// SSR returns the sum of squared within residuals
func (r *Result) SSR() float64 { return r.ssr }

// RSquared returns the within R-squared
func (r *Result) RSquared() float64 { return r.rsqWithin }

// RSquaredWithin returns the R-squared of the demeaned regression
func (r *Result) RSquaredWithin() float64 { return r.rsqWithin }

// RSquaredBetween returns the R-squared of region means
func (r *Result) RSquaredBetween() float64 { return r.rsqBetween }

// RSquaredOverall returns the R-squared of the pooled fitted values
func (r *Result) RSquaredOverall() float64 { return r.rsqOverall }

// FStatistic returns the joint significance test of the slopes
func (r *Result) FStatistic() FTest { return r.fStat }

// Poolability returns the F-test of the region effects against pooled OLS
func (r *Result) Poolability() FTest { return r.poolability }

// ConfidenceLevel returns the level of the reported intervals
func (r *Result) ConfidenceLevel() float64 { return r.confidenceLevel }

// Debiased reports whether inference used the small sample correction.
func (r *Result) Debiased() bool { return r.debiased }

// IncludedEffects lists the fixed effects in the model
func (r *Result) IncludedEffects() []string { return append([]string(nil), r.included...) }

// CoefficientTable returns a header and one string row per coefficient
func (r *Result) CoefficientTable() ([]string, [][]string) {
	header := []string{"variable", "coefficient", "std_error", "t_stat", "p_value", "ci_lower", "ci_upper"}
	rows := make([][]string, len(r.coefficients))
	for i, c := range r.coefficients {
		rows[i] = []string{
			c.Name,
			formatFloat(c.Estimate),
			formatFloat(c.StdError),
			formatFloat(c.TStat),
			formatFloat(c.PValue),
			formatFloat(c.Lower),
			formatFloat(c.Upper),
		}
	}
	return header, rows
}
