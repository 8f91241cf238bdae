package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

var errRankDeficient = errors.New("design matrix is rank deficient")

// Estimator fits entity fixed-effects models
type Estimator struct {
	opts   Options
	logger *slog.Logger
}

// NewEstimator creates an estimator for the given specification
func NewEstimator(opts Options, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ConfidenceLevel == 0 {
		opts.ConfidenceLevel = DefaultConfidenceLevel
	}
	opts.Covariates = append([]string(nil), opts.Covariates...)
	return &Estimator{opts: opts, logger: logger}
}

// FitPanelModel fits mortality on the default covariates with region effects
func FitPanelModel(ctx context.Context, df dataframe.DataFrame) (*Result, error) {
	return NewEstimator(DefaultOptions(), nil).Fit(ctx, df)
}

// group is a contiguous run of one region's rows after sorting
type group struct {
	region     string
	start, end int
}

func (g group) size() int { return g.end - g.start }

// panelData holds the model columns sorted by (region, year)
type panelData struct {
	years  []int
	y      []float64
	x      [][]float64
	groups []group
}

// Fit estimates the model on a cleaned table. Rows are sorted by
// (region, year) first, so the result does not depend on input order.
func (e *Estimator) Fit(ctx context.Context, df dataframe.DataFrame) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateOptions(e.opts); err != nil {
		return nil, err
	}
	if err := validateColumns(df, e.opts); err != nil {
		return nil, err
	}

	data, err := e.prepare(df)
	if err != nil {
		return nil, err
	}

	n := len(data.y)
	entities := len(data.groups)
	k := len(e.opts.Covariates)
	if e.opts.Constant {
		k++
	}

	e.logger.InfoContext(ctx, "starting panel estimation",
		"dependent", e.opts.Dependent,
		"nobs", n,
		"entities", entities,
		"parameters", k,
	)

	minObs, maxObs := data.groups[0].size(), data.groups[0].size()
	for _, g := range data.groups[1:] {
		minObs = min(minObs, g.size())
		maxObs = max(maxObs, g.size())
	}
	if maxObs < 2 {
		return nil, apperrors.NewModelError("no within-region variation: every region has a single period", nil).
			WithContext("entities", entities)
	}

	dfResid := n - k - (entities - 1)
	if dfResid <= 0 {
		return nil, apperrors.NewModelError(
			fmt.Sprintf("insufficient degrees of freedom: %d observations for %d parameters and %d regions", n, k, entities), nil).
			WithContext("df_resid", dfResid)
	}

	// Within transformation
	yStar, yMeans := demean(data.y, data.groups, e.opts.Constant)
	xStar := make([][]float64, len(data.x))
	xMeans := make([][]float64, len(data.x))
	for j, col := range data.x {
		xStar[j], xMeans[j] = demean(col, data.groups, e.opts.Constant)
	}

	design := buildDesign(xStar, n, e.opts.Constant)
	sol, err := leastSquares(design, yStar)
	if err != nil {
		if errors.Is(err, errRankDeficient) {
			appErr := apperrors.NewModelError("transformed design matrix is rank deficient", err).
				WithContext("rank", sol.rank).
				WithContext("parameters", k)
			if flat := e.withoutVariation(data.x, data.groups); len(flat) > 0 {
				appErr.WithContext("no_within_variation", flat)
			}
			return nil, appErr
		}
		return nil, apperrors.NewModelError("least squares solve failed", err)
	}

	resid := residuals(design, yStar, sol.beta)
	ssr := floats.Dot(resid, resid)
	s2 := ssr / float64(n-(entities-1))
	var dist distribution = distuv.UnitNormal
	if e.opts.Debiased {
		s2 = ssr / float64(dfResid)
		dist = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dfResid)}
	}
	cov := sol.covariance(s2)

	names := e.parameterNames()
	q := dist.Quantile(1 - (1-e.opts.ConfidenceLevel)/2)

	coefs := make([]Coefficient, k)
	for i, name := range names {
		est := sol.beta[i]
		se := math.Sqrt(math.Max(cov.At(i, i), 0))
		t := est / se
		coefs[i] = Coefficient{
			Name:     name,
			Estimate: est,
			StdError: se,
			TStat:    t,
			PValue:   2 * dist.CDF(-math.Abs(t)),
			Lower:    est - q*se,
			Upper:    est + q*se,
		}
	}

	// Goodness of fit
	tssWithin := 0.0
	for _, g := range data.groups {
		mean := floats.Sum(data.y[g.start:g.end]) / float64(g.size())
		for i := g.start; i < g.end; i++ {
			d := data.y[i] - mean
			tssWithin += d * d
		}
	}

	intercept := 0.0
	slopes := sol.beta
	if e.opts.Constant {
		intercept = sol.beta[0]
		slopes = sol.beta[1:]
	}

	dfModel := len(e.opts.Covariates)
	res := &Result{
		dependent:       e.opts.Dependent,
		coefficients:    coefs,
		nobs:            n,
		entities:        entities,
		timePeriods:     countDistinct(data.years),
		minPeriods:      minObs,
		maxPeriods:      maxObs,
		avgPeriods:      float64(n) / float64(entities),
		dfResid:         dfResid,
		dfModel:         dfModel,
		ssr:             ssr,
		rsqWithin:       rsquared(ssr, tssWithin),
		rsqBetween:      betweenRSquared(yMeans, xMeans, intercept, slopes),
		rsqOverall:      overallRSquared(data.y, data.x, intercept, slopes),
		fStat:           fTest((tssWithin-ssr)/float64(dfModel), ssr/float64(dfResid), dfModel, dfResid),
		poolability:     e.poolability(data, ssr, dfResid),
		confidenceLevel: e.opts.ConfidenceLevel,
		debiased:        e.opts.Debiased,
		included:        []string{"Entity"},
	}

	e.logger.InfoContext(ctx, "panel estimation complete",
		"nobs", n,
		"entities", entities,
		"df_resid", dfResid,
		"rsquared_within", res.rsqWithin,
		"duration", time.Since(start),
	)

	return res, nil
}

// prepare extracts, checks and sorts the model columns
func (e *Estimator) prepare(df dataframe.DataFrame) (*panelData, error) {
	n := df.Nrow()
	if n == 0 {
		return nil, apperrors.NewModelError("no observations to fit", nil)
	}

	regions := df.Col(dataprocessing.ColRegion).Records()
	years, err := df.Col(dataprocessing.ColYear).Int()
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("year column must be integral: %v", err))
	}

	y := df.Col(e.opts.Dependent).Float()
	if err := validateFinite(e.opts.Dependent, y); err != nil {
		return nil, err
	}
	x := make([][]float64, len(e.opts.Covariates))
	for j, name := range e.opts.Covariates {
		x[j] = df.Col(name).Float()
		if err := validateFinite(name, x[j]); err != nil {
			return nil, err
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := regions[order[a]], regions[order[b]]
		if ra != rb {
			return ra < rb
		}
		return years[order[a]] < years[order[b]]
	})

	data := &panelData{
		years: make([]int, n),
		y:     make([]float64, n),
		x:     make([][]float64, len(x)),
	}
	for j := range x {
		data.x[j] = make([]float64, n)
	}

	for pos, src := range order {
		if pos > 0 {
			prev := order[pos-1]
			if regions[prev] == regions[src] && years[prev] == years[src] {
				return nil, apperrors.NewValidationError(
					fmt.Sprintf("duplicate observation for region %q in year %d", regions[src], years[src])).
					WithContext("region", regions[src]).
					WithContext("year", years[src])
			}
		}
		if pos == 0 || regions[order[pos-1]] != regions[src] {
			if len(data.groups) > 0 {
				data.groups[len(data.groups)-1].end = pos
			}
			data.groups = append(data.groups, group{region: regions[src], start: pos})
		}

		data.years[pos] = years[src]
		data.y[pos] = y[src]
		for j := range x {
			data.x[j][pos] = x[j][src]
		}
	}
	data.groups[len(data.groups)-1].end = n

	return data, nil
}

func (e *Estimator) parameterNames() []string {
	names := make([]string, 0, len(e.opts.Covariates)+1)
	if e.opts.Constant {
		names = append(names, ConstName)
	}
	return append(names, e.opts.Covariates...)
}

// withoutVariation names the covariates that are constant within every region
func (e *Estimator) withoutVariation(x [][]float64, groups []group) []string {
	var flat []string
	for j, col := range x {
		centered, _ := demean(col, groups, false)
		scale := 1.0
		for _, v := range col {
			scale = math.Max(scale, math.Abs(v))
		}
		if floats.Norm(centered, math.Inf(1)) <= 1e-10*scale {
			flat = append(flat, e.opts.Covariates[j])
		}
	}
	return flat
}

// poolability compares the fixed-effects fit with pooled OLS
func (e *Estimator) poolability(data *panelData, ssr float64, dfResid int) FTest {
	entities := len(data.groups)
	if entities < 2 {
		return FTest{Stat: math.NaN(), PValue: math.NaN()}
	}

	n := len(data.y)
	design := buildDesign(data.x, n, e.opts.Constant)
	sol, err := leastSquares(design, data.y)
	if err != nil {
		return FTest{Stat: math.NaN(), PValue: math.NaN(), DF1: entities - 1, DF2: dfResid}
	}
	resid := residuals(design, data.y, sol.beta)
	ssrPooled := floats.Dot(resid, resid)

	return fTest((ssrPooled-ssr)/float64(entities-1), ssr/float64(dfResid), entities-1, dfResid)
}

// demean subtracts group means and, when addGrand is set, adds back the
// overall mean. The group means are returned in group order.
func demean(v []float64, groups []group, addGrand bool) ([]float64, []float64) {
	out := make([]float64, len(v))
	means := make([]float64, len(groups))
	grand := 0.0
	if addGrand {
		grand = floats.Sum(v) / float64(len(v))
	}
	for gi, g := range groups {
		mean := floats.Sum(v[g.start:g.end]) / float64(g.size())
		means[gi] = mean
		for i := g.start; i < g.end; i++ {
			out[i] = v[i] - mean + grand
		}
	}
	return out, means
}

// buildDesign stacks the columns into an n×k matrix, intercept first
func buildDesign(cols [][]float64, n int, constant bool) *mat.Dense {
	k := len(cols)
	offset := 0
	if constant {
		k++
		offset = 1
	}
	design := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		if constant {
			design.Set(i, 0, 1)
		}
		for j, col := range cols {
			design.Set(i, j+offset, col[i])
		}
	}
	return design
}

// distribution is the reference law of the t statistics
type distribution interface {
	CDF(x float64) float64
	Quantile(p float64) float64
}

// lsSolution is a least squares solution from a thin SVD
type lsSolution struct {
	beta   []float64
	values []float64
	v      *mat.Dense
	rank   int
}

// leastSquares solves min ||Xb - y|| and fails when X is rank deficient,
// using the numerical rank tolerance max(n, k) * eps * sigma_max
func leastSquares(x *mat.Dense, y []float64) (*lsSolution, error) {
	n, k := x.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return &lsSolution{}, errors.New("singular value decomposition did not converge")
	}

	values := svd.Values(nil)
	eps := math.Nextafter(1, 2) - 1
	tol := values[0] * float64(max(n, k)) * eps
	rank := 0
	for _, s := range values {
		if s > tol {
			rank++
		}
	}
	if rank < k {
		return &lsSolution{values: values, rank: rank}, errRankDeficient
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	uty := mat.NewVecDense(k, nil)
	uty.MulVec(u.T(), mat.NewVecDense(n, y))
	for l := 0; l < k; l++ {
		uty.SetVec(l, uty.AtVec(l)/values[l])
	}

	beta := mat.NewVecDense(k, nil)
	beta.MulVec(&v, uty)

	return &lsSolution{
		beta:   mat.Col(nil, 0, beta),
		values: values,
		v:      &v,
		rank:   rank,
	}, nil
}

// covariance returns s2 * (X'X)^-1 = s2 * V diag(1/sigma^2) V'
func (s *lsSolution) covariance(s2 float64) *mat.SymDense {
	k := len(s.values)
	w := mat.NewDense(k, k, nil)
	w.Apply(func(_, j int, v float64) float64 {
		return v / s.values[j]
	}, s.v)

	cov := mat.NewSymDense(k, nil)
	cov.SymOuterK(s2, w)
	return cov
}

func residuals(x *mat.Dense, y, beta []float64) []float64 {
	var fitted mat.VecDense
	fitted.MulVec(x, mat.NewVecDense(len(beta), beta))
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] - fitted.AtVec(i)
	}
	return out
}

func rsquared(ssr, tss float64) float64 {
	if tss <= 0 {
		return math.NaN()
	}
	return 1 - ssr/tss
}

// betweenRSquared scores region means against intercept + mean(x_i) * beta
func betweenRSquared(yMeans []float64, xMeans [][]float64, intercept float64, slopes []float64) float64 {
	g := len(yMeans)
	if g < 2 {
		return math.NaN()
	}
	grand := floats.Sum(yMeans) / float64(g)
	var ssr, tss float64
	for i := 0; i < g; i++ {
		fit := intercept
		for j, b := range slopes {
			fit += b * xMeans[j][i]
		}
		ssr += (yMeans[i] - fit) * (yMeans[i] - fit)
		tss += (yMeans[i] - grand) * (yMeans[i] - grand)
	}
	return rsquared(ssr, tss)
}

// overallRSquared scores the raw data against intercept + x * beta
func overallRSquared(y []float64, x [][]float64, intercept float64, slopes []float64) float64 {
	mean := floats.Sum(y) / float64(len(y))
	var ssr, tss float64
	for i, yi := range y {
		fit := intercept
		for j, b := range slopes {
			fit += b * x[j][i]
		}
		ssr += (yi - fit) * (yi - fit)
		tss += (yi - mean) * (yi - mean)
	}
	return rsquared(ssr, tss)
}

func fTest(numerator, denominator float64, df1, df2 int) FTest {
	if df1 <= 0 || df2 <= 0 {
		return FTest{Stat: math.NaN(), PValue: math.NaN(), DF1: df1, DF2: df2}
	}
	stat := numerator / denominator
	p := math.NaN()
	if !math.IsNaN(stat) {
		if math.IsInf(stat, 1) {
			p = 0
		} else {
			p = 1 - distuv.F{D1: float64(df1), D2: float64(df2)}.CDF(math.Max(stat, 0))
		}
	}
	return FTest{Stat: stat, PValue: p, DF1: df1, DF2: df2}
}

func countDistinct(values []int) int {
	seen := make(map[int]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
