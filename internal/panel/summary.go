package panel

import (
	"fmt"
	"math"
	"strings"
)

const summaryWidth = 80

// Summary renders the fitted model as a fixed-width text report
func (r *Result) Summary() string {
	var b strings.Builder

	rule := strings.Repeat("=", summaryWidth)
	thin := strings.Repeat("-", summaryWidth)

	b.WriteString(center("PanelOLS Estimation Summary", summaryWidth))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")

	covEstimator := "Unadjusted"
	if r.debiased {
		covEstimator = "Unadjusted (debiased)"
	}
	left := [][2]string{
		{"Dep. Variable:", r.dependent},
		{"Estimator:", "PanelOLS"},
		{"No. Observations:", fmt.Sprintf("%d", r.nobs)},
		{"Cov. Estimator:", covEstimator},
		{"", ""},
		{"Entities:", fmt.Sprintf("%d", r.entities)},
		{"Avg Obs:", fmt.Sprintf("%.4f", r.avgPeriods)},
		{"Min Obs:", fmt.Sprintf("%.4f", float64(r.minPeriods))},
		{"Max Obs:", fmt.Sprintf("%.4f", float64(r.maxPeriods))},
		{"", ""},
		{"Time periods:", fmt.Sprintf("%d", r.timePeriods)},
	}
	right := [][2]string{
		{"R-squared:", summaryFloat(r.rsqWithin)},
		{"R-squared (Between):", summaryFloat(r.rsqBetween)},
		{"R-squared (Within):", summaryFloat(r.rsqWithin)},
		{"R-squared (Overall):", summaryFloat(r.rsqOverall)},
		{"", ""},
		{"F-statistic:", summaryFloat(r.fStat.Stat)},
		{"P-value", summaryFloat(r.fStat.PValue)},
		{"Distribution:", fmt.Sprintf("F(%d,%d)", r.fStat.DF1, r.fStat.DF2)},
		{"", ""},
		{"", ""},
		{"", ""},
	}
	for i := range left {
		b.WriteString(pair(left[i], 38))
		b.WriteString("  ")
		b.WriteString(pair(right[i], 40))
		b.WriteString("\n")
	}

	b.WriteString("\n\n")
	b.WriteString(center("Parameter Estimates", summaryWidth))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")

	fmt.Fprintf(&b, "%-20s%10s%10s%10s%10s%10s%10s\n",
		"", "Parameter", "Std. Err.", "T-stat", "P-value", "Lower CI", "Upper CI")
	b.WriteString(thin)
	b.WriteString("\n")
	for _, c := range r.coefficients {
		fmt.Fprintf(&b, "%-20s%10s%10s%10s%10s%10s%10s\n",
			truncate(c.Name, 20),
			summaryFloat(c.Estimate),
			summaryFloat(c.StdError),
			summaryFloat(c.TStat),
			summaryFloat(c.PValue),
			summaryFloat(c.Lower),
			summaryFloat(c.Upper))
	}
	b.WriteString(rule)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "F-test for Poolability: %s\n", summaryFloat(r.poolability.Stat))
	fmt.Fprintf(&b, "P-value: %s\n", summaryFloat(r.poolability.PValue))
	fmt.Fprintf(&b, "Distribution: F(%d,%d)\n", r.poolability.DF1, r.poolability.DF2)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Included effects: %s\n", strings.Join(r.included, ", "))
	if r.confidenceLevel != DefaultConfidenceLevel {
		fmt.Fprintf(&b, "Confidence level: %s\n", summaryFloat(r.confidenceLevel))
	}

	return b.String()
}

// String implements fmt.Stringer
func (r *Result) String() string { return r.Summary() }

// pair left-aligns the label and right-aligns the value within width
func pair(kv [2]string, width int) string {
	gap := width - len([]rune(kv[0])) - len([]rune(kv[1]))
	if gap < 1 {
		gap = 1
	}
	return kv[0] + strings.Repeat(" ", gap) + kv[1]
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

// summaryFloat prints four decimals, switching to exponent form for very
// large or very small magnitudes
func summaryFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e6) {
		return fmt.Sprintf("%.3e", v)
	}
	return fmt.Sprintf("%.4f", v)
}
