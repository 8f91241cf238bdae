package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// PanelHeader is the column layout of the generated input files
var PanelHeader = []string{
	"region", "year", "mortality", "unemployment_rate", "urbanization",
	"gdp_per_capita", "avg_salary", "doctors_per_10k", "pollution", "age_65_plus",
}

// covariateRanges bounds the uniform draws per covariate
var covariateRanges = map[string][2]float64{
	"unemployment_rate": {2, 12},
	"urbanization":      {40, 80},
	"gdp_per_capita":    {40000, 100000},
	"avg_salary":        {4000, 9000},
	"doctors_per_10k":   {15, 40},
	"pollution":         {10, 60},
	"age_65_plus":       {14, 24},
}

// PanelSpec describes a synthetic balanced panel where mortality is an
// exact linear function of the covariates plus a region effect and noise
type PanelSpec struct {
	Regions   []string
	StartYear int
	Years     int
	Seed      int64
	// Noise is the half-width of the uniform disturbance added to mortality
	Noise        float64
	Intercept    float64
	Coefficients map[string]float64
	// CovidEffect is added to mortality for 2020-2023
	CovidEffect float64
}

// DefaultPanelSpec returns five regions over 2015-2023
func DefaultPanelSpec() PanelSpec {
	return PanelSpec{
		Regions:   []string{"Mazowieckie", "Śląskie", "Małopolskie", "Wielkopolskie", "Dolnośląskie"},
		StartYear: 2015,
		Years:     9,
		Seed:      42,
		Noise:     0.01,
		Intercept: 10,
		Coefficients: map[string]float64{
			"unemployment_rate": 0.15,
			"urbanization":      -0.02,
			"gdp_per_capita":    -0.00001,
			"avg_salary":        0.0002,
			"doctors_per_10k":   -0.05,
			"pollution":         0.03,
			"age_65_plus":       0.4,
		},
		CovidEffect: 1.5,
	}
}

// GeneratePanelRecords returns the header followed by one row per region
// and year. Output is deterministic for a given spec.
func GeneratePanelRecords(spec PanelSpec) [][]string {
	rng := rand.New(rand.NewSource(spec.Seed))
	records := [][]string{append([]string(nil), PanelHeader...)}

	for r, region := range spec.Regions {
		effect := float64(r) * 0.5
		for y := 0; y < spec.Years; y++ {
			year := spec.StartYear + y
			mortality := spec.Intercept + effect
			row := []string{region, strconv.Itoa(year), ""}
			for _, name := range PanelHeader[3:] {
				bounds := covariateRanges[name]
				v := bounds[0] + rng.Float64()*(bounds[1]-bounds[0])
				mortality += spec.Coefficients[name] * v
				row = append(row, formatFloat(v))
			}
			if year >= 2020 && year <= 2023 {
				mortality += spec.CovidEffect
			}
			if spec.Noise > 0 {
				mortality += (rng.Float64()*2 - 1) * spec.Noise
			}
			row[2] = formatFloat(mortality)
			records = append(records, row)
		}
	}
	return records
}

// PanelCSV renders the generated panel as comma separated text
func PanelCSV(spec PanelSpec) string {
	var b strings.Builder
	for _, row := range GeneratePanelRecords(spec) {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// WritePanelCSV writes the generated panel to dir/data.csv and returns the path
func WritePanelCSV(t *testing.T, dir string, spec PanelSpec) string {
	t.Helper()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte(PanelCSV(spec)), 0644); err != nil {
		t.Fatalf("write panel fixture: %v", err)
	}
	return path
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
