package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"

	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

// Observations converts a cleaned table into typed rows. Every known column
// is required; other numeric columns are placed in Observation.Extra.
func Observations(df dataframe.DataFrame) ([]Observation, error) {
	want := append(append([]string{ColRegion, ColYear}, MeasureColumns...), ColCovidPeriod)
	if missing := missingColumns(df.Names(), want); len(missing) > 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("cleaned table is missing columns %s", strings.Join(missing, ", ")))
	}

	regions := df.Col(ColRegion).Records()
	years, err := df.Col(ColYear).Int()
	if err != nil {
		return nil, apperrors.NewParsingError("year column is not integral", err)
	}
	covid, err := df.Col(ColCovidPeriod).Int()
	if err != nil {
		return nil, apperrors.NewParsingError("covid_period column is not integral", err)
	}

	known := make(map[string]bool, len(want))
	floats := make(map[string][]float64)
	for _, name := range want {
		known[name] = true
	}
	for _, name := range df.Names() {
		if name == ColRegion || name == ColYear || name == ColCovidPeriod {
			continue
		}
		floats[name] = df.Col(name).Float()
	}

	out := make([]Observation, df.Nrow())
	for i := range out {
		obs := Observation{
			Region:           regions[i],
			Year:             years[i],
			Mortality:        floats[ColMortality][i],
			UnemploymentRate: floats[ColUnemploymentRate][i],
			Urbanization:     floats[ColUrbanization][i],
			GDPPerCapita:     floats[ColGDPPerCapita][i],
			AvgSalary:        floats[ColAvgSalary][i],
			DoctorsPer10k:    floats[ColDoctorsPer10k][i],
			Pollution:        floats[ColPollution][i],
			Age65Plus:        floats[ColAge65Plus][i],
			CovidPeriod:      covid[i],
		}
		for name, col := range floats {
			if known[name] {
				continue
			}
			if obs.Extra == nil {
				obs.Extra = make(map[string]float64)
			}
			obs.Extra[name] = col[i]
		}
		out[i] = obs
	}
	return out, nil
}
