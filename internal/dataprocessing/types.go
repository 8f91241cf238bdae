package dataprocessing

// Column names of the regional panel dataset
const (
	ColRegion           = "region"
	ColYear             = "year"
	ColMortality        = "mortality"
	ColUnemploymentRate = "unemployment_rate"
	ColUrbanization     = "urbanization"
	ColGDPPerCapita     = "gdp_per_capita"
	ColAvgSalary        = "avg_salary"
	ColDoctorsPer10k    = "doctors_per_10k"
	ColPollution        = "pollution"
	ColAge65Plus        = "age_65_plus"
	ColCovidPeriod      = "covid_period"
)

// RequiredColumns must be present in the raw table
var RequiredColumns = []string{ColRegion, ColYear}

// MeasureColumns are the numeric columns of the expected input, in file order
var MeasureColumns = []string{
	ColMortality,
	ColUnemploymentRate,
	ColUrbanization,
	ColGDPPerCapita,
	ColAvgSalary,
	ColDoctorsPer10k,
	ColPollution,
	ColAge65Plus,
}

// Observation is one cleaned (region, year) row
type Observation struct {
	Region           string
	Year             int
	Mortality        float64
	UnemploymentRate float64
	Urbanization     float64
	GDPPerCapita     float64
	AvgSalary        float64
	DoctorsPer10k    float64
	Pollution        float64
	Age65Plus        float64
	CovidPeriod      int
	// Extra holds any additional numeric columns carried through cleaning
	Extra map[string]float64
}

// LoadOptions controls how an input file is read
type LoadOptions struct {
	// Delimiter overrides detection when non-zero
	Delimiter rune
	// Sheet selects the workbook sheet; empty means the first sheet
	Sheet string
}

// TransformOptions controls the cleaning stage
type TransformOptions struct {
	CovidStartYear int
	CovidEndYear   int
	// DecimalSeparator is '.' or ','; zero detects it per value
	DecimalSeparator rune
}

// DefaultTransformOptions returns the 2020-2023 COVID window with automatic
// decimal separator detection
func DefaultTransformOptions() TransformOptions {
	return TransformOptions{
		CovidStartYear: 2020,
		CovidEndYear:   2023,
	}
}

// TransformStats summarises a cleaning run
type TransformStats struct {
	RowsIn      int
	RowsOut     int
	RowsDropped int
	// DroppedByColumn counts, per column, the dropped rows where that column was missing
	DroppedByColumn map[string]int
	Regions         []string
	Years           []int
	Columns         []string
}

// ColumnSummary holds descriptive statistics of one numeric column
type ColumnSummary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}
