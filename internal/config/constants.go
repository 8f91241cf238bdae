package config

// Application constants - hard-coded defaults for the panel report
const (
	// Application Info
	AppName    = "Regional Mortality Panel Report"
	AppVersion = "1.0.0"

	// Environment
	EnvPrefix     = "PANEL"
	EnvConfigFile = "PANEL_CONFIG_FILE"

	// File Paths (relative to the base directory)
	DefaultDataFile   = "data/data.csv"
	DefaultFiguresDir = "figures"
	DefaultReportsDir = "reports"
	DefaultLogsDir    = "logs"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/panel-report.log"

	// COVID-19 period (inclusive)
	DefaultCovidStartYear = 2020
	DefaultCovidEndYear   = 2023

	// Model
	DefaultDependent       = "mortality"
	DefaultConfidenceLevel = 0.95
	DefaultSignificance    = 0.05

	// GDP colour bands
	DefaultGDPYear          = 2023
	DefaultGDPHighThreshold = 80000.0
	DefaultGDPMidThreshold  = 60000.0

	// Chart size in inches
	DefaultChartWidth  = 10.0
	DefaultChartHeight = 6.0

	// Output file names
	CoefficientChartFile = "model_coefficients_excl_gdp.png"
	MortalityTrendFile   = "mortality_trend.png"
	GDPChartFilePattern  = "gdp_per_capita_%d.png"
	CleanedDataFile      = "cleaned_data.csv"
	CoefficientsFile     = "coefficients.csv"
	StatisticsFile       = "descriptive_statistics.csv"
	WorkbookFile         = "panel_report.xlsx"
	SummaryFile          = "model_summary.txt"
	TraceFile            = "logs/trace.json"
	MetricsFile          = "reports/panel_report.prom"
)

// DefaultCovariates is the full regressor set of the model.
var DefaultCovariates = []string{
	"unemployment_rate",
	"urbanization",
	"gdp_per_capita",
	"avg_salary",
	"doctors_per_10k",
	"pollution",
	"age_65_plus",
	"covid_period",
}

// DefaultRegions are plotted in the mortality time series.
var DefaultRegions = []string{
	"Mazowieckie",
	"Śląskie",
	"Małopolskie",
	"Wielkopolskie",
	"Dolnośląskie",
}

// DefaultExcludedCoefficients are left out of the coefficient chart besides the intercept.
var DefaultExcludedCoefficients = []string{"gdp_per_capita"}
