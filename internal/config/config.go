package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Model     ModelConfig     `yaml:"model" envconfig:"MODEL"`
	Plot      PlotConfig      `yaml:"plot" envconfig:"PLOT"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataFile   string `yaml:"data_file" envconfig:"DATA_FILE" validate:"required"`
	FiguresDir string `yaml:"figures_dir" envconfig:"FIGURES_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// IngestConfig controls how the input file is read
type IngestConfig struct {
	// Delimiter is a single character; empty means auto-detect.
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"omitempty,max=2"`
	// DecimalSeparator is "." or ","; empty means auto-detect per value.
	DecimalSeparator string `yaml:"decimal_separator" envconfig:"DECIMAL_SEPARATOR"`
	Sheet            string `yaml:"sheet" envconfig:"SHEET"`
	CovidStartYear   int    `yaml:"covid_start_year" envconfig:"COVID_START_YEAR" validate:"gt=0"`
	CovidEndYear     int    `yaml:"covid_end_year" envconfig:"COVID_END_YEAR" validate:"gtefield=CovidStartYear"`
}

// ModelConfig contains the regression specification
type ModelConfig struct {
	Dependent       string   `yaml:"dependent" envconfig:"DEPENDENT" validate:"required"`
	Covariates      []string `yaml:"covariates" envconfig:"COVARIATES" validate:"min=1,dive,required"`
	Constant        bool     `yaml:"constant" envconfig:"CONSTANT"`
	ConfidenceLevel float64  `yaml:"confidence_level" envconfig:"CONFIDENCE_LEVEL" validate:"gt=0,lt=1"`
	Debiased        bool     `yaml:"debiased" envconfig:"DEBIASED"`
}

// PlotConfig contains chart configuration
type PlotConfig struct {
	Enabled              bool     `yaml:"enabled" envconfig:"ENABLED"`
	Regions              []string `yaml:"regions" envconfig:"REGIONS" validate:"dive,required"`
	ExcludedCoefficients []string `yaml:"excluded_coefficients" envconfig:"EXCLUDED_COEFFICIENTS"`
	Significance         float64  `yaml:"significance" envconfig:"SIGNIFICANCE" validate:"gt=0,lt=1"`
	GDPYear              int      `yaml:"gdp_year" envconfig:"GDP_YEAR" validate:"gt=0"`
	GDPHighThreshold     float64  `yaml:"gdp_high_threshold" envconfig:"GDP_HIGH_THRESHOLD" validate:"gtfield=GDPMidThreshold"`
	GDPMidThreshold      float64  `yaml:"gdp_mid_threshold" envconfig:"GDP_MID_THRESHOLD"`
	WidthInches          float64  `yaml:"width_inches" envconfig:"WIDTH_INCHES" validate:"gt=0"`
	HeightInches         float64  `yaml:"height_inches" envconfig:"HEIGHT_INCHES" validate:"gt=0"`
}

// ExportConfig controls the optional report files
type ExportConfig struct {
	Enabled   bool `yaml:"enabled" envconfig:"ENABLED"`
	Workbook  bool `yaml:"workbook" envconfig:"WORKBOOK"`
	BOMPrefix bool `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceFile      string  `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile    string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	ServiceVersion string  `yaml:"service_version" envconfig:"SERVICE_VERSION"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (env wins).
// An empty path falls back to PANEL_CONFIG_FILE; no file is read when both are empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize trims list entries and lower-cases enum-like fields
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Output = strings.ToLower(strings.TrimSpace(c.Logging.Output))
	c.Model.Covariates = trimAll(c.Model.Covariates)
	c.Plot.Regions = trimAll(c.Plot.Regions)
	c.Plot.ExcludedCoefficients = trimAll(c.Plot.ExcludedCoefficients)
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Ingest.DecimalSeparator {
	case "", ".", ",":
	default:
		return fmt.Errorf("invalid configuration: decimal separator %q must be \".\" or \",\"", c.Ingest.DecimalSeparator)
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or 0 for auto-detect
func (c IngestConfig) DelimiterRune() rune {
	if c.Delimiter == "" {
		return 0
	}
	if c.Delimiter == `\t` {
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

// DecimalRune returns the configured decimal separator, or 0 for auto-detect
func (c IngestConfig) DecimalRune() rune {
	if c.DecimalSeparator == "" {
		return 0
	}
	return []rune(c.DecimalSeparator)[0]
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataFile:   DefaultDataFile,
			FiguresDir: DefaultFiguresDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Ingest: IngestConfig{
			CovidStartYear: DefaultCovidStartYear,
			CovidEndYear:   DefaultCovidEndYear,
		},
		Model: ModelConfig{
			Dependent:       DefaultDependent,
			Covariates:      append([]string(nil), DefaultCovariates...),
			Constant:        true,
			ConfidenceLevel: DefaultConfidenceLevel,
		},
		Plot: PlotConfig{
			Enabled:              true,
			Regions:              append([]string(nil), DefaultRegions...),
			ExcludedCoefficients: append([]string(nil), DefaultExcludedCoefficients...),
			Significance:         DefaultSignificance,
			GDPYear:              DefaultGDPYear,
			GDPHighThreshold:     DefaultGDPHighThreshold,
			GDPMidThreshold:      DefaultGDPMidThreshold,
			WidthInches:          DefaultChartWidth,
			HeightInches:         DefaultChartHeight,
		},
		Export: ExportConfig{
			Enabled:   false,
			Workbook:  true,
			BOMPrefix: false,
		},
		Telemetry: TelemetryConfig{
			EnableTracing:  false,
			EnableMetrics:  false,
			TraceFile:      TraceFile,
			MetricsFile:    MetricsFile,
			SampleRatio:    1.0,
			ServiceVersion: AppVersion,
		},
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
