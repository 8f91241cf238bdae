// Command panel-report fits the regional mortality fixed-effects model and
// writes its charts and reports.
//
// The model summary is printed to stdout; logs go to stderr and, when
// configured, to a log file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/infrastructure"
	"github.com/kotfilip/ds-consulting-project/internal/operations"
)

const shutdownTimeout = 5 * time.Second

// cliOptions holds the command line flags
type cliOptions struct {
	configPath string
	dataFile   string
	figuresDir string
	reportsDir string
	regions    string
	gdpYear    int
	noPlots    bool
	export     bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes one report and returns the process exit code
func run(args []string, stdout io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	if err := applyFlags(cfg, opts); err != nil {
		slog.Error("Invalid command line options", "error", err)
		return 1
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		return 1
	}

	cfg.Logging.FilePath = paths.ResolveUnderBase(cfg.Logging.FilePath)
	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		return 1
	}
	defer infrastructure.CloseLogFile()
	slog.SetDefault(logger)

	ctx, runID := infrastructure.NewRunContext(context.Background())

	logger.InfoContext(ctx, "Starting panel report",
		slog.String("app", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("config_file", opts.configPath))
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(
		infrastructure.NewOTelConfig(cfg.Telemetry, runID, paths.ResolveUnderBase), logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create operation tracer", slog.String("error", err.Error()))
		return 1
	}

	manager, err := operations.NewPipeline(cfg, paths, logger, tracer)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build pipeline", slog.String("error", err.Error()))
		return 1
	}

	state, err := manager.Execute(ctx)
	if err != nil {
		attrs := []any{
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("operation_id", state.ID),
		}
		var opErr *operations.OperationError
		if errors.As(err, &opErr) {
			attrs = append(attrs, slog.String("step", opErr.Step))
		}
		logger.ErrorContext(ctx, "Panel report failed", attrs...)
		return 1
	}

	fmt.Fprintln(stdout, state.Result.Summary())

	logger.InfoContext(ctx, "Panel report completed",
		slog.Duration("duration", state.Duration()),
		slog.Any("figures", state.Figures),
		slog.Any("reports", state.Reports))
	return 0
}

// parseFlags reads the command line into cliOptions
func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{set: make(map[string]bool)}

	fs := flag.NewFlagSet("panel-report", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file (defaults to $"+config.EnvConfigFile+")")
	fs.StringVar(&opts.dataFile, "data", "", "input CSV or XLSX file")
	fs.StringVar(&opts.figuresDir, "figures", "", "output directory for charts")
	fs.StringVar(&opts.reportsDir, "reports", "", "output directory for report files")
	fs.StringVar(&opts.regions, "regions", "", "comma separated regions for the mortality trend chart")
	fs.IntVar(&opts.gdpYear, "gdp-year", 0, "year of the GDP per capita chart")
	fs.BoolVar(&opts.noPlots, "no-plots", false, "skip chart rendering")
	fs.BoolVar(&opts.export, "export", false, "write CSV and XLSX reports")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// applyFlags overlays explicitly given flags onto cfg and revalidates it
func applyFlags(cfg *config.Config, opts *cliOptions) error {
	if opts.set["data"] {
		cfg.Paths.DataFile = opts.dataFile
	}
	if opts.set["figures"] {
		cfg.Paths.FiguresDir = opts.figuresDir
	}
	if opts.set["reports"] {
		cfg.Paths.ReportsDir = opts.reportsDir
	}
	if opts.set["regions"] {
		cfg.Plot.Regions = splitList(opts.regions)
	}
	if opts.set["gdp-year"] {
		cfg.Plot.GDPYear = opts.gdpYear
	}
	if opts.noPlots {
		cfg.Plot.Enabled = false
	}
	if opts.export {
		cfg.Export.Enabled = true
	}
	return cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
