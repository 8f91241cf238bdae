package operations

import (
	"log/slog"

	"github.com/kotfilip/ds-consulting-project/internal/charts"
	"github.com/kotfilip/ds-consulting-project/internal/config"
	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	"github.com/kotfilip/ds-consulting-project/internal/exporter"
	"github.com/kotfilip/ds-consulting-project/internal/infrastructure"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// NewPipeline wires the five report steps from cfg. tracer may be nil.
func NewPipeline(cfg *config.Config, paths *config.Paths, logger *slog.Logger, tracer *OperationTracer) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loader := dataprocessing.NewLoader(infrastructure.WithComponent(logger, "loader"))
	preprocessor := dataprocessing.NewPreprocessor(dataprocessing.TransformOptions{
		CovidStartYear:   cfg.Ingest.CovidStartYear,
		CovidEndYear:     cfg.Ingest.CovidEndYear,
		DecimalSeparator: cfg.Ingest.DecimalRune(),
	}, infrastructure.WithComponent(logger, "preprocessor"))
	estimator := panel.NewEstimator(panel.Options{
		Dependent:       cfg.Model.Dependent,
		Covariates:      cfg.Model.Covariates,
		Constant:        cfg.Model.Constant,
		ConfidenceLevel: cfg.Model.ConfidenceLevel,
		Debiased:        cfg.Model.Debiased,
	}, infrastructure.WithComponent(logger, "panel"))
	renderer := charts.NewRenderer(paths.FiguresDir, charts.OptionsFromConfig(cfg.Plot),
		infrastructure.WithComponent(logger, "charts"))

	exportLogger := infrastructure.WithComponent(logger, "exporter")
	reports := exporter.NewReportExporter(paths, cfg.Export.BOMPrefix, exportLogger)
	var workbook *exporter.WorkbookExporter
	if cfg.Export.Workbook {
		workbook = exporter.NewWorkbookExporter(exportLogger)
	}

	registry := NewRegistry()
	steps := []Step{
		NewIngestStep(loader, paths.DataFile, dataprocessing.LoadOptions{
			Delimiter: cfg.Ingest.DelimiterRune(),
			Sheet:     cfg.Ingest.Sheet,
		}, tracer),
		NewTransformStep(preprocessor, tracer),
		NewModelStep(estimator, tracer),
		NewVisualizeStep(renderer, cfg.Plot.Enabled, tracer),
		NewExportStep(reports, workbook, paths, cfg.Export.Enabled, tracer, exportLogger),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}

	return NewManager(registry, tracer, infrastructure.WithComponent(logger, "operations")), nil
}
