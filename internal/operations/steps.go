package operations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kotfilip/ds-consulting-project/internal/charts"
	"github.com/kotfilip/ds-consulting-project/internal/config"
	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	"github.com/kotfilip/ds-consulting-project/internal/exporter"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// Step IDs in execution order
const (
	StepIDIngest    = "ingest"
	StepIDTransform = "transform"
	StepIDModel     = "model"
	StepIDVisualize = "visualize"
	StepIDExport    = "export"
)

// IngestStep reads the data file into a raw string table
type IngestStep struct {
	BaseStep
	loader *dataprocessing.Loader
	path   string
	opts   dataprocessing.LoadOptions
	tracer *OperationTracer
}

// NewIngestStep creates the ingest step for path
func NewIngestStep(loader *dataprocessing.Loader, path string, opts dataprocessing.LoadOptions, tracer *OperationTracer) *IngestStep {
	return &IngestStep{
		BaseStep: NewBaseStep(StepIDIngest, "Load data"),
		loader:   loader,
		path:     path,
		opts:     opts,
		tracer:   tracer,
	}
}

// Validate requires a configured path
func (s *IngestStep) Validate(state *OperationState) error {
	if s.path == "" {
		return fmt.Errorf("no data file configured")
	}
	return nil
}

// Execute loads the file
func (s *IngestStep) Execute(ctx context.Context, state *OperationState) error {
	df, err := s.loader.LoadFile(ctx, s.path, s.opts)
	if err != nil {
		return err
	}
	state.SetRaw(df)
	s.tracer.RecordRows(ctx, "raw", df.Nrow())
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("rows", df.Nrow())
		st.SetMetadata("path", s.path)
	}
	return nil
}

// TransformStep cleans the raw table and computes descriptive statistics
type TransformStep struct {
	BaseStep
	preprocessor *dataprocessing.Preprocessor
	tracer       *OperationTracer
}

// NewTransformStep creates the transform step
func NewTransformStep(preprocessor *dataprocessing.Preprocessor, tracer *OperationTracer) *TransformStep {
	return &TransformStep{
		BaseStep:     NewBaseStep(StepIDTransform, "Clean data"),
		preprocessor: preprocessor,
		tracer:       tracer,
	}
}

// Validate requires a loaded table
func (s *TransformStep) Validate(state *OperationState) error {
	if !state.HasRaw() {
		return fmt.Errorf("no raw table loaded")
	}
	return nil
}

// Execute runs the preprocessor
func (s *TransformStep) Execute(ctx context.Context, state *OperationState) error {
	clean, stats, err := s.preprocessor.PreprocessWithStats(ctx, state.Raw)
	if err != nil {
		return err
	}
	state.SetClean(clean, stats, dataprocessing.Describe(clean))
	s.tracer.RecordRows(ctx, "clean", stats.RowsOut)
	s.tracer.RecordRows(ctx, "dropped", stats.RowsDropped)
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("rows_out", stats.RowsOut)
		st.SetMetadata("rows_dropped", stats.RowsDropped)
		st.SetMetadata("regions", len(stats.Regions))
	}
	return nil
}

// ModelStep fits the entity fixed-effects regression
type ModelStep struct {
	BaseStep
	estimator *panel.Estimator
	tracer    *OperationTracer
}

// NewModelStep creates the model step
func NewModelStep(estimator *panel.Estimator, tracer *OperationTracer) *ModelStep {
	return &ModelStep{
		BaseStep:  NewBaseStep(StepIDModel, "Fit fixed-effects model"),
		estimator: estimator,
		tracer:    tracer,
	}
}

// Validate requires the cleaned panel
func (s *ModelStep) Validate(state *OperationState) error {
	if !state.HasClean() {
		return fmt.Errorf("no cleaned panel available")
	}
	return nil
}

// Execute fits the model and stores the result
func (s *ModelStep) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.estimator.Fit(ctx, state.Clean)
	s.tracer.RecordModelFit(ctx, result, err)
	if err != nil {
		return err
	}
	state.SetResult(result)
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("nobs", result.NObs())
		st.SetMetadata("rsquared", result.RSquared())
	}
	return nil
}

// VisualizeStep renders the three charts
type VisualizeStep struct {
	BaseStep
	renderer *charts.Renderer
	enabled  bool
	tracer   *OperationTracer
}

// NewVisualizeStep creates the visualize step
func NewVisualizeStep(renderer *charts.Renderer, enabled bool, tracer *OperationTracer) *VisualizeStep {
	return &VisualizeStep{
		BaseStep: NewBaseStep(StepIDVisualize, "Render charts"),
		renderer: renderer,
		enabled:  enabled,
		tracer:   tracer,
	}
}

// Enabled reports whether charts are requested
func (s *VisualizeStep) Enabled() bool { return s.enabled }

// Validate requires a fitted model
func (s *VisualizeStep) Validate(state *OperationState) error {
	if state.GetResult() == nil {
		return fmt.Errorf("no fitted model available")
	}
	return nil
}

// Execute writes the charts. Charts written before a failure are still recorded.
func (s *VisualizeStep) Execute(ctx context.Context, state *OperationState) error {
	paths, err := s.renderer.RenderAll(ctx, state.Clean, state.GetResult())
	state.AddFigures(paths...)
	s.tracer.RecordFiles(ctx, "chart", len(paths))
	return err
}

// ExportStep writes the CSV reports, the summary text and the optional workbook
type ExportStep struct {
	BaseStep
	reports  *exporter.ReportExporter
	workbook *exporter.WorkbookExporter
	paths    *config.Paths
	enabled  bool
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewExportStep creates the export step. A nil workbook skips the XLSX file.
func NewExportStep(reports *exporter.ReportExporter, workbook *exporter.WorkbookExporter, paths *config.Paths, enabled bool, tracer *OperationTracer, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{
		BaseStep: NewBaseStep(StepIDExport, "Export reports"),
		reports:  reports,
		workbook: workbook,
		paths:    paths,
		enabled:  enabled,
		tracer:   tracer,
		logger:   logger,
	}
}

// Enabled reports whether report files are requested
func (s *ExportStep) Enabled() bool { return s.enabled }

// Validate requires a fitted model
func (s *ExportStep) Validate(state *OperationState) error {
	if state.GetResult() == nil {
		return fmt.Errorf("no fitted model available")
	}
	return nil
}

// Execute writes every report into the reports directory
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	result := state.GetResult()
	written := 0
	defer func() { s.tracer.RecordFiles(ctx, "report", written) }()

	path, err := s.reports.ExportCleanedData(ctx, state.Clean, config.CleanedDataFile)
	if err != nil {
		return err
	}
	state.AddReports(path)
	written++

	if path, err = s.reports.ExportCoefficients(ctx, result, config.CoefficientsFile); err != nil {
		return err
	}
	state.AddReports(path)
	written++

	if path, err = s.reports.ExportStatistics(ctx, state.Summaries, config.StatisticsFile); err != nil {
		return err
	}
	state.AddReports(path)
	written++

	path = s.paths.GetReportPath(config.SummaryFile)
	if err := panel.SaveSummaryReport(result, path); err != nil {
		return err
	}
	state.AddReports(path)
	written++

	if s.workbook != nil {
		path = s.paths.GetReportPath(config.WorkbookFile)
		if err := s.workbook.Export(ctx, path, result, state.Summaries, state.Clean); err != nil {
			return err
		}
		state.AddReports(path)
		written++
	}

	s.logger.InfoContext(ctx, "reports written",
		slog.Int("files", written),
		slog.String("dir", s.paths.ReportsDir))
	return nil
}
