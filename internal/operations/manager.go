package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kotfilip/ds-consulting-project/internal/infrastructure"
)

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a new operation manager. A nil tracer disables telemetry.
func NewManager(registry *Registry, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		tracer:   tracer,
		logger:   logger,
	}
}

// RegisterStep registers a step with the operation
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the step registry
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs every registered step in order and stops at the first failure.
// The returned state is never nil; on failure it holds whatever the completed
// steps produced. The operation ID is the context trace ID when present.
func (m *Manager) Execute(ctx context.Context) (*OperationState, error) {
	id := infrastructure.GetTraceID(ctx)
	if id == "" {
		id = uuid.NewString()
	}

	steps := m.registry.List()
	state := NewOperationState(id, steps)
	state.Start()

	ctx, span := m.tracer.TraceOperation(ctx, id, len(steps))
	defer func() { m.tracer.RecordOperation(span, state) }()

	logger := infrastructure.WithOperation(m.logger, id)
	logger.InfoContext(ctx, "operation_started", slog.Int("step_count", len(steps)))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			opErr := NewCancellationError(step.ID(), err)
			logger.WarnContext(ctx, "operation_cancelled", slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "operation cancelled")
			state.Cancel(opErr)
			return state, opErr
		}

		if t, ok := step.(Toggleable); ok && !t.Enabled() {
			state.GetStep(step.ID()).Skip("disabled by configuration")
			m.tracer.RecordSkip(ctx, step.ID(), "disabled")
			logger.InfoContext(ctx, "step_skipped",
				slog.String("step", step.ID()),
				slog.String("reason", "disabled"))
			continue
		}

		logger.InfoContext(ctx, "executing_step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, logger, state, step); err != nil {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("previous step %s failed", step.ID()))
			state.Fail(err)
			return state, err
		}
	}

	state.Complete()
	logger.InfoContext(ctx, "operation_completed",
		slog.Duration("duration", state.Duration()),
		slog.Int("figures", len(state.Figures)),
		slog.Int("reports", len(state.Reports)))
	return state, nil
}

// executeStep validates and runs a single step
func (m *Manager) executeStep(ctx context.Context, logger *slog.Logger, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	if err := step.Validate(state); err != nil {
		opErr := NewValidationError(step.ID(), err)
		stepState.Fail(opErr)
		logger.ErrorContext(ctx, "step_validation_failed",
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		return opErr
	}

	stepCtx, span := m.tracer.TraceStep(ctx, state.ID, step.ID())
	stepState.Start()
	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)
	m.tracer.RecordStep(stepCtx, span, step.ID(), duration, err)

	if err != nil {
		opErr := NewExecutionError(step.ID(), err)
		stepState.Fail(opErr)
		logger.ErrorContext(ctx, "step_failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return opErr
	}

	stepState.Complete()
	logger.InfoContext(ctx, "step_completed_successfully",
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if st := state.GetStep(step.ID()); st != nil && st.GetStatus() == StepStatusPending {
			st.Skip(reason)
		}
	}
}
