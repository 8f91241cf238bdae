package operations

import (
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// OperationStatus represents the overall operation status
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState carries the data passed between steps and the outcome
// of each step
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time

	// Step states, keyed by step ID
	Steps map[string]*StepState
	order []string

	// Raw is the table as read from disk; Clean is the preprocessed panel
	Raw       dataframe.DataFrame
	Clean     dataframe.DataFrame
	loaded    bool
	cleaned   bool
	Stats     dataprocessing.TransformStats
	Summaries []dataprocessing.ColumnSummary
	Result    *panel.Result

	// Files written by the visualize and export steps, in write order
	Figures []string
	Reports []string

	// Error if operation failed
	Error error
}

// NewOperationState creates a new operation state with one pending entry per step
func NewOperationState(id string, steps []Step) *OperationState {
	s := &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState, len(steps)),
	}
	for _, step := range steps {
		s.Steps[step.ID()] = NewStepState(step.ID(), step.Name())
		s.order = append(s.order, step.ID())
	}
	return s
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStep returns the state of a specific step
func (p *OperationState) GetStep(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stepID]
}

// StepOrder returns the step IDs in execution order
func (p *OperationState) StepOrder() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.order...)
}

// SetRaw stores the loaded table
func (p *OperationState) SetRaw(df dataframe.DataFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Raw = df
	p.loaded = true
}

// HasRaw reports whether a table has been loaded
func (p *OperationState) HasRaw() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// SetClean stores the cleaned panel with its statistics
func (p *OperationState) SetClean(df dataframe.DataFrame, stats dataprocessing.TransformStats, summaries []dataprocessing.ColumnSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Clean = df
	p.Stats = stats
	p.Summaries = summaries
	p.cleaned = true
}

// HasClean reports whether the cleaned panel is available
func (p *OperationState) HasClean() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cleaned
}

// SetResult stores the fitted model
func (p *OperationState) SetResult(result *panel.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Result = result
}

// GetResult returns the fitted model, or nil before the model step
func (p *OperationState) GetResult() *panel.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Result
}

// AddFigures appends chart paths
func (p *OperationState) AddFigures(paths ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Figures = append(p.Figures, paths...)
}

// AddReports appends report paths
func (p *OperationState) AddReports(paths ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Reports = append(p.Reports, paths...)
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
