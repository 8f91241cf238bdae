package operations

import (
	"fmt"
	"sync"

	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

// Registry holds the pipeline steps in the order they run
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates a new step registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
		order: make([]string, 0),
	}
}

// Register appends step; it runs after every step registered before it
func (r *Registry) Register(step Step) error {
	if step == nil {
		return apperrors.NewValidationError("cannot register nil step")
	}

	id := step.ID()
	if id == "" {
		return apperrors.NewValidationError("step ID cannot be empty").
			WithContext("name", step.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return apperrors.NewValidationError(fmt.Sprintf("step %s already registered", id)).
			WithContext("step", id)
	}

	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a step by ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[id]
	if !exists {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("step %s", id))
	}
	return step, nil
}

// List returns the steps in execution order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		steps = append(steps, r.steps[id])
	}
	return steps
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}
