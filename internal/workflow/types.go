package workflow

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
)

// Context carries the request-scoped data a step may need to resolve its
// approver. Extend only when a new approver type requires more.
type Context struct {
	DepartmentID *uuid.UUID
}

// Source loads workflow definitions. Implementations must return the steps
// ordered ascending by step_order and (nil, nil) when no workflow exists
// for the form type — a missing workflow is not an error at this layer.
type Source interface {
	ActiveWorkflow(ctx context.Context, formType string) (*model.Workflow, error)
}

// Directory looks up users for approver resolution. Lookups that find no
// active user return (nil, nil); errors are reserved for store failures.
type Directory interface {
	// ActiveUserByID returns the active user with the given id.
	ActiveUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// FirstActiveUserByRole returns the active user with the given role,
	// optionally constrained to a department, lowest id first so repeated
	// calls resolve the same user.
	FirstActiveUserByRole(ctx context.Context, role string, departmentID *uuid.UUID) (*model.User, error)
}

// Resolution pairs a gating step with its resolved approver.
type Resolution struct {
	Step     *model.WorkflowStep
	Approver *model.User
	// IsLast is true when Step is the final step of the workflow, which
	// makes its status_on_completion override apply.
	IsLast bool
}

// orderedSteps returns the workflow's steps sorted ascending by step_order.
// Repositories already order them, but the engine never trusts that —
// step_order is the only total order and it is not contiguous.
func orderedSteps(wf *model.Workflow) []model.WorkflowStep {
	steps := make([]model.WorkflowStep, len(wf.Steps))
	copy(steps, wf.Steps)
	for i := 1; i < len(steps); i++ {
		for j := i; j > 0 && steps[j].StepOrder < steps[j-1].StepOrder; j-- {
			steps[j], steps[j-1] = steps[j-1], steps[j]
		}
	}
	return steps
}
