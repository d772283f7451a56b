package workflow

import (
	"context"
	"strings"

	"backend/internal/model"

	"go.uber.org/zap"
)

// Engine drives workflow progression: the first step on submission, the
// next step after an approval, and the status each transition applies.
// It reads definitions live on every call — administrative edits take
// effect on the next action, never retroactively.
type Engine struct {
	source   Source
	resolver *Resolver
	locator  *Locator
	log      *zap.Logger
}

func NewEngine(source Source, dir Directory, log *zap.Logger) *Engine {
	resolver := NewResolver(dir, log)
	return &Engine{
		source:   source,
		resolver: resolver,
		locator:  NewLocator(source, resolver, log),
		log:      log,
	}
}

// Resolver exposes the approver resolver for callers that already hold a step.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// Locator exposes the step locator for authorization checks.
func (e *Engine) Locator() *Locator { return e.locator }

// HasWorkflow reports whether an active workflow with at least one step
// exists for the form type.
func (e *Engine) HasWorkflow(ctx context.Context, formType string) (bool, error) {
	wf, err := e.source.ActiveWorkflow(ctx, formType)
	if err != nil {
		return false, err
	}
	return wf != nil && len(wf.Steps) > 0, nil
}

// ResolveFirstStep resolves the first step and its approver for a fresh
// submission. A nil resolution means no workflow exists or the first step's
// approver criteria match nobody; the caller falls back or rejects.
func (e *Engine) ResolveFirstStep(ctx context.Context, formType string, wctx Context) (*Resolution, error) {
	wf, err := e.source.ActiveWorkflow(ctx, formType)
	if err != nil {
		return nil, err
	}
	if wf == nil || len(wf.Steps) == 0 {
		return nil, nil
	}
	steps := orderedSteps(wf)

	first := &steps[0]
	approver, err := e.resolver.ApproverForStep(ctx, first, wctx)
	if err != nil {
		return nil, err
	}
	if approver == nil {
		e.log.Warn("no approver resolvable for first workflow step",
			zap.String("form_type", formType),
			zap.String("step_name", first.StepName))
		return nil, nil
	}
	return &Resolution{Step: first, Approver: approver, IsLast: len(steps) == 1}, nil
}

// ResolveNextStep resolves the step with the smallest step_order greater
// than currentStepOrder, plus its approver. A nil resolution with a nil
// error means the approval just applied was terminal.
func (e *Engine) ResolveNextStep(ctx context.Context, formType string, wctx Context, currentStepOrder int) (*Resolution, error) {
	wf, err := e.source.ActiveWorkflow(ctx, formType)
	if err != nil {
		return nil, err
	}
	if wf == nil || len(wf.Steps) == 0 {
		return nil, nil
	}
	steps := orderedSteps(wf)

	for i := range steps {
		if steps[i].StepOrder <= currentStepOrder {
			continue
		}
		approver, err := e.resolver.ApproverForStep(ctx, &steps[i], wctx)
		if err != nil {
			return nil, err
		}
		if approver == nil {
			e.log.Warn("no approver resolvable for next workflow step",
				zap.String("form_type", formType),
				zap.Int("step_order", steps[i].StepOrder),
				zap.String("step_name", steps[i].StepName))
			return nil, nil
		}
		return &Resolution{Step: &steps[i], Approver: approver, IsLast: i == len(steps)-1}, nil
	}
	return nil, nil
}

// NextStep is the pure lookup behind ResolveNextStep: the step following
// currentStepOrder, with no approver resolution.
func (e *Engine) NextStep(ctx context.Context, formType string, currentStepOrder int) (*model.WorkflowStep, error) {
	wf, err := e.source.ActiveWorkflow(ctx, formType)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, nil
	}
	steps := orderedSteps(wf)
	for i := range steps {
		if steps[i].StepOrder > currentStepOrder {
			return &steps[i], nil
		}
	}
	return nil, nil
}

// StatusOnApproval returns the status a request takes when the given step
// is approved. The last step's status_on_completion overrides its
// status_on_approval, and a blank value is substituted with the in_review
// default so an empty status never reaches storage.
func (e *Engine) StatusOnApproval(step *model.WorkflowStep, isLast bool) string {
	if isLast && strings.TrimSpace(step.StatusOnCompletion) != "" {
		return step.StatusOnCompletion
	}
	if strings.TrimSpace(step.StatusOnApproval) == "" {
		e.log.Error("workflow step has blank status_on_approval, using default",
			zap.String("step_id", step.ID.String()),
			zap.String("step_name", step.StepName))
		return model.VehicleStatusInReview
	}
	return step.StatusOnApproval
}
