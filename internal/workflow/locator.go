package workflow

import (
	"context"

	"backend/internal/model"

	"go.uber.org/zap"
)

// Locator answers the central question of the engine: given a request's
// current status and a candidate acting user, which step (if any) is that
// user currently authorized to act on.
type Locator struct {
	source   Source
	resolver *Resolver
	log      *zap.Logger
}

func NewLocator(source Source, resolver *Resolver, log *zap.Logger) *Locator {
	return &Locator{source: source, resolver: resolver, log: log}
}

// CurrentStepForApprover locates the gating step the user may act on.
//
// A status of submitted or returned always gates on the first step. Any
// other status names the step that was just satisfied — the step whose
// status_on_approval equals it — so the gating step is the one after it in
// step_order. When that primary match fails because resolver state changed
// since the status was written, later steps are scanned in order; the full
// unordered scan is a last resort that signals corrupted data.
func (l *Locator) CurrentStepForApprover(ctx context.Context, formType string, approver *model.User, requestStatus string, wctx Context) (*model.WorkflowStep, error) {
	wf, err := l.source.ActiveWorkflow(ctx, formType)
	if err != nil {
		return nil, err
	}
	if wf == nil || len(wf.Steps) == 0 {
		return nil, nil
	}
	steps := orderedSteps(wf)

	if requestStatus == model.VehicleStatusSubmitted || requestStatus == model.VehicleStatusReturned {
		first := &steps[0]
		ok, err := l.matches(ctx, first, approver, wctx)
		if err != nil || !ok {
			return nil, err
		}
		return first, nil
	}

	satisfied := -1
	for i := range steps {
		if steps[i].StatusOnApproval == requestStatus {
			satisfied = i
			break
		}
	}

	if satisfied >= 0 {
		if satisfied+1 >= len(steps) {
			// The satisfied step was the last one; the workflow is terminal.
			return nil, nil
		}

		candidate := &steps[satisfied+1]
		ok, err := l.matches(ctx, candidate, approver, wctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return candidate, nil
		}

		// Resolver state may have drifted since the status was written;
		// try every remaining later step in order.
		for i := satisfied + 2; i < len(steps); i++ {
			ok, err := l.matches(ctx, &steps[i], approver, wctx)
			if err != nil {
				return nil, err
			}
			if ok {
				return &steps[i], nil
			}
		}
		// The status maps cleanly to a step, the user just is not the
		// approver of anything still ahead of it.
		return nil, nil
	}

	return l.lastResortScan(ctx, formType, steps, approver, requestStatus, wctx)
}

// lastResortScan checks every step regardless of order. Reaching it means
// the status-to-step invariant does not hold for this request, so every
// hit is logged loudly for operators.
func (l *Locator) lastResortScan(ctx context.Context, formType string, steps []model.WorkflowStep, approver *model.User, requestStatus string, wctx Context) (*model.WorkflowStep, error) {
	for i := range steps {
		ok, err := l.matches(ctx, &steps[i], approver, wctx)
		if err != nil {
			return nil, err
		}
		if ok {
			l.log.Warn("request status matched no workflow step; resolved approver by unordered scan",
				zap.String("form_type", formType),
				zap.String("request_status", requestStatus),
				zap.String("approver_id", approver.ID.String()),
				zap.Int("step_order", steps[i].StepOrder))
			return &steps[i], nil
		}
	}
	return nil, nil
}

func (l *Locator) matches(ctx context.Context, step *model.WorkflowStep, approver *model.User, wctx Context) (bool, error) {
	resolved, err := l.resolver.ApproverForStep(ctx, step, wctx)
	if err != nil {
		return false, err
	}
	return resolved != nil && resolved.ID == approver.ID, nil
}
