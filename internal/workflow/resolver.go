package workflow

import (
	"context"

	"backend/internal/model"

	"go.uber.org/zap"
)

// Resolver turns a step's abstract approver criteria into a concrete active
// user. It never fabricates an approver: whenever the criteria match nobody,
// it returns nil and the caller decides whether to fall back or reject.
type Resolver struct {
	dir Directory
	log *zap.Logger
}

func NewResolver(dir Directory, log *zap.Logger) *Resolver {
	return &Resolver{dir: dir, log: log}
}

// ApproverForStep resolves the approver for one workflow step.
// Misconfigured steps (unknown approver type, unset user id) resolve to nil
// with a logged configuration error; they never return an error themselves.
func (r *Resolver) ApproverForStep(ctx context.Context, step *model.WorkflowStep, wctx Context) (*model.User, error) {
	switch step.ApproverType {
	case model.ApproverTypeRole:
		if step.ApproverRole == "" {
			r.log.Error("workflow step of type role has no approver_role",
				zap.String("step_id", step.ID.String()),
				zap.String("step_name", step.StepName))
			return nil, nil
		}
		dept := wctx.DepartmentID
		if !step.RequiresSameDepartment {
			dept = nil
		}
		return r.dir.FirstActiveUserByRole(ctx, step.ApproverRole, dept)

	case model.ApproverTypeUser:
		if step.ApproverUserID == nil {
			r.log.Error("workflow step of type user has no approver_user_id",
				zap.String("step_id", step.ID.String()),
				zap.String("step_name", step.StepName))
			return nil, nil
		}
		return r.dir.ActiveUserByID(ctx, *step.ApproverUserID)

	case model.ApproverTypeDepartment, model.ApproverTypeDepartmentApprover:
		if step.ApproverDepartmentID != nil {
			return r.dir.FirstActiveUserByRole(ctx, model.RoleDepartmentApprover, step.ApproverDepartmentID)
		}
		if step.RequiresSameDepartment && wctx.DepartmentID != nil {
			return r.dir.FirstActiveUserByRole(ctx, model.RoleDepartmentApprover, wctx.DepartmentID)
		}
		return nil, nil

	default:
		r.log.Error("workflow step has unknown approver_type",
			zap.String("step_id", step.ID.String()),
			zap.String("approver_type", step.ApproverType))
		return nil, nil
	}
}
