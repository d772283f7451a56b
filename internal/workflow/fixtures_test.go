package workflow

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
)

// In-memory fakes so engine tests run without a database.

type fakeSource struct {
	wf  *model.Workflow
	err error
}

func (f *fakeSource) ActiveWorkflow(ctx context.Context, formType string) (*model.Workflow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.wf == nil || f.wf.FormType != formType {
		return nil, nil
	}
	return f.wf, nil
}

type fakeDirectory struct {
	users []*model.User
}

func (d *fakeDirectory) ActiveUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range d.users {
		if u.ID == id && u.IsActive {
			return u, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) FirstActiveUserByRole(ctx context.Context, role string, departmentID *uuid.UUID) (*model.User, error) {
	var best *model.User
	for _, u := range d.users {
		if !u.IsActive || u.Role != role {
			continue
		}
		if departmentID != nil {
			if u.DepartmentID == nil || *u.DepartmentID != *departmentID {
				continue
			}
		}
		if best == nil || u.ID.String() < best.ID.String() {
			best = u
		}
	}
	return best, nil
}

func mustID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func testUser(id string, role string, dept *uuid.UUID) *model.User {
	return &model.User{
		ID:           mustID(id),
		Username:     role + "-" + id[len(id)-4:],
		Email:        role + id[len(id)-4:] + "@example.com",
		Role:         role,
		DepartmentID: dept,
		IsActive:     true,
	}
}

// twoStepVehicleWorkflow mirrors the common production setup: a
// same-department approver step followed by an IT manager step.
func twoStepVehicleWorkflow() *model.Workflow {
	return &model.Workflow{
		ID:        mustID("11111111-1111-1111-1111-111111111111"),
		FormType:  model.FormTypeVehicleRequest,
		Name:      "Vehicle approvals",
		IsActive:  true,
		IsDefault: true,
		Steps: []model.WorkflowStep{
			{
				ID:                     mustID("22222222-2222-2222-2222-222222222201"),
				StepOrder:              1,
				StepName:               "Department approval",
				ApproverType:           model.ApproverTypeRole,
				ApproverRole:           model.RoleDepartmentApprover,
				RequiresSameDepartment: true,
				StatusOnApproval:       "dept_approved",
			},
			{
				ID:               mustID("22222222-2222-2222-2222-222222222202"),
				StepOrder:        2,
				StepName:         "IT manager approval",
				ApproverType:     model.ApproverTypeRole,
				ApproverRole:     model.RoleITManager,
				StatusOnApproval:   "it_approved",
				StatusOnCompletion: model.VehicleStatusCompleted,
			},
		},
	}
}
