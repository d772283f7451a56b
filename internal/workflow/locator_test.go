package workflow

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLocator(wf *model.Workflow, users []*model.User) (*Locator, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)
	resolver := NewResolver(&fakeDirectory{users: users}, log)
	return NewLocator(&fakeSource{wf: wf}, resolver, log), logs
}

func TestLocator_SubmittedGatesOnFirstStep(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	itManager := testUser("00000000-0000-0000-0000-000000000003", model.RoleITManager, nil)
	loc, logs := newTestLocator(twoStepVehicleWorkflow(), []*model.User{deptApprover, itManager})
	wctx := Context{DepartmentID: &deptA}

	step, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		deptApprover, model.VehicleStatusSubmitted, wctx)
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 1, step.StepOrder)

	// The IT manager is step 2's approver, not step 1's, so at submitted
	// they may not act.
	step, err = loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		itManager, model.VehicleStatusSubmitted, wctx)
	require.NoError(t, err)
	assert.Nil(t, step)

	// Returned behaves exactly like submitted.
	step, err = loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		deptApprover, model.VehicleStatusReturned, wctx)
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 1, step.StepOrder)

	assert.Zero(t, logs.Len(), "normal transitions must not hit the unordered scan")
}

func TestLocator_IntermediateStatusGatesOnFollowingStep(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	itManager := testUser("00000000-0000-0000-0000-000000000003", model.RoleITManager, nil)
	loc, logs := newTestLocator(twoStepVehicleWorkflow(), []*model.User{deptApprover, itManager})
	wctx := Context{DepartmentID: &deptA}

	// dept_approved means step 1 was just satisfied; step 2 gates now.
	step, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		itManager, "dept_approved", wctx)
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 2, step.StepOrder)

	// The department approver already acted; nothing ahead is theirs.
	step, err = loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		deptApprover, "dept_approved", wctx)
	require.NoError(t, err)
	assert.Nil(t, step)

	assert.Zero(t, logs.Len())
}

func TestLocator_LastStepSatisfiedIsTerminal(t *testing.T) {
	itManager := testUser("00000000-0000-0000-0000-000000000003", model.RoleITManager, nil)
	loc, logs := newTestLocator(twoStepVehicleWorkflow(), []*model.User{itManager})

	step, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		itManager, "it_approved", Context{})
	require.NoError(t, err)
	assert.Nil(t, step, "no step gates once the last step's status is reached")
	assert.Zero(t, logs.Len())
}

func TestLocator_NonContiguousStepOrder(t *testing.T) {
	itManager := testUser("00000000-0000-0000-0000-000000000003", model.RoleITManager, nil)
	serviceDesk := testUser("00000000-0000-0000-0000-000000000004", model.RoleServiceDesk, nil)
	wf := &model.Workflow{
		FormType: model.FormTypeVehicleRequest,
		IsActive: true,
		Steps: []model.WorkflowStep{
			// Deliberately stored out of order with a gap.
			{StepOrder: 3, StepName: "Fleet desk", ApproverType: model.ApproverTypeRole,
				ApproverRole: model.RoleServiceDesk, StatusOnApproval: "fleet_cleared"},
			{StepOrder: 1, StepName: "IT manager", ApproverType: model.ApproverTypeRole,
				ApproverRole: model.RoleITManager, StatusOnApproval: "it_approved"},
		},
	}
	loc, logs := newTestLocator(wf, []*model.User{itManager, serviceDesk})

	step, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		itManager, model.VehicleStatusSubmitted, Context{})
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 1, step.StepOrder, "first step is the lowest step_order, not index 0 of storage order")

	step, err = loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		serviceDesk, "it_approved", Context{})
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 3, step.StepOrder, "order 3 is next after 1; the gap is skipped silently")
	assert.Zero(t, logs.Len())
}

func TestLocator_OrderedFallbackScan(t *testing.T) {
	// Three steps; nobody holds step 2's role anymore, so the acting user
	// (step 3's approver) must be found by the ordered fallback without
	// touching the unordered scan.
	serviceDesk := testUser("00000000-0000-0000-0000-000000000004", model.RoleServiceDesk, nil)
	wf := &model.Workflow{
		FormType: model.FormTypeVehicleRequest,
		IsActive: true,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole,
				ApproverRole: model.RoleDepartmentApprover, StatusOnApproval: "dept_approved"},
			{StepOrder: 2, ApproverType: model.ApproverTypeRole,
				ApproverRole: model.RoleITManager, StatusOnApproval: "it_approved"},
			{StepOrder: 3, ApproverType: model.ApproverTypeRole,
				ApproverRole: model.RoleServiceDesk, StatusOnApproval: "fleet_cleared"},
		},
	}
	loc, logs := newTestLocator(wf, []*model.User{serviceDesk})

	step, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		serviceDesk, "dept_approved", Context{})
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 3, step.StepOrder)
	assert.Zero(t, logs.Len(), "ordered fallback must not log the invariant warning")
}

func TestLocator_LastResortScanWarns(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	itManager := testUser("00000000-0000-0000-0000-000000000003", model.RoleITManager, nil)
	loc, logs := newTestLocator(twoStepVehicleWorkflow(), []*model.User{deptApprover, itManager})

	// "lost" matches no step's status_on_approval: the invariant is broken
	// and the unordered scan may still find the user a step, loudly.
	step, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		itManager, "lost", Context{DepartmentID: &deptA})
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 2, step.StepOrder)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "unordered scan")
}

func TestLocator_NoWorkflow(t *testing.T) {
	user := testUser("00000000-0000-0000-0000-000000000002", model.RoleAdmin, nil)
	loc, _ := newTestLocator(nil, []*model.User{user})

	step, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		user, model.VehicleStatusSubmitted, Context{})
	require.NoError(t, err)
	assert.Nil(t, step)
}

func TestLocator_Idempotent(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	loc, _ := newTestLocator(twoStepVehicleWorkflow(), []*model.User{deptApprover})
	wctx := Context{DepartmentID: &deptA}

	first, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		deptApprover, model.VehicleStatusSubmitted, wctx)
	require.NoError(t, err)
	second, err := loc.CurrentStepForApprover(context.Background(), model.FormTypeVehicleRequest,
		deptApprover, model.VehicleStatusSubmitted, wctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.StepOrder, second.StepOrder)
	assert.Equal(t, first.ID, second.ID)
}
