package workflow

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(wf *model.Workflow, users []*model.User) *Engine {
	return NewEngine(&fakeSource{wf: wf}, &fakeDirectory{users: users}, zap.NewNop())
}

func TestEngine_ResolveFirstStep(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	eng := newTestEngine(twoStepVehicleWorkflow(), []*model.User{deptApprover})

	res, err := eng.ResolveFirstStep(context.Background(), model.FormTypeVehicleRequest, Context{DepartmentID: &deptA})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Step.StepOrder)
	assert.Equal(t, deptApprover.ID, res.Approver.ID)
	assert.False(t, res.IsLast)
}

func TestEngine_ResolveFirstStep_NoWorkflow(t *testing.T) {
	// Scenario: no workflow configured for the form type. The engine
	// reports nil and the calling service falls back to its hardcoded
	// approver lookup.
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	eng := newTestEngine(nil, []*model.User{deptApprover})

	res, err := eng.ResolveFirstStep(context.Background(), model.FormTypeItemRequest, Context{DepartmentID: &deptA})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestEngine_ResolveFirstStep_NoApprover(t *testing.T) {
	// The first step requires a same-department approver but the
	// department has none: the submission must be rejectable, never a crash.
	deptEmpty := mustID("cccccccc-0000-0000-0000-00000000000c")
	eng := newTestEngine(twoStepVehicleWorkflow(), nil)

	res, err := eng.ResolveFirstStep(context.Background(), model.FormTypeVehicleRequest, Context{DepartmentID: &deptEmpty})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestEngine_ResolveNextStep(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	itManager := testUser("00000000-0000-0000-0000-000000000003", model.RoleITManager, nil)
	eng := newTestEngine(twoStepVehicleWorkflow(), []*model.User{deptApprover, itManager})
	wctx := Context{DepartmentID: &deptA}

	res, err := eng.ResolveNextStep(context.Background(), model.FormTypeVehicleRequest, wctx, 1)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Step.StepOrder)
	assert.Equal(t, itManager.ID, res.Approver.ID)
	assert.True(t, res.IsLast)

	// Past the last step the approval is terminal.
	res, err = eng.ResolveNextStep(context.Background(), model.FormTypeVehicleRequest, wctx, 2)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestEngine_NextStep_NonContiguousOrders(t *testing.T) {
	wf := &model.Workflow{
		FormType: model.FormTypeVehicleRequest,
		IsActive: true,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, ApproverRole: model.RoleITManager, StatusOnApproval: "a"},
			{StepOrder: 3, ApproverType: model.ApproverTypeRole, ApproverRole: model.RoleServiceDesk, StatusOnApproval: "b"},
		},
	}
	eng := newTestEngine(wf, nil)

	next, err := eng.NextStep(context.Background(), model.FormTypeVehicleRequest, 1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.StepOrder, "order 3 follows order 1, no status in between")

	next, err = eng.NextStep(context.Background(), model.FormTypeVehicleRequest, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.StepOrder)

	next, err = eng.NextStep(context.Background(), model.FormTypeVehicleRequest, 3)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestEngine_StatusOnApproval(t *testing.T) {
	eng := newTestEngine(nil, nil)

	tests := []struct {
		name   string
		step   model.WorkflowStep
		isLast bool
		want   string
	}{
		{
			name: "plain step uses status_on_approval",
			step: model.WorkflowStep{StatusOnApproval: "dept_approved"},
			want: "dept_approved",
		},
		{
			name:   "last step prefers status_on_completion",
			step:   model.WorkflowStep{StatusOnApproval: "it_approved", StatusOnCompletion: model.VehicleStatusCompleted},
			isLast: true,
			want:   model.VehicleStatusCompleted,
		},
		{
			name: "completion override ignored when not last",
			step: model.WorkflowStep{StatusOnApproval: "it_approved", StatusOnCompletion: model.VehicleStatusCompleted},
			want: "it_approved",
		},
		{
			name: "blank status falls back to the safe default",
			step: model.WorkflowStep{StatusOnApproval: "   "},
			want: model.VehicleStatusInReview,
		},
		{
			name:   "blank status and blank completion on last step",
			step:   model.WorkflowStep{},
			isLast: true,
			want:   model.VehicleStatusInReview,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.StatusOnApproval(&tt.step, tt.isLast)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got, "an empty status must never reach storage")
		})
	}
}

// Walks the full two-step vehicle scenario: submitted gates step 1 for the
// department's approver, approving applies step 1's status, and the engine
// then resolves step 2 and its approver.
func TestEngine_TwoStepProgression(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptApprover := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	itManager := testUser("00000000-0000-0000-0000-000000000003", model.RoleITManager, nil)
	eng := newTestEngine(twoStepVehicleWorkflow(), []*model.User{deptApprover, itManager})
	wctx := Context{DepartmentID: &deptA}

	gating, err := eng.Locator().CurrentStepForApprover(context.Background(),
		model.FormTypeVehicleRequest, deptApprover, model.VehicleStatusSubmitted, wctx)
	require.NoError(t, err)
	require.NotNil(t, gating)
	assert.Equal(t, 1, gating.StepOrder)

	status := eng.StatusOnApproval(gating, false)
	assert.Equal(t, "dept_approved", status)

	next, err := eng.ResolveNextStep(context.Background(), model.FormTypeVehicleRequest, wctx, gating.StepOrder)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.Step.StepOrder)
	assert.Equal(t, itManager.ID, next.Approver.ID)
	assert.True(t, next.IsLast)
	assert.Equal(t, model.VehicleStatusCompleted, eng.StatusOnApproval(next.Step, next.IsLast))
}
