package workflow

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolver_RoleStrategy(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptB := mustID("bbbbbbbb-0000-0000-0000-00000000000b")

	approverA := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	approverB := testUser("00000000-0000-0000-0000-000000000003", model.RoleDepartmentApprover, &deptB)
	dir := &fakeDirectory{users: []*model.User{approverB, approverA}}
	r := NewResolver(dir, zap.NewNop())

	t.Run("same department constraint scopes the match", func(t *testing.T) {
		step := &model.WorkflowStep{
			ApproverType:           model.ApproverTypeRole,
			ApproverRole:           model.RoleDepartmentApprover,
			RequiresSameDepartment: true,
		}
		got, err := r.ApproverForStep(context.Background(), step, Context{DepartmentID: &deptB})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, approverB.ID, got.ID)
	})

	t.Run("without constraint the lowest id wins", func(t *testing.T) {
		step := &model.WorkflowStep{
			ApproverType: model.ApproverTypeRole,
			ApproverRole: model.RoleDepartmentApprover,
		}
		got, err := r.ApproverForStep(context.Background(), step, Context{DepartmentID: &deptB})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, approverA.ID, got.ID, "tie-break must be deterministic by lowest id")
	})

	t.Run("constraint without department context matches any department", func(t *testing.T) {
		step := &model.WorkflowStep{
			ApproverType:           model.ApproverTypeRole,
			ApproverRole:           model.RoleDepartmentApprover,
			RequiresSameDepartment: true,
		}
		got, err := r.ApproverForStep(context.Background(), step, Context{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, approverA.ID, got.ID)
	})

	t.Run("no matching role resolves to nil", func(t *testing.T) {
		step := &model.WorkflowStep{
			ApproverType: model.ApproverTypeRole,
			ApproverRole: model.RoleITManager,
		}
		got, err := r.ApproverForStep(context.Background(), step, Context{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestResolver_UserStrategy(t *testing.T) {
	target := testUser("00000000-0000-0000-0000-000000000007", model.RoleITManager, nil)
	inactive := testUser("00000000-0000-0000-0000-000000000008", model.RoleITManager, nil)
	inactive.IsActive = false
	dir := &fakeDirectory{users: []*model.User{target, inactive}}
	r := NewResolver(dir, zap.NewNop())

	t.Run("resolves the named active user", func(t *testing.T) {
		step := &model.WorkflowStep{ApproverType: model.ApproverTypeUser, ApproverUserID: idPtr(target.ID)}
		got, err := r.ApproverForStep(context.Background(), step, Context{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, target.ID, got.ID)
	})

	t.Run("inactive user resolves to nil", func(t *testing.T) {
		step := &model.WorkflowStep{ApproverType: model.ApproverTypeUser, ApproverUserID: idPtr(inactive.ID)}
		got, err := r.ApproverForStep(context.Background(), step, Context{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unset approver_user_id is a config error, not a crash", func(t *testing.T) {
		step := &model.WorkflowStep{ApproverType: model.ApproverTypeUser}
		got, err := r.ApproverForStep(context.Background(), step, Context{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestResolver_DepartmentStrategy(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptB := mustID("bbbbbbbb-0000-0000-0000-00000000000b")
	approverA := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	approverB := testUser("00000000-0000-0000-0000-000000000003", model.RoleDepartmentApprover, &deptB)
	dir := &fakeDirectory{users: []*model.User{approverA, approverB}}
	r := NewResolver(dir, zap.NewNop())

	for _, approverType := range []string{model.ApproverTypeDepartment, model.ApproverTypeDepartmentApprover} {
		t.Run(approverType+" with explicit department", func(t *testing.T) {
			step := &model.WorkflowStep{ApproverType: approverType, ApproverDepartmentID: &deptB}
			got, err := r.ApproverForStep(context.Background(), step, Context{DepartmentID: &deptA})
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, approverB.ID, got.ID, "explicit department must win over the requestor's")
		})

		t.Run(approverType+" falls back to requestor department", func(t *testing.T) {
			step := &model.WorkflowStep{ApproverType: approverType, RequiresSameDepartment: true}
			got, err := r.ApproverForStep(context.Background(), step, Context{DepartmentID: &deptA})
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, approverA.ID, got.ID)
		})

		t.Run(approverType+" with neither department resolves to nil", func(t *testing.T) {
			step := &model.WorkflowStep{ApproverType: approverType}
			got, err := r.ApproverForStep(context.Background(), step, Context{})
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestResolver_UnknownApproverType(t *testing.T) {
	dir := &fakeDirectory{users: []*model.User{testUser("00000000-0000-0000-0000-000000000002", model.RoleAdmin, nil)}}
	r := NewResolver(dir, zap.NewNop())

	step := &model.WorkflowStep{ApproverType: "committee"}
	got, err := r.ApproverForStep(context.Background(), step, Context{})
	require.NoError(t, err)
	assert.Nil(t, got)
}
