package service

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStepInputs() []WorkflowStepInput {
	return []WorkflowStepInput{
		{
			StepOrder:              1,
			StepName:               "Department Approval",
			ApproverType:           model.ApproverTypeDepartmentApprover,
			RequiresSameDepartment: true,
			StatusOnApproval:       "department_approved",
		},
		{
			StepOrder:          2,
			StepName:           "Fleet Manager Approval",
			ApproverType:       model.ApproverTypeRole,
			ApproverRole:       model.RoleITManager,
			StatusOnApproval:   "fleet_approved",
			StatusOnCompletion: "completed",
		},
	}
}

func TestBuildSteps(t *testing.T) {
	t.Run("valid step set", func(t *testing.T) {
		steps, err := buildSteps(validStepInputs())
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, 1, steps[0].StepOrder)
		assert.True(t, steps[0].RequiresSameDepartment)
		assert.Equal(t, "completed", steps[1].StatusOnCompletion)
	})

	t.Run("duplicate step order rejected", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[1].StepOrder = 1

		_, err := buildSteps(inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate step_order")
	})

	t.Run("blank status on approval rejected", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[0].StatusOnApproval = "   "

		_, err := buildSteps(inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be blank")
	})

	t.Run("reserved status rejected", func(t *testing.T) {
		for _, reserved := range []string{"draft", "submitted", "returned", "declined", "cancelled"} {
			inputs := validStepInputs()
			inputs[0].StatusOnApproval = reserved

			_, err := buildSteps(inputs)
			require.Error(t, err, "status %q should be reserved", reserved)
			assert.Contains(t, err.Error(), "reserved")
		}
	})

	t.Run("duplicate status on approval rejected", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[1].StatusOnApproval = inputs[0].StatusOnApproval

		_, err := buildSteps(inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than one step")
	})

	t.Run("role type requires approver role", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[1].ApproverRole = ""

		_, err := buildSteps(inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires approver_role")
	})

	t.Run("user type requires approver user id", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[1].ApproverType = model.ApproverTypeUser
		inputs[1].ApproverUserID = ""

		_, err := buildSteps(inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires approver_user_id")
	})

	t.Run("user id parsed into step", func(t *testing.T) {
		approverID := uuid.New()
		inputs := validStepInputs()
		inputs[1].ApproverType = model.ApproverTypeUser
		inputs[1].ApproverUserID = approverID.String()

		steps, err := buildSteps(inputs)
		require.NoError(t, err)
		require.NotNil(t, steps[1].ApproverUserID)
		assert.Equal(t, approverID, *steps[1].ApproverUserID)
	})

	t.Run("malformed user id rejected", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[1].ApproverType = model.ApproverTypeUser
		inputs[1].ApproverUserID = "not-a-uuid"

		_, err := buildSteps(inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid approver_user_id")
	})

	t.Run("unknown approver type rejected", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[0].ApproverType = "committee"

		_, err := buildSteps(inputs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown approver_type")
	})

	t.Run("non contiguous orders allowed", func(t *testing.T) {
		inputs := validStepInputs()
		inputs[0].StepOrder = 10
		inputs[1].StepOrder = 30

		steps, err := buildSteps(inputs)
		require.NoError(t, err)
		assert.Equal(t, 10, steps[0].StepOrder)
		assert.Equal(t, 30, steps[1].StepOrder)
	})
}
