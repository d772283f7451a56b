package workflow

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemGatingStage(t *testing.T) {
	tests := []struct {
		status     string
		wantStage  string
		wantResult string
		wantOK     bool
	}{
		{model.ItemStatusSubmitted, model.StageDepartmentApproval, model.ItemStatusDeptApproved, true},
		{model.ItemStatusReturned, model.StageDepartmentApproval, model.ItemStatusDeptApproved, true},
		{model.ItemStatusDeptApproved, model.StageITManagerApproval, model.ItemStatusITApproved, true},
		{model.ItemStatusITApproved, model.StageServiceDeskProcessing, model.ItemStatusProcessing, true},
		// The single service desk stage is entered twice: the second
		// approval completes the request.
		{model.ItemStatusProcessing, model.StageServiceDeskProcessing, model.ItemStatusCompleted, true},
		{model.ItemStatusDraft, "", "", false},
		{model.ItemStatusCompleted, "", "", false},
		{model.ItemStatusDeclined, "", "", false},
		{model.ItemStatusCancelled, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			stage, result, ok := ItemGatingStage(tt.status)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantStage, stage.Type)
				assert.Equal(t, tt.wantResult, result)
			}
		})
	}
}

func TestItemCanActOnStage(t *testing.T) {
	deptA := mustID("aaaaaaaa-0000-0000-0000-00000000000a")
	deptB := mustID("bbbbbbbb-0000-0000-0000-00000000000b")
	req := &model.ItemRequest{DepartmentID: &deptA, Status: model.ItemStatusSubmitted}
	deptStage, _, _ := ItemGatingStage(model.ItemStatusSubmitted)
	itStage, _, _ := ItemGatingStage(model.ItemStatusDeptApproved)

	sameDept := testUser("00000000-0000-0000-0000-000000000002", model.RoleDepartmentApprover, &deptA)
	otherDept := testUser("00000000-0000-0000-0000-000000000003", model.RoleDepartmentApprover, &deptB)
	itManager := testUser("00000000-0000-0000-0000-000000000004", model.RoleITManager, nil)
	admin := testUser("00000000-0000-0000-0000-000000000005", model.RoleAdmin, nil)
	inactive := testUser("00000000-0000-0000-0000-000000000006", model.RoleDepartmentApprover, &deptA)
	inactive.IsActive = false

	assert.True(t, ItemCanActOnStage(sameDept, deptStage, req))
	assert.False(t, ItemCanActOnStage(otherDept, deptStage, req), "department scope must hold")
	assert.False(t, ItemCanActOnStage(itManager, deptStage, req))
	assert.True(t, ItemCanActOnStage(admin, deptStage, req))
	assert.False(t, ItemCanActOnStage(inactive, deptStage, req))
	assert.False(t, ItemCanActOnStage(nil, deptStage, req))

	assert.True(t, ItemCanActOnStage(itManager, itStage, req))
	assert.False(t, ItemCanActOnStage(sameDept, itStage, req))
}

func TestItemCanDeclineOrReturn(t *testing.T) {
	allowed := []string{model.ItemStatusSubmitted, model.ItemStatusReturned, model.ItemStatusDeptApproved}
	for _, status := range allowed {
		assert.True(t, ItemCanDeclineOrReturn(status), status)
	}
	denied := []string{model.ItemStatusDraft, model.ItemStatusITApproved, model.ItemStatusProcessing,
		model.ItemStatusCompleted, model.ItemStatusDeclined, model.ItemStatusCancelled}
	for _, status := range denied {
		assert.False(t, ItemCanDeclineOrReturn(status), status)
	}
}

func TestItemRequestorGuards(t *testing.T) {
	requestor := testUser("00000000-0000-0000-0000-000000000010", model.RoleEmployee, nil)
	stranger := testUser("00000000-0000-0000-0000-000000000011", model.RoleEmployee, nil)
	admin := testUser("00000000-0000-0000-0000-000000000005", model.RoleAdmin, nil)

	draft := &model.ItemRequest{
		RequestorID: requestor.ID,
		Status:      model.ItemStatusDraft,
		Items:       []model.ItemRequestLine{{Name: "Laptop", Quantity: 1}},
	}

	assert.True(t, ItemCanEdit(requestor, draft))
	assert.True(t, ItemCanEdit(admin, draft))
	assert.False(t, ItemCanEdit(stranger, draft))

	assert.True(t, ItemCanSubmit(requestor, draft))
	assert.False(t, ItemCanSubmit(stranger, draft))

	empty := &model.ItemRequest{RequestorID: requestor.ID, Status: model.ItemStatusDraft}
	assert.False(t, ItemCanSubmit(requestor, empty), "submission requires at least one line item")

	submitted := &model.ItemRequest{RequestorID: requestor.ID, Status: model.ItemStatusSubmitted,
		Items: []model.ItemRequestLine{{Name: "Laptop"}}}
	assert.False(t, ItemCanEdit(requestor, submitted))
	assert.False(t, ItemCanSubmit(requestor, submitted))
	assert.True(t, ItemCanCancel(requestor, submitted))
	assert.False(t, ItemCanDelete(requestor, submitted))

	returned := &model.ItemRequest{RequestorID: requestor.ID, Status: model.ItemStatusReturned,
		Items: []model.ItemRequestLine{{Name: "Laptop"}}}
	assert.True(t, ItemCanEdit(requestor, returned), "returned requests reopen for the requestor")
	assert.True(t, ItemCanSubmit(requestor, returned), "resubmission from returned")

	completed := &model.ItemRequest{RequestorID: requestor.ID, Status: model.ItemStatusCompleted}
	assert.False(t, ItemCanCancel(requestor, completed))

	assert.True(t, ItemCanDelete(requestor, draft))
	assert.False(t, ItemCanDelete(stranger, draft))
}
