package workflow

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestVehicleRequestorGuards(t *testing.T) {
	requestor := testUser("00000000-0000-0000-0000-000000000010", model.RoleEmployee, nil)
	stranger := testUser("00000000-0000-0000-0000-000000000011", model.RoleEmployee, nil)
	admin := testUser("00000000-0000-0000-0000-000000000005", model.RoleAdmin, nil)

	draft := &model.VehicleRequest{RequestorID: requestor.ID, Status: model.VehicleStatusDraft}
	assert.True(t, VehicleCanEdit(requestor, draft))
	assert.True(t, VehicleCanEdit(admin, draft))
	assert.False(t, VehicleCanEdit(stranger, draft))
	assert.True(t, VehicleCanSubmit(requestor, draft))
	assert.True(t, VehicleCanDelete(requestor, draft))

	submitted := &model.VehicleRequest{RequestorID: requestor.ID, Status: model.VehicleStatusSubmitted}
	assert.False(t, VehicleCanEdit(requestor, submitted))
	assert.False(t, VehicleCanSubmit(requestor, submitted))
	assert.True(t, VehicleCanCancel(requestor, submitted))
	assert.False(t, VehicleCanDelete(requestor, submitted))

	returned := &model.VehicleRequest{RequestorID: requestor.ID, Status: model.VehicleStatusReturned}
	assert.True(t, VehicleCanEdit(requestor, returned))
	assert.True(t, VehicleCanSubmit(requestor, returned))

	completed := &model.VehicleRequest{RequestorID: requestor.ID, Status: model.VehicleStatusCompleted}
	assert.False(t, VehicleCanCancel(requestor, completed))
	assert.False(t, VehicleCanDelete(requestor, completed))
}

func TestVehicleCanDeclineOrReturn(t *testing.T) {
	// Any approval-gated status allows decline/return for vehicle
	// requests, including statuses minted by workflow steps.
	allowed := []string{model.VehicleStatusSubmitted, model.VehicleStatusReturned,
		model.VehicleStatusInReview, "dept_approved", "fleet_cleared"}
	for _, status := range allowed {
		assert.True(t, VehicleCanDeclineOrReturn(status), status)
	}
	denied := []string{model.VehicleStatusDraft, model.VehicleStatusCompleted,
		model.VehicleStatusDeclined, model.VehicleStatusCancelled}
	for _, status := range denied {
		assert.False(t, VehicleCanDeclineOrReturn(status), status)
	}
}
