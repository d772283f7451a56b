package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRequest_IsTerminal(t *testing.T) {
	terminal := []string{ItemStatusCompleted, ItemStatusDeclined, ItemStatusCancelled}
	for _, status := range terminal {
		r := ItemRequest{Status: status}
		assert.True(t, r.IsTerminal(), status)
	}

	open := []string{ItemStatusDraft, ItemStatusSubmitted, ItemStatusDeptApproved,
		ItemStatusITApproved, ItemStatusProcessing, ItemStatusReturned}
	for _, status := range open {
		r := ItemRequest{Status: status}
		assert.False(t, r.IsTerminal(), status)
	}
}

func TestVehicleRequest_IsTerminal(t *testing.T) {
	terminal := []string{VehicleStatusCompleted, VehicleStatusDeclined, VehicleStatusCancelled}
	for _, status := range terminal {
		r := VehicleRequest{Status: status}
		assert.True(t, r.IsTerminal(), status)
	}

	// Workflow-defined intermediate statuses are open by definition.
	open := []string{VehicleStatusDraft, VehicleStatusSubmitted, VehicleStatusInReview,
		VehicleStatusReturned, "fleet_approved"}
	for _, status := range open {
		r := VehicleRequest{Status: status}
		assert.False(t, r.IsTerminal(), status)
	}
}

func TestItemRequest_EstimatedTotal(t *testing.T) {
	mustDecimal := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return d
	}

	r := ItemRequest{Items: []ItemRequestLine{
		{Quantity: 2, UnitCost: mustDecimal("1299.99")},
		{Quantity: 3, UnitCost: mustDecimal("45.50")},
		{Quantity: 1, UnitCost: decimal.Zero},
	}}

	assert.Equal(t, "2736.48", r.EstimatedTotal().StringFixed(2))
}

func TestItemRequest_EstimatedTotal_NoLines(t *testing.T) {
	r := ItemRequest{}
	assert.True(t, r.EstimatedTotal().IsZero())
}
