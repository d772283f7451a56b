package model

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle request statuses. Intermediate statuses come from the active
// workflow's per-step status_on_approval values, so only the fixed
// vocabulary is declared here. VehicleStatusInReview doubles as the safe
// default applied when a step carries a blank status_on_approval.
const (
	VehicleStatusDraft     = "draft"
	VehicleStatusSubmitted = "submitted"
	VehicleStatusInReview  = "in_review"
	VehicleStatusCompleted = "completed"
	VehicleStatusDeclined  = "declined"
	VehicleStatusReturned  = "returned"
	VehicleStatusCancelled = "cancelled"
)

// VehicleRequest is a service-vehicle booking request driven by a fully
// dynamic per-workflow-step approval flow.
type VehicleRequest struct {
	ID             uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestNo      string            `gorm:"type:varchar(30);uniqueIndex;not null" json:"request_no"`
	RequestorID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"requestor_id"`
	Requestor      *User             `gorm:"foreignKey:RequestorID" json:"requestor,omitempty"`
	DepartmentID   *uuid.UUID        `gorm:"type:uuid;index" json:"department_id"`
	Department     *Department       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Purpose        string            `gorm:"type:text;not null" json:"purpose"`
	Destination    string            `gorm:"type:varchar(255)" json:"destination"`
	PassengerCount int               `gorm:"not null;default:1" json:"passenger_count"`
	DepartAt       *time.Time        `json:"depart_at"`
	ReturnAt       *time.Time        `json:"return_at"`
	Status         string            `gorm:"type:varchar(50);not null;default:'draft';index" json:"status"`
	Approvals      []VehicleApproval `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"approvals,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IsTerminal reports whether no further approval can act on the request
func (r *VehicleRequest) IsTerminal() bool {
	return r.Status == VehicleStatusCompleted || r.Status == VehicleStatusDeclined || r.Status == VehicleStatusCancelled
}

// VehicleApproval is one approval record per (request, step_order).
// The unique index is the race guard; writers upsert through it.
type VehicleApproval struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_vehicle_approval_step" json:"request_id"`
	StepOrder    int        `gorm:"not null;uniqueIndex:idx_vehicle_approval_step" json:"step_order"`
	StepName     string     `gorm:"type:varchar(255)" json:"step_name"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApproverID   *uuid.UUID `gorm:"type:uuid;index" json:"approver_id"`
	Approver     *User      `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Comments     string     `gorm:"type:text" json:"comments"`
	ReturnReason string     `gorm:"type:text" json:"return_reason"`
	ApprovedAt   *time.Time `json:"approved_at"`
	DeclinedAt   *time.Time `json:"declined_at"`
	ReturnedAt   *time.Time `json:"returned_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
