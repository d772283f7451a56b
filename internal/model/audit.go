package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionCreateDepartment = "CREATE_DEPARTMENT"
	ActionUpdateDepartment = "UPDATE_DEPARTMENT"

	// Workflow administration actions
	ActionCreateWorkflow = "CREATE_WORKFLOW"
	ActionUpdateWorkflow = "UPDATE_WORKFLOW"
	ActionDeleteWorkflow = "DELETE_WORKFLOW"

	// Request lifecycle actions
	ActionCreateRequest  = "CREATE_REQUEST"
	ActionUpdateRequest  = "UPDATE_REQUEST"
	ActionSubmitRequest  = "SUBMIT_REQUEST"
	ActionApproveRequest = "APPROVE_REQUEST"
	ActionDeclineRequest = "DECLINE_REQUEST"
	ActionReturnRequest  = "RETURN_REQUEST"
	ActionCancelRequest  = "CANCEL_REQUEST"
	ActionDeleteRequest  = "DELETE_REQUEST"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/request no)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
