package model

import (
	"time"

	"github.com/google/uuid"
)

// FormType identifies which request category a workflow applies to
const (
	FormTypeItemRequest    = "item_request"
	FormTypeVehicleRequest = "vehicle_request"
)

// ApproverType enum constants — how a step resolves its approver
const (
	ApproverTypeRole               = "role"
	ApproverTypeUser               = "user"
	ApproverTypeDepartment         = "department"
	ApproverTypeDepartmentApprover = "department_approver"
)

// Workflow is a named, ordered approval sequence for one form type.
// At most one workflow per form type is active+default at a time; the
// workflow service enforces that at write time, the engine assumes it.
type Workflow struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FormType  string         `gorm:"type:varchar(30);not null;index" json:"form_type"` // item_request, vehicle_request
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	IsDefault bool           `gorm:"default:false;index" json:"is_default"`
	Steps     []WorkflowStep `gorm:"foreignKey:WorkflowID;constraint:OnDelete:CASCADE" json:"steps"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// WorkflowStep is one stage in a workflow. StepOrder defines the total
// order within the workflow; it is unique but not necessarily contiguous,
// so steps must always be read ascending.
type WorkflowStep struct {
	ID                     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkflowID             uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_workflow_step_order" json:"workflow_id"`
	StepOrder              int        `gorm:"not null;uniqueIndex:idx_workflow_step_order" json:"step_order"`
	StepName               string     `gorm:"type:varchar(255);not null" json:"step_name"`
	ApproverType           string     `gorm:"type:varchar(30);not null" json:"approver_type"` // role, user, department, department_approver
	ApproverRole           string     `gorm:"type:varchar(50)" json:"approver_role"`
	ApproverUserID         *uuid.UUID `gorm:"type:uuid" json:"approver_user_id"`
	ApproverDepartmentID   *uuid.UUID `gorm:"type:uuid" json:"approver_department_id"`
	RequiresSameDepartment bool       `gorm:"default:false" json:"requires_same_department"`
	StatusOnApproval       string     `gorm:"type:varchar(50);not null" json:"status_on_approval"`
	StatusOnCompletion     string     `gorm:"type:varchar(50)" json:"status_on_completion"` // overrides StatusOnApproval on the last step
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
