package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item request statuses. The three intermediate statuses are produced by the
// fixed department -> IT manager -> service desk flow; the service desk stage
// is approved twice (processing, then completed).
const (
	ItemStatusDraft        = "draft"
	ItemStatusSubmitted    = "submitted"
	ItemStatusDeptApproved = "department_approved"
	ItemStatusITApproved   = "it_approved"
	ItemStatusProcessing   = "processing"
	ItemStatusCompleted    = "completed"
	ItemStatusDeclined     = "declined"
	ItemStatusReturned     = "returned"
	ItemStatusCancelled    = "cancelled"
)

// Approval stage types for item requests — fixed, in this order
const (
	StageDepartmentApproval    = "department_approval"
	StageITManagerApproval     = "it_manager_approval"
	StageServiceDeskProcessing = "service_desk_processing"
)

// Approval status values shared by item and vehicle approvals
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalDeclined = "declined"
	ApprovalReturned = "returned"
)

// ItemRequest is an IT equipment request moving through the fixed
// three-stage approval flow.
type ItemRequest struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestNo     string            `gorm:"type:varchar(30);uniqueIndex;not null" json:"request_no"`
	RequestorID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"requestor_id"`
	Requestor     *User             `gorm:"foreignKey:RequestorID" json:"requestor,omitempty"`
	DepartmentID  *uuid.UUID        `gorm:"type:uuid;index" json:"department_id"`
	Department    *Department       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Justification string            `gorm:"type:text" json:"justification"`
	NeededBy      *time.Time        `json:"needed_by"`
	Status        string            `gorm:"type:varchar(30);not null;default:'draft';index" json:"status"`
	Items         []ItemRequestLine `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items"`
	Approvals     []Approval        `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"approvals,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ItemRequestLine is a single requested item with an estimated cost
type ItemRequestLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"unit_cost"`
	Note      string          `gorm:"type:text" json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

// LineTotal returns quantity * unit cost for one line
func (l ItemRequestLine) LineTotal() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// EstimatedTotal sums all line totals
func (r *ItemRequest) EstimatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Items {
		total = total.Add(l.LineTotal())
	}
	return total
}

// IsTerminal reports whether no further approval can act on the request
func (r *ItemRequest) IsTerminal() bool {
	return r.Status == ItemStatusCompleted || r.Status == ItemStatusDeclined || r.Status == ItemStatusCancelled
}

// Approval is one approval record per (request, stage) for item requests.
// The unique index is the only race guard between two approvers acting on
// the same stage; writers must upsert, not read-then-write.
type Approval struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_item_approval_stage" json:"request_id"`
	ApprovalType string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_item_approval_stage" json:"approval_type"`
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
