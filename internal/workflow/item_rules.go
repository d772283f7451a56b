package workflow

import (
	"backend/internal/model"
)

// ItemStage is one stage of the fixed item request flow. Item requests do
// not depend on a stored workflow: when none exists their three stages are
// hardcoded, which is also the fallback when a stored workflow resolves
// no approver.
type ItemStage struct {
	Type             string
	ApproverRole     string
	SameDepartment   bool
	StatusOnApproval string
}

// The fixed flow: department approval, IT manager approval, then service
// desk processing. The service desk stage is approved twice — the first
// approval moves the request to processing, the second completes it.
var itemStages = []ItemStage{
	{
		Type:             model.StageDepartmentApproval,
		ApproverRole:     model.RoleDepartmentApprover,
		SameDepartment:   true,
		StatusOnApproval: model.ItemStatusDeptApproved,
	},
	{
		Type:             model.StageITManagerApproval,
		ApproverRole:     model.RoleITManager,
		StatusOnApproval: model.ItemStatusITApproved,
	},
	{
		Type:             model.StageServiceDeskProcessing,
		ApproverRole:     model.RoleServiceDesk,
		StatusOnApproval: model.ItemStatusProcessing,
	},
}

// ItemStages returns the fixed stage list in order.
func ItemStages() []ItemStage {
	stages := make([]ItemStage, len(itemStages))
	copy(stages, itemStages)
	return stages
}

// ItemGatingStage maps a request status to the stage currently awaiting
// approval and the status that approval produces. ok is false for draft
// and terminal statuses, where nothing gates the request.
func ItemGatingStage(status string) (stage ItemStage, resultStatus string, ok bool) {
	switch status {
	case model.ItemStatusSubmitted, model.ItemStatusReturned:
		return itemStages[0], itemStages[0].StatusOnApproval, true
	case model.ItemStatusDeptApproved:
		return itemStages[1], itemStages[1].StatusOnApproval, true
	case model.ItemStatusITApproved:
		return itemStages[2], itemStages[2].StatusOnApproval, true
	case model.ItemStatusProcessing:
		// Second pass through the service desk stage completes the request.
		return itemStages[2], model.ItemStatusCompleted, true
	default:
		return ItemStage{}, "", false
	}
}

// ItemCanActOnStage reports whether the user is authorized to approve the
// given stage of the request. Admins always may; otherwise the role must
// match and, for department-scoped stages, the departments must agree.
func ItemCanActOnStage(u *model.User, stage ItemStage, req *model.ItemRequest) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.Role == model.RoleAdmin {
		return true
	}
	if u.Role != stage.ApproverRole {
		return false
	}
	if stage.SameDepartment {
		if u.DepartmentID == nil || req.DepartmentID == nil {
			return false
		}
		return *u.DepartmentID == *req.DepartmentID
	}
	return true
}

// ItemCanDeclineOrReturn reports whether decline/return is permitted at
// the current status. Only the first two stages allow it; once the service
// desk holds the request it can only move forward or be cancelled.
func ItemCanDeclineOrReturn(status string) bool {
	switch status {
	case model.ItemStatusSubmitted, model.ItemStatusReturned, model.ItemStatusDeptApproved:
		return true
	}
	return false
}

// ItemCanEdit: the requestor while draft or returned, or an admin.
func ItemCanEdit(u *model.User, req *model.ItemRequest) bool {
	if u == nil {
		return false
	}
	if u.Role == model.RoleAdmin {
		return true
	}
	return u.ID == req.RequestorID &&
		(req.Status == model.ItemStatusDraft || req.Status == model.ItemStatusReturned)
}

// ItemCanSubmit: requestor or admin, from draft or returned, with at least
// one line item.
func ItemCanSubmit(u *model.User, req *model.ItemRequest) bool {
	if u == nil {
		return false
	}
	if u.Role != model.RoleAdmin && u.ID != req.RequestorID {
		return false
	}
	if req.Status != model.ItemStatusDraft && req.Status != model.ItemStatusReturned {
		return false
	}
	return len(req.Items) > 0
}

// ItemCanCancel: requestor or admin, while the request is not terminal.
func ItemCanCancel(u *model.User, req *model.ItemRequest) bool {
	if u == nil {
		return false
	}
	if u.Role != model.RoleAdmin && u.ID != req.RequestorID {
		return false
	}
	return !req.IsTerminal()
}

// ItemCanDelete: requestor or admin, drafts only.
func ItemCanDelete(u *model.User, req *model.ItemRequest) bool {
	if u == nil {
		return false
	}
	if u.Role != model.RoleAdmin && u.ID != req.RequestorID {
		return false
	}
	return req.Status == model.ItemStatusDraft
}
