package workflow

import (
	"backend/internal/model"
)

// Vehicle requests are fully workflow-driven: who may approve is answered
// by the Locator against the active workflow, so the guards here cover
// only the requestor-side transitions.

// VehicleCanEdit: the requestor while draft or returned, or an admin.
func VehicleCanEdit(u *model.User, req *model.VehicleRequest) bool {
	if u == nil {
		return false
	}
	if u.Role == model.RoleAdmin {
		return true
	}
	return u.ID == req.RequestorID &&
		(req.Status == model.VehicleStatusDraft || req.Status == model.VehicleStatusReturned)
}

// VehicleCanSubmit: requestor or admin, from draft or returned.
func VehicleCanSubmit(u *model.User, req *model.VehicleRequest) bool {
	if u == nil {
		return false
	}
	if u.Role != model.RoleAdmin && u.ID != req.RequestorID {
		return false
	}
	return req.Status == model.VehicleStatusDraft || req.Status == model.VehicleStatusReturned
}

// VehicleCanCancel: requestor or admin, while the request is not terminal.
func VehicleCanCancel(u *model.User, req *model.VehicleRequest) bool {
	if u == nil {
		return false
	}
	if u.Role != model.RoleAdmin && u.ID != req.RequestorID {
		return false
	}
	return !req.IsTerminal()
}

// VehicleCanDelete: requestor or admin, drafts only.
func VehicleCanDelete(u *model.User, req *model.VehicleRequest) bool {
	if u == nil {
		return false
	}
	if u.Role != model.RoleAdmin && u.ID != req.RequestorID {
		return false
	}
	return req.Status == model.VehicleStatusDraft
}

// VehicleCanDeclineOrReturn reports whether the status admits a decline or
// return at all. Unlike item requests, any approval-gated status allows
// both; authorization for the acting user still goes through the Locator.
func VehicleCanDeclineOrReturn(status string) bool {
	switch status {
	case model.VehicleStatusDraft, model.VehicleStatusCompleted,
		model.VehicleStatusDeclined, model.VehicleStatusCancelled:
		return false
	}
	return true
}
