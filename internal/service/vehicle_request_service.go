package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoWorkflow blocks vehicle submissions when no active workflow exists;
// unlike item requests there is no hardcoded fallback flow.
var ErrNoWorkflow = errors.New("no approval workflow configured for vehicle requests")

// --- DTOs ---

type CreateVehicleRequestDTO struct {
	Purpose        string     `json:"purpose" binding:"required"`
	Destination    string     `json:"destination"`
	PassengerCount int        `json:"passenger_count" binding:"omitempty,gt=0"`
	DepartAt       *time.Time `json:"depart_at"`
	ReturnAt       *time.Time `json:"return_at"`
}

type UpdateVehicleRequestDTO struct {
	Purpose        string     `json:"purpose"`
	Destination    string     `json:"destination"`
	PassengerCount int        `json:"passenger_count" binding:"omitempty,gt=0"`
	DepartAt       *time.Time `json:"depart_at"`
	ReturnAt       *time.Time `json:"return_at"`
}

type VehicleRequestFilterDTO struct {
	Status string
	Page   int
	Limit  int
}

type VehicleApprovalResponse struct {
	StepOrder    int     `json:"step_order"`
	StepName     string  `json:"step_name"`
	Status       string  `json:"status"`
	ApproverName string  `json:"approver_name,omitempty"`
	Comments     string  `json:"comments,omitempty"`
	ReturnReason string  `json:"return_reason,omitempty"`
	ApprovedAt   *string `json:"approved_at,omitempty"`
	DeclinedAt   *string `json:"declined_at,omitempty"`
	ReturnedAt   *string `json:"returned_at,omitempty"`
}

type VehicleRequestResponse struct {
	ID             string                    `json:"id"`
	RequestNo      string                    `json:"request_no"`
	RequestorName  string                    `json:"requestor_name,omitempty"`
	DepartmentName string                    `json:"department_name,omitempty"`
	Purpose        string                    `json:"purpose"`
	Destination    string                    `json:"destination,omitempty"`
	PassengerCount int                       `json:"passenger_count"`
	DepartAt       *string                   `json:"depart_at,omitempty"`
	ReturnAt       *string                   `json:"return_at,omitempty"`
	Status         string                    `json:"status"`
	Approvals      []VehicleApprovalResponse `json:"approvals,omitempty"`
	CreatedAt      string                    `json:"created_at"`
}

// --- Interface ---

type VehicleRequestService interface {
	Create(ctx context.Context, userID string, req CreateVehicleRequestDTO) (*VehicleRequestResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateVehicleRequestDTO) (*VehicleRequestResponse, error)
	Get(ctx context.Context, userID, id string) (*VehicleRequestResponse, error)
	List(ctx context.Context, userID string, filter VehicleRequestFilterDTO) ([]VehicleRequestResponse, int64, error)
	Submit(ctx context.Context, userID, id string) (*VehicleRequestResponse, error)
	Approve(ctx context.Context, userID, id string, action ApprovalActionDTO) (*VehicleRequestResponse, error)
	Decline(ctx context.Context, userID, id string, action ApprovalActionDTO) (*VehicleRequestResponse, error)
	Return(ctx context.Context, userID, id string, action ReturnActionDTO) (*VehicleRequestResponse, error)
	Cancel(ctx context.Context, userID, id string) (*VehicleRequestResponse, error)
	Delete(ctx context.Context, userID, id string) error
}

type vehicleRequestService struct {
	requests repository.VehicleRequestRepository
	users    repository.UserRepository
	audit    repository.AuditRepository
	txm      repository.TransactionManager
	engine   *workflow.Engine
	notifier Notifier
	log      *zap.Logger
}

func NewVehicleRequestService(
	requests repository.VehicleRequestRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txm repository.TransactionManager,
	engine *workflow.Engine,
	notifier Notifier,
	log *zap.Logger,
) VehicleRequestService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &vehicleRequestService{
		requests: requests,
		users:    users,
		audit:    audit,
		txm:      txm,
		engine:   engine,
		notifier: notifier,
		log:      log,
	}
}

// --- Implementation ---

func (s *vehicleRequestService) Create(ctx context.Context, userID string, req CreateVehicleRequestDTO) (*VehicleRequestResponse, error) {
	actor, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}

	passengers := req.PassengerCount
	if passengers <= 0 {
		passengers = 1
	}
	request := &model.VehicleRequest{
		RequestorID:    actor.ID,
		DepartmentID:   actor.DepartmentID,
		Purpose:        req.Purpose,
		Destination:    req.Destination,
		PassengerCount: passengers,
		DepartAt:       req.DepartAt,
		ReturnAt:       req.ReturnAt,
		Status:         model.VehicleStatusDraft,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		no, err := s.requests.NextRequestNo(txCtx)
		if err != nil {
			return fmt.Errorf("failed to allocate request number: %w", err)
		}
		request.RequestNo = no

		if err := s.requests.Create(txCtx, request); err != nil {
			return fmt.Errorf("failed to create vehicle request: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateRequest, request.ID, request.RequestNo, map[string]interface{}{
			"form_type": model.FormTypeVehicleRequest,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *vehicleRequestService) Update(ctx context.Context, userID, id string, req UpdateVehicleRequestDTO) (*VehicleRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !workflow.VehicleCanEdit(actor, request) {
		return nil, errors.New("request can only be edited by its requestor while draft or returned")
	}

	if req.Purpose != "" {
		request.Purpose = req.Purpose
	}
	if req.Destination != "" {
		request.Destination = req.Destination
	}
	if req.PassengerCount > 0 {
		request.PassengerCount = req.PassengerCount
	}
	if req.DepartAt != nil {
		request.DepartAt = req.DepartAt
	}
	if req.ReturnAt != nil {
		request.ReturnAt = req.ReturnAt
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update vehicle request: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionUpdateRequest, request.ID, request.RequestNo, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *vehicleRequestService) Get(ctx context.Context, userID, id string) (*VehicleRequestResponse, error) {
	_, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := toVehicleRequestResponse(*request)
	return &resp, nil
}

func (s *vehicleRequestService) List(ctx context.Context, userID string, filter VehicleRequestFilterDTO) ([]VehicleRequestResponse, int64, error) {
	actor, err := s.actor(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	repoFilter := repository.VehicleRequestFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	switch actor.Role {
	case model.RoleAdmin, model.RoleITManager, model.RoleServiceDesk:
	case model.RoleDepartmentApprover:
		repoFilter.DepartmentID = actor.DepartmentID
	default:
		repoFilter.RequestorID = &actor.ID
	}

	requests, total, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicle requests: %w", err)
	}

	result := make([]VehicleRequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toVehicleRequestResponse(r))
	}
	return result, total, nil
}

func (s *vehicleRequestService) Submit(ctx context.Context, userID, id string) (*VehicleRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !workflow.VehicleCanSubmit(actor, request) {
		return nil, errors.New("request cannot be submitted: not the requestor or wrong status")
	}

	wctx := workflow.Context{DepartmentID: request.DepartmentID}
	res, err := s.engine.ResolveFirstStep(ctx, model.FormTypeVehicleRequest, wctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		// Distinguish a missing workflow from an unresolvable approver so
		// the admin knows which to fix.
		has, err := s.engine.HasWorkflow(ctx, model.FormTypeVehicleRequest)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, ErrNoWorkflow
		}
		return nil, ErrNoApprover
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.UpdateStatus(txCtx, request.ID, model.VehicleStatusSubmitted); err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}
		pending := &model.VehicleApproval{
			RequestID: request.ID,
			StepOrder: res.Step.StepOrder,
			StepName:  res.Step.StepName,
			Status:    model.ApprovalPending,
		}
		if err := s.requests.UpsertApproval(txCtx, pending); err != nil {
			return fmt.Errorf("failed to create pending approval: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionSubmitRequest, request.ID, request.RequestNo, map[string]interface{}{
			"step_order":  res.Step.StepOrder,
			"approver_id": res.Approver.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(Notification{
		Event:         EventApprovalRequested,
		FormType:      model.FormTypeVehicleRequest,
		RequestID:     request.ID.String(),
		RequestNo:     request.RequestNo,
		Status:        model.VehicleStatusSubmitted,
		ApproverID:    res.Approver.ID.String(),
		ApproverEmail: res.Approver.Email,
		Message:       fmt.Sprintf("Vehicle request %s awaits your approval", request.RequestNo),
	})

	return s.reload(ctx, request.ID)
}

func (s *vehicleRequestService) Approve(ctx context.Context, userID, id string, action ApprovalActionDTO) (*VehicleRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if request.IsTerminal() || request.Status == model.VehicleStatusDraft {
		return nil, fmt.Errorf("request in status %s cannot be approved", request.Status)
	}

	wctx := workflow.Context{DepartmentID: request.DepartmentID}
	step, err := s.engine.Locator().CurrentStepForApprover(ctx, model.FormTypeVehicleRequest, actor, request.Status, wctx)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, errors.New("you are not authorized to approve this request at its current status")
	}

	next, err := s.engine.ResolveNextStep(ctx, model.FormTypeVehicleRequest, wctx, step.StepOrder)
	if err != nil {
		return nil, err
	}
	// A later step may exist whose approver is unresolvable; the position
	// still decides whether this approval is terminal.
	following, err := s.engine.NextStep(ctx, model.FormTypeVehicleRequest, step.StepOrder)
	if err != nil {
		return nil, err
	}
	isLast := following == nil
	newStatus := s.engine.StatusOnApproval(step, isLast)

	now := time.Now()
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		approval := &model.VehicleApproval{
			RequestID:  request.ID,
			StepOrder:  step.StepOrder,
			StepName:   step.StepName,
			Status:     model.ApprovalApproved,
			ApproverID: &actor.ID,
			Comments:   action.Comments,
			ApprovedAt: &now,
		}
		if err := s.requests.UpsertApproval(txCtx, approval); err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}
		if err := s.requests.UpdateStatus(txCtx, request.ID, newStatus); err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}
		if next != nil {
			pending := &model.VehicleApproval{
				RequestID: request.ID,
				StepOrder: next.Step.StepOrder,
				StepName:  next.Step.StepName,
				Status:    model.ApprovalPending,
			}
			if err := s.requests.UpsertApproval(txCtx, pending); err != nil {
				return fmt.Errorf("failed to open next approval step: %w", err)
			}
		}
		return s.writeAudit(txCtx, actor, model.ActionApproveRequest, request.ID, request.RequestNo, map[string]interface{}{
			"step_order": step.StepOrder,
			"new_status": newStatus,
		})
	})
	if err != nil {
		return nil, err
	}

	if next != nil {
		s.notifier.Notify(Notification{
			Event:         EventApprovalRequested,
			FormType:      model.FormTypeVehicleRequest,
			RequestID:     request.ID.String(),
			RequestNo:     request.RequestNo,
			Status:        newStatus,
			ApproverID:    next.Approver.ID.String(),
			ApproverEmail: next.Approver.Email,
			Message:       fmt.Sprintf("Vehicle request %s awaits your approval", request.RequestNo),
		})
	} else if isLast {
		s.notifier.Notify(Notification{
			Event:     EventRequestCompleted,
			FormType:  model.FormTypeVehicleRequest,
			RequestID: request.ID.String(),
			RequestNo: request.RequestNo,
			Status:    newStatus,
		})
	} else {
		s.log.Warn("approval applied but next step approver is unresolvable",
			zap.String("request_no", request.RequestNo),
			zap.Int("step_order", step.StepOrder))
	}

	return s.reload(ctx, request.ID)
}

func (s *vehicleRequestService) Decline(ctx context.Context, userID, id string, action ApprovalActionDTO) (*VehicleRequestResponse, error) {
	return s.reject(ctx, userID, id, model.ApprovalDeclined, model.VehicleStatusDeclined,
		model.ActionDeclineRequest, EventRequestDeclined, action.Comments, "")
}

func (s *vehicleRequestService) Return(ctx context.Context, userID, id string, action ReturnActionDTO) (*VehicleRequestResponse, error) {
	return s.reject(ctx, userID, id, model.ApprovalReturned, model.VehicleStatusReturned,
		model.ActionReturnRequest, EventRequestReturned, "", action.Reason)
}

func (s *vehicleRequestService) reject(ctx context.Context, userID, id, approvalStatus, requestStatus, auditAction, event, comments, reason string) (*VehicleRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !workflow.VehicleCanDeclineOrReturn(request.Status) {
		return nil, fmt.Errorf("request in status %s cannot be declined or returned", request.Status)
	}

	wctx := workflow.Context{DepartmentID: request.DepartmentID}
	step, err := s.engine.Locator().CurrentStepForApprover(ctx, model.FormTypeVehicleRequest, actor, request.Status, wctx)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, errors.New("you are not authorized to act on this request at its current status")
	}

	now := time.Now()
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		approval := &model.VehicleApproval{
			RequestID:    request.ID,
			StepOrder:    step.StepOrder,
			StepName:     step.StepName,
			Status:       approvalStatus,
			ApproverID:   &actor.ID,
			Comments:     comments,
			ReturnReason: reason,
		}
		if approvalStatus == model.ApprovalDeclined {
			approval.DeclinedAt = &now
		} else {
			approval.ReturnedAt = &now
		}
		if err := s.requests.UpsertApproval(txCtx, approval); err != nil {
			return fmt.Errorf("failed to record decision: %w", err)
		}
		if err := s.requests.UpdateStatus(txCtx, request.ID, requestStatus); err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}
		return s.writeAudit(txCtx, actor, auditAction, request.ID, request.RequestNo, map[string]interface{}{
			"step_order": step.StepOrder,
			"reason":     reason,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(Notification{
		Event:     event,
		FormType:  model.FormTypeVehicleRequest,
		RequestID: request.ID.String(),
		RequestNo: request.RequestNo,
		Status:    requestStatus,
	})

	return s.reload(ctx, request.ID)
}

func (s *vehicleRequestService) Cancel(ctx context.Context, userID, id string) (*VehicleRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !workflow.VehicleCanCancel(actor, request) {
		return nil, errors.New("request cannot be cancelled")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.UpdateStatus(txCtx, request.ID, model.VehicleStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel request: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionCancelRequest, request.ID, request.RequestNo, nil)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(Notification{
		Event:     EventRequestCancelled,
		FormType:  model.FormTypeVehicleRequest,
		RequestID: request.ID.String(),
		RequestNo: request.RequestNo,
		Status:    model.VehicleStatusCancelled,
	})

	return s.reload(ctx, request.ID)
}

func (s *vehicleRequestService) Delete(ctx context.Context, userID, id string) error {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return err
	}
	if !workflow.VehicleCanDelete(actor, request) {
		return errors.New("only draft requests can be deleted by their requestor")
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Delete(txCtx, request.ID); err != nil {
			return fmt.Errorf("failed to delete request: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionDeleteRequest, request.ID, request.RequestNo, nil)
	})
}

// --- Helpers ---

func (s *vehicleRequestService) actor(ctx context.Context, userID string) (*model.User, error) {
	actor, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("acting user not found")
	}
	return actor, nil
}

func (s *vehicleRequestService) load(ctx context.Context, userID, id string) (*model.User, *model.VehicleRequest, error) {
	actor, err := s.actor(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid request id: %w", err)
	}
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, errors.New("request not found")
	}
	return actor, request, nil
}

func (s *vehicleRequestService) reload(ctx context.Context, id uuid.UUID) (*VehicleRequestResponse, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request: %w", err)
	}
	resp := toVehicleRequestResponse(*request)
	return &resp, nil
}

func (s *vehicleRequestService) writeAudit(ctx context.Context, actor *model.User, action string, entityID uuid.UUID, entityName string, extra map[string]interface{}) error {
	details, _ := json.Marshal(extra)
	entry := &model.AuditLog{
		UserID:     &actor.ID,
		Action:     action,
		EntityID:   entityID.String(),
		EntityName: entityName,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toVehicleRequestResponse(r model.VehicleRequest) VehicleRequestResponse {
	resp := VehicleRequestResponse{
		ID:             r.ID.String(),
		RequestNo:      r.RequestNo,
		Purpose:        r.Purpose,
		Destination:    r.Destination,
		PassengerCount: r.PassengerCount,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if r.Requestor != nil {
		resp.RequestorName = r.Requestor.FullName()
	}
	if r.Department != nil {
		resp.DepartmentName = r.Department.Name
	}
	resp.DepartAt = formatTimePtr(r.DepartAt)
	resp.ReturnAt = formatTimePtr(r.ReturnAt)
	for _, a := range r.Approvals {
		resp.Approvals = append(resp.Approvals, VehicleApprovalResponse{
			StepOrder:    a.StepOrder,
			StepName:     a.StepName,
			Status:       a.Status,
			ApproverName: approverName(a.Approver),
			Comments:     a.Comments,
			ReturnReason: a.ReturnReason,
			ApprovedAt:   formatTimePtr(a.ApprovedAt),
			DeclinedAt:   formatTimePtr(a.DeclinedAt),
			ReturnedAt:   formatTimePtr(a.ReturnedAt),
		})
	}
	return resp
}

func approverName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.FullName()
}
