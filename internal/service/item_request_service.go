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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoApprover surfaces as an HTTP 400 with a user-facing message; it is
// a configuration problem, not a server fault.
var ErrNoApprover = errors.New("no approver found, contact administrator")

// --- DTOs ---

type ItemLineInput struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	UnitCost string `json:"unit_cost"`
	Note     string `json:"note"`
}

type CreateItemRequestDTO struct {
	Justification string          `json:"justification" binding:"required"`
	NeededBy      *time.Time      `json:"needed_by"`
	Items         []ItemLineInput `json:"items" binding:"dive"`
}

type UpdateItemRequestDTO struct {
	Justification string          `json:"justification"`
	NeededBy      *time.Time      `json:"needed_by"`
	Items         []ItemLineInput `json:"items" binding:"dive"`
}

type ApprovalActionDTO struct {
	Comments string `json:"comments"`
}

type ReturnActionDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type ItemRequestFilterDTO struct {
	Status string
	Page   int
	Limit  int
}

type ApprovalResponse struct {
	ApprovalType string  `json:"approval_type"`
	Status       string  `json:"status"`
	ApproverName string  `json:"approver_name,omitempty"`
	Comments     string  `json:"comments,omitempty"`
	ReturnReason string  `json:"return_reason,omitempty"`
	ApprovedAt   *string `json:"approved_at,omitempty"`
	DeclinedAt   *string `json:"declined_at,omitempty"`
	ReturnedAt   *string `json:"returned_at,omitempty"`
}

type ItemLineResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	UnitCost string `json:"unit_cost"`
	Note     string `json:"note,omitempty"`
}

type ItemRequestResponse struct {
	ID             string             `json:"id"`
	RequestNo      string             `json:"request_no"`
	RequestorName  string             `json:"requestor_name,omitempty"`
	DepartmentName string             `json:"department_name,omitempty"`
	Justification  string             `json:"justification"`
	NeededBy       *string            `json:"needed_by,omitempty"`
	Status         string             `json:"status"`
	EstimatedTotal string             `json:"estimated_total"`
	Items          []ItemLineResponse `json:"items"`
	Approvals      []ApprovalResponse `json:"approvals,omitempty"`
	CreatedAt      string             `json:"created_at"`
}

// --- Interface ---

type ItemRequestService interface {
	Create(ctx context.Context, userID string, req CreateItemRequestDTO) (*ItemRequestResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateItemRequestDTO) (*ItemRequestResponse, error)
	Get(ctx context.Context, userID, id string) (*ItemRequestResponse, error)
	List(ctx context.Context, userID string, filter ItemRequestFilterDTO) ([]ItemRequestResponse, int64, error)
	Submit(ctx context.Context, userID, id string) (*ItemRequestResponse, error)
	Approve(ctx context.Context, userID, id string, action ApprovalActionDTO) (*ItemRequestResponse, error)
	Decline(ctx context.Context, userID, id string, action ApprovalActionDTO) (*ItemRequestResponse, error)
	Return(ctx context.Context, userID, id string, action ReturnActionDTO) (*ItemRequestResponse, error)
	Cancel(ctx context.Context, userID, id string) (*ItemRequestResponse, error)
	Delete(ctx context.Context, userID, id string) error
}

type itemRequestService struct {
	requests repository.ItemRequestRepository
	users    repository.UserRepository
	audit    repository.AuditRepository
	txm      repository.TransactionManager
	engine   *workflow.Engine
	notifier Notifier
	log      *zap.Logger
}

func NewItemRequestService(
	requests repository.ItemRequestRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txm repository.TransactionManager,
	engine *workflow.Engine,
	notifier Notifier,
	log *zap.Logger,
) ItemRequestService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &itemRequestService{
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

func (s *itemRequestService) Create(ctx context.Context, userID string, req CreateItemRequestDTO) (*ItemRequestResponse, error) {
	actor, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := toItemLines(req.Items)
	if err != nil {
		return nil, err
	}

	request := &model.ItemRequest{
		RequestorID:   actor.ID,
		DepartmentID:  actor.DepartmentID,
		Justification: req.Justification,
		NeededBy:      req.NeededBy,
		Status:        model.ItemStatusDraft,
		Items:         lines,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		no, err := s.requests.NextRequestNo(txCtx)
		if err != nil {
			return fmt.Errorf("failed to allocate request number: %w", err)
		}
		request.RequestNo = no

		if err := s.requests.Create(txCtx, request); err != nil {
			return fmt.Errorf("failed to create item request: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateRequest, request.ID, request.RequestNo, map[string]interface{}{
			"form_type": model.FormTypeItemRequest,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *itemRequestService) Update(ctx context.Context, userID, id string, req UpdateItemRequestDTO) (*ItemRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !workflow.ItemCanEdit(actor, request) {
		return nil, errors.New("request can only be edited by its requestor while draft or returned")
	}

	if req.Justification != "" {
		request.Justification = req.Justification
	}
	if req.NeededBy != nil {
		request.NeededBy = req.NeededBy
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update item request: %w", err)
		}
		if req.Items != nil {
			lines, err := toItemLines(req.Items)
			if err != nil {
				return err
			}
			if err := s.requests.ReplaceLines(txCtx, request.ID, lines); err != nil {
				return fmt.Errorf("failed to replace request lines: %w", err)
			}
		}
		return s.writeAudit(txCtx, actor, model.ActionUpdateRequest, request.ID, request.RequestNo, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *itemRequestService) Get(ctx context.Context, userID, id string) (*ItemRequestResponse, error) {
	_, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := toItemRequestResponse(*request)
	return &resp, nil
}

func (s *itemRequestService) List(ctx context.Context, userID string, filter ItemRequestFilterDTO) ([]ItemRequestResponse, int64, error) {
	actor, err := s.actor(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	repoFilter := repository.ItemRequestFilter{
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

	// Admins and the central approver roles see everything; department
	// approvers see their department; everyone else sees their own.
	switch actor.Role {
	case model.RoleAdmin, model.RoleITManager, model.RoleServiceDesk:
	case model.RoleDepartmentApprover:
		repoFilter.DepartmentID = actor.DepartmentID
	default:
		repoFilter.RequestorID = &actor.ID
	}

	requests, total, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list item requests: %w", err)
	}

	result := make([]ItemRequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toItemRequestResponse(r))
	}
	return result, total, nil
}

func (s *itemRequestService) Submit(ctx context.Context, userID, id string) (*ItemRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !workflow.ItemCanSubmit(actor, request) {
		return nil, errors.New("request cannot be submitted: not the requestor, wrong status, or no line items")
	}

	wctx := workflow.Context{DepartmentID: request.DepartmentID}
	approver, err := s.firstApprover(ctx, wctx)
	if err != nil {
		return nil, err
	}
	if approver == nil {
		return nil, ErrNoApprover
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.UpdateStatus(txCtx, request.ID, model.ItemStatusSubmitted); err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}
		pending := &model.Approval{
			RequestID:    request.ID,
			ApprovalType: model.StageDepartmentApproval,
			Status:       model.ApprovalPending,
		}
		if err := s.requests.UpsertApproval(txCtx, pending); err != nil {
			return fmt.Errorf("failed to create pending approval: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionSubmitRequest, request.ID, request.RequestNo, map[string]interface{}{
			"approver_id": approver.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(Notification{
		Event:         EventApprovalRequested,
		FormType:      model.FormTypeItemRequest,
		RequestID:     request.ID.String(),
		RequestNo:     request.RequestNo,
		Status:        model.ItemStatusSubmitted,
		ApproverID:    approver.ID.String(),
		ApproverEmail: approver.Email,
		Message:       fmt.Sprintf("Item request %s awaits your approval", request.RequestNo),
	})

	return s.reload(ctx, request.ID)
}

func (s *itemRequestService) Approve(ctx context.Context, userID, id string, action ApprovalActionDTO) (*ItemRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	stage, resultStatus, ok := workflow.ItemGatingStage(request.Status)
	if !ok {
		return nil, fmt.Errorf("request in status %s cannot be approved", request.Status)
	}
	if !workflow.ItemCanActOnStage(actor, stage, request) {
		return nil, errors.New("you are not authorized to approve this request at its current stage")
	}

	now := time.Now()
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		approval := &model.Approval{
			RequestID:    request.ID,
			ApprovalType: stage.Type,
			Status:       model.ApprovalApproved,
			ApproverID:   &actor.ID,
			Comments:     action.Comments,
			ApprovedAt:   &now,
		}
		if err := s.requests.UpsertApproval(txCtx, approval); err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}
		if err := s.requests.UpdateStatus(txCtx, request.ID, resultStatus); err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}

		// Open the next stage's record unless the flow re-enters the same
		// stage (the service desk double pass keeps its approved row).
		if next, _, gated := workflow.ItemGatingStage(resultStatus); gated && next.Type != stage.Type {
			pending := &model.Approval{
				RequestID:    request.ID,
				ApprovalType: next.Type,
				Status:       model.ApprovalPending,
			}
			if err := s.requests.UpsertApproval(txCtx, pending); err != nil {
				return fmt.Errorf("failed to open next approval stage: %w", err)
			}
		}

		return s.writeAudit(txCtx, actor, model.ActionApproveRequest, request.ID, request.RequestNo, map[string]interface{}{
			"stage":      stage.Type,
			"new_status": resultStatus,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyAfterItemApproval(ctx, request, stage, resultStatus)

	return s.reload(ctx, request.ID)
}

func (s *itemRequestService) Decline(ctx context.Context, userID, id string, action ApprovalActionDTO) (*ItemRequestResponse, error) {
	return s.reject(ctx, userID, id, model.ApprovalDeclined, model.ItemStatusDeclined,
		model.ActionDeclineRequest, EventRequestDeclined, action.Comments, "")
}

func (s *itemRequestService) Return(ctx context.Context, userID, id string, action ReturnActionDTO) (*ItemRequestResponse, error) {
	return s.reject(ctx, userID, id, model.ApprovalReturned, model.ItemStatusReturned,
		model.ActionReturnRequest, EventRequestReturned, "", action.Reason)
}

// reject covers decline and return, which share their authorization rules:
// only the first two stages admit either.
func (s *itemRequestService) reject(ctx context.Context, userID, id, approvalStatus, requestStatus, auditAction, event, comments, reason string) (*ItemRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !workflow.ItemCanDeclineOrReturn(request.Status) {
		return nil, fmt.Errorf("request in status %s cannot be declined or returned", request.Status)
	}
	stage, _, ok := workflow.ItemGatingStage(request.Status)
	if !ok {
		return nil, fmt.Errorf("request in status %s has no pending stage", request.Status)
	}
	if !workflow.ItemCanActOnStage(actor, stage, request) {
		return nil, errors.New("you are not authorized to act on this request at its current stage")
	}

	now := time.Now()
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		approval := &model.Approval{
			RequestID:    request.ID,
			ApprovalType: stage.Type,
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
			"stage":  stage.Type,
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(Notification{
		Event:     event,
		FormType:  model.FormTypeItemRequest,
		RequestID: request.ID.String(),
		RequestNo: request.RequestNo,
		Status:    requestStatus,
	})

	return s.reload(ctx, request.ID)
}

func (s *itemRequestService) Cancel(ctx context.Context, userID, id string) (*ItemRequestResponse, error) {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !workflow.ItemCanCancel(actor, request) {
		return nil, errors.New("request cannot be cancelled")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.UpdateStatus(txCtx, request.ID, model.ItemStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel request: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionCancelRequest, request.ID, request.RequestNo, nil)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(Notification{
		Event:     EventRequestCancelled,
		FormType:  model.FormTypeItemRequest,
		RequestID: request.ID.String(),
		RequestNo: request.RequestNo,
		Status:    model.ItemStatusCancelled,
	})

	return s.reload(ctx, request.ID)
}

func (s *itemRequestService) Delete(ctx context.Context, userID, id string) error {
	actor, request, err := s.load(ctx, userID, id)
	if err != nil {
		return err
	}
	if !workflow.ItemCanDelete(actor, request) {
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

// firstApprover resolves the first gating approver: through the stored
// workflow when one exists, otherwise through the hardcoded fallback — a
// department approver in the requestor's department.
func (s *itemRequestService) firstApprover(ctx context.Context, wctx workflow.Context) (*model.User, error) {
	res, err := s.engine.ResolveFirstStep(ctx, model.FormTypeItemRequest, wctx)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res.Approver, nil
	}
	return s.users.FirstActiveUserByRole(ctx, model.RoleDepartmentApprover, wctx.DepartmentID)
}

func (s *itemRequestService) notifyAfterItemApproval(ctx context.Context, request *model.ItemRequest, approved workflow.ItemStage, resultStatus string) {
	if resultStatus == model.ItemStatusCompleted {
		s.notifier.Notify(Notification{
			Event:     EventRequestCompleted,
			FormType:  model.FormTypeItemRequest,
			RequestID: request.ID.String(),
			RequestNo: request.RequestNo,
			Status:    resultStatus,
		})
		return
	}

	next, _, gated := workflow.ItemGatingStage(resultStatus)
	if !gated {
		return
	}
	var dept *uuid.UUID
	if next.SameDepartment {
		dept = request.DepartmentID
	}
	approver, err := s.users.FirstActiveUserByRole(ctx, next.ApproverRole, dept)
	if err != nil || approver == nil {
		s.log.Warn("no approver to notify for next item stage",
			zap.String("request_no", request.RequestNo),
			zap.String("stage", next.Type),
			zap.Error(err))
		return
	}
	s.notifier.Notify(Notification{
		Event:         EventApprovalRequested,
		FormType:      model.FormTypeItemRequest,
		RequestID:     request.ID.String(),
		RequestNo:     request.RequestNo,
		Status:        resultStatus,
		ApproverID:    approver.ID.String(),
		ApproverEmail: approver.Email,
		Message:       fmt.Sprintf("Item request %s awaits your approval", request.RequestNo),
	})
}

func (s *itemRequestService) actor(ctx context.Context, userID string) (*model.User, error) {
	actor, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("acting user not found")
	}
	return actor, nil
}

func (s *itemRequestService) load(ctx context.Context, userID, id string) (*model.User, *model.ItemRequest, error) {
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

func (s *itemRequestService) reload(ctx context.Context, id uuid.UUID) (*ItemRequestResponse, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request: %w", err)
	}
	resp := toItemRequestResponse(*request)
	return &resp, nil
}

func (s *itemRequestService) writeAudit(ctx context.Context, actor *model.User, action string, entityID uuid.UUID, entityName string, extra map[string]interface{}) error {
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

func toItemLines(inputs []ItemLineInput) ([]model.ItemRequestLine, error) {
	lines := make([]model.ItemRequestLine, 0, len(inputs))
	for _, in := range inputs {
		cost := decimal.Zero
		if in.UnitCost != "" {
			parsed, err := decimal.NewFromString(in.UnitCost)
			if err != nil {
				return nil, fmt.Errorf("invalid unit_cost %q: %w", in.UnitCost, err)
			}
			cost = parsed
		}
		lines = append(lines, model.ItemRequestLine{
			Name:     in.Name,
			Quantity: in.Quantity,
			UnitCost: cost,
			Note:     in.Note,
		})
	}
	return lines, nil
}

func toItemRequestResponse(r model.ItemRequest) ItemRequestResponse {
	resp := ItemRequestResponse{
		ID:             r.ID.String(),
		RequestNo:      r.RequestNo,
		Justification:  r.Justification,
		Status:         r.Status,
		EstimatedTotal: r.EstimatedTotal().StringFixed(2),
		Items:          make([]ItemLineResponse, 0, len(r.Items)),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if r.Requestor != nil {
		resp.RequestorName = r.Requestor.FullName()
	}
	if r.Department != nil {
		resp.DepartmentName = r.Department.Name
	}
	if r.NeededBy != nil {
		s := r.NeededBy.Format(time.RFC3339)
		resp.NeededBy = &s
	}
	for _, l := range r.Items {
		resp.Items = append(resp.Items, ItemLineResponse{
			ID:       l.ID.String(),
			Name:     l.Name,
			Quantity: l.Quantity,
			UnitCost: l.UnitCost.StringFixed(2),
			Note:     l.Note,
		})
	}
	for _, a := range r.Approvals {
		resp.Approvals = append(resp.Approvals, toApprovalResponse(a))
	}
	return resp
}

func toApprovalResponse(a model.Approval) ApprovalResponse {
	resp := ApprovalResponse{
		ApprovalType: a.ApprovalType,
		Status:       a.Status,
		Comments:     a.Comments,
		ReturnReason: a.ReturnReason,
	}
	if a.Approver != nil {
		resp.ApproverName = a.Approver.FullName()
	}
	resp.ApprovedAt = formatTimePtr(a.ApprovedAt)
	resp.DeclinedAt = formatTimePtr(a.DeclinedAt)
	resp.ReturnedAt = formatTimePtr(a.ReturnedAt)
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
