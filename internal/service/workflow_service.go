package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

type WorkflowStepInput struct {
	StepOrder              int    `json:"step_order" binding:"required,gt=0"`
	StepName               string `json:"step_name" binding:"required"`
	ApproverType           string `json:"approver_type" binding:"required,oneof=role user department department_approver"`
	ApproverRole           string `json:"approver_role"`
	ApproverUserID         string `json:"approver_user_id"`
	ApproverDepartmentID   string `json:"approver_department_id"`
	RequiresSameDepartment bool   `json:"requires_same_department"`
	StatusOnApproval       string `json:"status_on_approval" binding:"required"`
	StatusOnCompletion     string `json:"status_on_completion"`
}

type CreateWorkflowDTO struct {
	FormType  string              `json:"form_type" binding:"required,oneof=item_request vehicle_request"`
	Name      string              `json:"name" binding:"required"`
	IsActive  *bool               `json:"is_active"`
	IsDefault bool                `json:"is_default"`
	Steps     []WorkflowStepInput `json:"steps" binding:"required,min=1,dive"`
}

type UpdateWorkflowDTO struct {
	Name      string              `json:"name"`
	IsActive  *bool               `json:"is_active"`
	IsDefault *bool               `json:"is_default"`
	Steps     []WorkflowStepInput `json:"steps" binding:"omitempty,min=1,dive"`
}

type WorkflowStepResponse struct {
	ID                     string `json:"id"`
	StepOrder              int    `json:"step_order"`
	StepName               string `json:"step_name"`
	ApproverType           string `json:"approver_type"`
	ApproverRole           string `json:"approver_role,omitempty"`
	ApproverUserID         string `json:"approver_user_id,omitempty"`
	ApproverDepartmentID   string `json:"approver_department_id,omitempty"`
	RequiresSameDepartment bool   `json:"requires_same_department"`
	StatusOnApproval       string `json:"status_on_approval"`
	StatusOnCompletion     string `json:"status_on_completion,omitempty"`
}

type WorkflowResponse struct {
	ID        string                 `json:"id"`
	FormType  string                 `json:"form_type"`
	Name      string                 `json:"name"`
	IsActive  bool                   `json:"is_active"`
	IsDefault bool                   `json:"is_default"`
	Steps     []WorkflowStepResponse `json:"steps"`
	CreatedAt string                 `json:"created_at"`
}

// --- Interface ---

type WorkflowService interface {
	Create(ctx context.Context, userID string, req CreateWorkflowDTO) (*WorkflowResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateWorkflowDTO) (*WorkflowResponse, error)
	Get(ctx context.Context, id string) (*WorkflowResponse, error)
	List(ctx context.Context, formType string, page, limit int) ([]WorkflowResponse, int64, error)
	Delete(ctx context.Context, userID, id string) error
}

type workflowService struct {
	workflows repository.WorkflowRepository
	vehicles  repository.VehicleRequestRepository
	users     repository.UserRepository
	audit     repository.AuditRepository
	txm       repository.TransactionManager
	log       *zap.Logger
}

func NewWorkflowService(
	workflows repository.WorkflowRepository,
	vehicles repository.VehicleRequestRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txm repository.TransactionManager,
	log *zap.Logger,
) WorkflowService {
	return &workflowService{
		workflows: workflows,
		vehicles:  vehicles,
		users:     users,
		audit:     audit,
		txm:       txm,
		log:       log,
	}
}

// --- Implementation ---

func (s *workflowService) Create(ctx context.Context, userID string, req CreateWorkflowDTO) (*WorkflowResponse, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	steps, err := buildSteps(req.Steps)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	wf := &model.Workflow{
		FormType:  req.FormType,
		Name:      req.Name,
		IsActive:  active,
		IsDefault: req.IsDefault,
		Steps:     steps,
		CreatedBy: &actorID,
		UpdatedBy: &actorID,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.workflows.Create(txCtx, wf); err != nil {
			return fmt.Errorf("failed to create workflow: %w", err)
		}
		if wf.IsDefault {
			if err := s.workflows.DemoteDefaults(txCtx, wf.FormType, wf.ID); err != nil {
				return fmt.Errorf("failed to demote previous default workflow: %w", err)
			}
		}
		return s.auditWorkflow(txCtx, actorID, model.ActionCreateWorkflow, wf)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, wf.ID.String())
}

func (s *workflowService) Update(ctx context.Context, userID, id string, req UpdateWorkflowDTO) (*WorkflowResponse, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	wfID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow id: %w", err)
	}

	wf, err := s.workflows.FindByID(ctx, wfID)
	if err != nil {
		return nil, errors.New("workflow not found")
	}

	if req.Name != "" {
		wf.Name = req.Name
	}
	if req.IsActive != nil {
		wf.IsActive = *req.IsActive
	}
	if req.IsDefault != nil {
		wf.IsDefault = *req.IsDefault
	}
	wf.UpdatedBy = &actorID

	var steps []model.WorkflowStep
	if req.Steps != nil {
		steps, err = buildSteps(req.Steps)
		if err != nil {
			return nil, err
		}
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.workflows.Update(txCtx, wf); err != nil {
			return fmt.Errorf("failed to update workflow: %w", err)
		}
		if steps != nil {
			if err := s.workflows.ReplaceSteps(txCtx, wf.ID, steps); err != nil {
				return fmt.Errorf("failed to replace workflow steps: %w", err)
			}
		}
		if wf.IsDefault {
			if err := s.workflows.DemoteDefaults(txCtx, wf.FormType, wf.ID); err != nil {
				return fmt.Errorf("failed to demote previous default workflow: %w", err)
			}
		}
		return s.auditWorkflow(txCtx, actorID, model.ActionUpdateWorkflow, wf)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, wf.ID.String())
}

func (s *workflowService) Get(ctx context.Context, id string) (*WorkflowResponse, error) {
	wfID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow id: %w", err)
	}
	wf, err := s.workflows.FindByID(ctx, wfID)
	if err != nil {
		return nil, errors.New("workflow not found")
	}
	resp := toWorkflowResponse(*wf)
	return &resp, nil
}

func (s *workflowService) List(ctx context.Context, formType string, page, limit int) ([]WorkflowResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	workflows, total, err := s.workflows.List(ctx, formType, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}
	result := make([]WorkflowResponse, 0, len(workflows))
	for _, wf := range workflows {
		result = append(result, toWorkflowResponse(wf))
	}
	return result, total, nil
}

// Delete removes a workflow. The default workflow cannot be deleted, and
// neither can one that still gates in-flight vehicle requests: their
// statuses would no longer map to any step.
func (s *workflowService) Delete(ctx context.Context, userID, id string) error {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	wfID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid workflow id: %w", err)
	}

	wf, err := s.workflows.FindByID(ctx, wfID)
	if err != nil {
		return errors.New("workflow not found")
	}
	if wf.IsDefault {
		return errors.New("the default workflow cannot be deleted; set another default first")
	}

	if wf.FormType == model.FormTypeVehicleRequest {
		statuses := []string{model.VehicleStatusSubmitted, model.VehicleStatusReturned}
		for _, step := range wf.Steps {
			if st := strings.TrimSpace(step.StatusOnApproval); st != "" {
				statuses = append(statuses, st)
			}
		}
		inFlight, err := s.vehicles.CountByStatuses(ctx, statuses)
		if err != nil {
			return fmt.Errorf("failed to check in-flight requests: %w", err)
		}
		if inFlight > 0 {
			return fmt.Errorf("workflow has %d request(s) in flight and cannot be deleted", inFlight)
		}
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.workflows.Delete(txCtx, wf.ID); err != nil {
			return fmt.Errorf("failed to delete workflow: %w", err)
		}
		return s.auditWorkflow(txCtx, actorID, model.ActionDeleteWorkflow, wf)
	})
}

// --- Helpers ---

// buildSteps validates the step set as a unit: step orders positive and
// unique, approver parameters consistent with the approver type, and
// status_on_approval values non-blank, unique, and outside the reserved
// statuses the engine maps to the first step.
func buildSteps(inputs []WorkflowStepInput) ([]model.WorkflowStep, error) {
	orders := make(map[int]bool, len(inputs))
	statuses := make(map[string]bool, len(inputs))
	steps := make([]model.WorkflowStep, 0, len(inputs))

	for i, in := range inputs {
		if orders[in.StepOrder] {
			return nil, fmt.Errorf("duplicate step_order %d", in.StepOrder)
		}
		orders[in.StepOrder] = true

		status := strings.TrimSpace(in.StatusOnApproval)
		if status == "" {
			return nil, fmt.Errorf("step %d: status_on_approval must not be blank", in.StepOrder)
		}
		switch status {
		case model.VehicleStatusDraft, model.VehicleStatusSubmitted, model.VehicleStatusReturned,
			model.VehicleStatusDeclined, model.VehicleStatusCancelled:
			return nil, fmt.Errorf("step %d: status_on_approval %q is reserved", in.StepOrder, status)
		}
		if statuses[status] {
			return nil, fmt.Errorf("status_on_approval %q appears on more than one step", status)
		}
		statuses[status] = true

		step := model.WorkflowStep{
			StepOrder:              in.StepOrder,
			StepName:               in.StepName,
			ApproverType:           in.ApproverType,
			ApproverRole:           in.ApproverRole,
			RequiresSameDepartment: in.RequiresSameDepartment,
			StatusOnApproval:       status,
			StatusOnCompletion:     strings.TrimSpace(in.StatusOnCompletion),
		}

		switch in.ApproverType {
		case model.ApproverTypeRole:
			if in.ApproverRole == "" {
				return nil, fmt.Errorf("step %d: approver_type role requires approver_role", in.StepOrder)
			}
		case model.ApproverTypeUser:
			if in.ApproverUserID == "" {
				return nil, fmt.Errorf("step %d: approver_type user requires approver_user_id", in.StepOrder)
			}
		case model.ApproverTypeDepartment, model.ApproverTypeDepartmentApprover:
		default:
			return nil, fmt.Errorf("step %d: unknown approver_type %q", i+1, in.ApproverType)
		}

		if in.ApproverUserID != "" {
			uid, err := uuid.Parse(in.ApproverUserID)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid approver_user_id: %w", in.StepOrder, err)
			}
			step.ApproverUserID = &uid
		}
		if in.ApproverDepartmentID != "" {
			did, err := uuid.Parse(in.ApproverDepartmentID)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid approver_department_id: %w", in.StepOrder, err)
			}
			step.ApproverDepartmentID = &did
		}

		steps = append(steps, step)
	}

	return steps, nil
}

func (s *workflowService) auditWorkflow(ctx context.Context, actorID uuid.UUID, action string, wf *model.Workflow) error {
	details, _ := json.Marshal(map[string]interface{}{
		"form_type":  wf.FormType,
		"is_default": wf.IsDefault,
		"steps":      len(wf.Steps),
	})
	entry := &model.AuditLog{
		UserID:     &actorID,
		Action:     action,
		EntityID:   wf.ID.String(),
		EntityName: wf.Name,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toWorkflowResponse(wf model.Workflow) WorkflowResponse {
	resp := WorkflowResponse{
		ID:        wf.ID.String(),
		FormType:  wf.FormType,
		Name:      wf.Name,
		IsActive:  wf.IsActive,
		IsDefault: wf.IsDefault,
		Steps:     make([]WorkflowStepResponse, 0, len(wf.Steps)),
		CreatedAt: wf.CreatedAt.Format(time.RFC3339),
	}
	for _, st := range wf.Steps {
		step := WorkflowStepResponse{
			ID:                     st.ID.String(),
			StepOrder:              st.StepOrder,
			StepName:               st.StepName,
			ApproverType:           st.ApproverType,
			ApproverRole:           st.ApproverRole,
			RequiresSameDepartment: st.RequiresSameDepartment,
			StatusOnApproval:       st.StatusOnApproval,
			StatusOnCompletion:     st.StatusOnCompletion,
		}
		if st.ApproverUserID != nil {
			step.ApproverUserID = st.ApproverUserID.String()
		}
		if st.ApproverDepartmentID != nil {
			step.ApproverDepartmentID = st.ApproverDepartmentID.String()
		}
		resp.Steps = append(resp.Steps, step)
	}
	return resp
}
