package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowRepository persists workflow definitions. ActiveWorkflow is the
// read path the engine depends on; everything else serves administration.
type WorkflowRepository interface {
	ActiveWorkflow(ctx context.Context, formType string) (*model.Workflow, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Workflow, error)
	List(ctx context.Context, formType string, page, limit int) ([]model.Workflow, int64, error)
	Create(ctx context.Context, wf *model.Workflow) error
	Update(ctx context.Context, wf *model.Workflow) error
	ReplaceSteps(ctx context.Context, workflowID uuid.UUID, steps []model.WorkflowStep) error
	Delete(ctx context.Context, id uuid.UUID) error
	DemoteDefaults(ctx context.Context, formType string, exceptID uuid.UUID) error
}

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func stepsAscending(db *gorm.DB) *gorm.DB {
	return db.Order("step_order ASC")
}

// ActiveWorkflow prefers the active default workflow for the form type,
// newest first, then any active workflow, newest first. Steps are loaded
// ascending by step_order. A missing workflow is (nil, nil), not an error.
func (r *workflowRepository) ActiveWorkflow(ctx context.Context, formType string) (*model.Workflow, error) {
	db := GetDB(ctx, r.db)

	var wf model.Workflow
	err := db.Where("form_type = ? AND is_active = ? AND is_default = ?", formType, true, true).
		Order("created_at DESC").
		Preload("Steps", stepsAscending).
		First(&wf).Error
	if err == nil {
		return &wf, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Where("form_type = ? AND is_active = ?", formType, true).
		Order("created_at DESC").
		Preload("Steps", stepsAscending).
		First(&wf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *workflowRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	var wf model.Workflow
	if err := GetDB(ctx, r.db).Preload("Steps", stepsAscending).First(&wf, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *workflowRepository) List(ctx context.Context, formType string, page, limit int) ([]model.Workflow, int64, error) {
	var workflows []model.Workflow
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Workflow{})
	if formType != "" {
		query = query.Where("form_type = ?", formType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Steps", stepsAscending)
	if formType != "" {
		fetchQuery = fetchQuery.Where("form_type = ?", formType)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&workflows).Error; err != nil {
		return nil, 0, err
	}

	return workflows, total, nil
}

func (r *workflowRepository) Create(ctx context.Context, wf *model.Workflow) error {
	return GetDB(ctx, r.db).Create(wf).Error
}

func (r *workflowRepository) Update(ctx context.Context, wf *model.Workflow) error {
	return GetDB(ctx, r.db).Omit("Steps").Save(wf).Error
}

// ReplaceSteps swaps a workflow's steps as a unit.
func (r *workflowRepository) ReplaceSteps(ctx context.Context, workflowID uuid.UUID, steps []model.WorkflowStep) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("workflow_id = ?", workflowID).Delete(&model.WorkflowStep{}).Error; err != nil {
		return err
	}
	for i := range steps {
		steps[i].WorkflowID = workflowID
	}
	if len(steps) == 0 {
		return nil
	}
	return db.Create(&steps).Error
}

func (r *workflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Select("Steps").Delete(&model.Workflow{ID: id}).Error
}

// DemoteDefaults clears is_default on every other workflow of the form
// type, keeping the at-most-one-default invariant at write time.
func (r *workflowRepository) DemoteDefaults(ctx context.Context, formType string, exceptID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Workflow{}).
		Where("form_type = ? AND id <> ?", formType, exceptID).
		Update("is_default", false).Error
}
