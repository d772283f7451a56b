package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VehicleRequestFilter narrows List results
type VehicleRequestFilter struct {
	Status       string
	RequestorID  *uuid.UUID
	DepartmentID *uuid.UUID
	Page         int
	Limit        int
}

type VehicleRequestRepository interface {
	Create(ctx context.Context, req *model.VehicleRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VehicleRequest, error)
	List(ctx context.Context, filter VehicleRequestFilter) ([]model.VehicleRequest, int64, error)
	Update(ctx context.Context, req *model.VehicleRequest) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpsertApproval(ctx context.Context, ap *model.VehicleApproval) error
	PendingApproval(ctx context.Context, requestID uuid.UUID) (*model.VehicleApproval, error)
	CountByStatuses(ctx context.Context, statuses []string) (int64, error)
	NextRequestNo(ctx context.Context) (string, error)
}

type vehicleRequestRepository struct {
	db *gorm.DB
}

func NewVehicleRequestRepository(db *gorm.DB) VehicleRequestRepository {
	return &vehicleRequestRepository{db: db}
}

func (r *vehicleRequestRepository) Create(ctx context.Context, req *model.VehicleRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *vehicleRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.VehicleRequest, error) {
	var req model.VehicleRequest
	err := GetDB(ctx, r.db).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("step_order ASC") }).
		Preload("Approvals.Approver").
		Preload("Requestor").
		Preload("Department").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *vehicleRequestRepository) List(ctx context.Context, filter VehicleRequestFilter) ([]model.VehicleRequest, int64, error) {
	var requests []model.VehicleRequest
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.RequestorID != nil {
			q = q.Where("requestor_id = ?", *filter.RequestorID)
		}
		if filter.DepartmentID != nil {
			q = q.Where("department_id = ?", *filter.DepartmentID)
		}
		return q
	}

	if err := apply(db.Model(&model.VehicleRequest{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := apply(db.Preload("Requestor").Preload("Department")).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *vehicleRequestRepository) Update(ctx context.Context, req *model.VehicleRequest) error {
	return GetDB(ctx, r.db).Omit("Approvals").Save(req).Error
}

func (r *vehicleRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.VehicleRequest{}).Where("id = ?", id).Update("status", status).Error
}

func (r *vehicleRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Select("Approvals").Delete(&model.VehicleRequest{ID: id}).Error
}

// UpsertApproval atomically creates or updates the approval record for a
// (request, step_order) pair through the unique index — the only guard
// against two approvers racing on the same step.
func (r *vehicleRequestRepository) UpsertApproval(ctx context.Context, ap *model.VehicleApproval) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "request_id"}, {Name: "step_order"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"step_name", "status", "approver_id", "comments", "return_reason",
			"approved_at", "declined_at", "returned_at", "updated_at",
		}),
	}).Create(ap).Error
}

// PendingApproval returns the request's pending approval record, if any.
func (r *vehicleRequestRepository) PendingApproval(ctx context.Context, requestID uuid.UUID) (*model.VehicleApproval, error) {
	var ap model.VehicleApproval
	err := GetDB(ctx, r.db).
		Where("request_id = ? AND status = ?", requestID, model.ApprovalPending).
		Order("step_order ASC").
		First(&ap).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

// CountByStatuses counts requests currently in any of the given statuses;
// used to block deleting a workflow with requests mid-flight in it.
func (r *vehicleRequestRepository) CountByStatuses(ctx context.Context, statuses []string) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	var count int64
	err := GetDB(ctx, r.db).Model(&model.VehicleRequest{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}

// NextRequestNo issues VH-YYYYMMDD-NNNNN sequence numbers, serialized per
// day with an advisory lock.
func (r *vehicleRequestRepository) NextRequestNo(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)
	prefix := "VH-" + time.Now().Format("20060102") + "-"

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.VehicleRequest{}).
		Where("request_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
