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

// ItemRequestFilter narrows List results
type ItemRequestFilter struct {
	Status       string
	RequestorID  *uuid.UUID
	DepartmentID *uuid.UUID
	Page         int
	Limit        int
}

type ItemRequestRepository interface {
	Create(ctx context.Context, req *model.ItemRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error)
	List(ctx context.Context, filter ItemRequestFilter) ([]model.ItemRequest, int64, error)
	Update(ctx context.Context, req *model.ItemRequest) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ReplaceLines(ctx context.Context, requestID uuid.UUID, lines []model.ItemRequestLine) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpsertApproval(ctx context.Context, ap *model.Approval) error
	NextRequestNo(ctx context.Context) (string, error)
}

type itemRequestRepository struct {
	db *gorm.DB
}

func NewItemRequestRepository(db *gorm.DB) ItemRequestRepository {
	return &itemRequestRepository{db: db}
}

func (r *itemRequestRepository) Create(ctx context.Context, req *model.ItemRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *itemRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error) {
	var req model.ItemRequest
	err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Approvals").
		Preload("Approvals.Approver").
		Preload("Requestor").
		Preload("Department").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *itemRequestRepository) List(ctx context.Context, filter ItemRequestFilter) ([]model.ItemRequest, int64, error) {
	var requests []model.ItemRequest
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

	if err := apply(db.Model(&model.ItemRequest{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := apply(db.Preload("Items").Preload("Requestor").Preload("Department")).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *itemRequestRepository) Update(ctx context.Context, req *model.ItemRequest) error {
	return GetDB(ctx, r.db).Omit("Items", "Approvals").Save(req).Error
}

func (r *itemRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.ItemRequest{}).Where("id = ?", id).Update("status", status).Error
}

func (r *itemRequestRepository) ReplaceLines(ctx context.Context, requestID uuid.UUID, lines []model.ItemRequestLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("request_id = ?", requestID).Delete(&model.ItemRequestLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].RequestID = requestID
	}
	if len(lines) == 0 {
		return nil
	}
	return db.Create(&lines).Error
}

func (r *itemRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Select("Items", "Approvals").Delete(&model.ItemRequest{ID: id}).Error
}

// UpsertApproval atomically creates or updates the approval record for a
// (request, stage) pair. Two approvers racing on the same stage collapse
// into one row through the unique index instead of losing a write.
func (r *itemRequestRepository) UpsertApproval(ctx context.Context, ap *model.Approval) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "request_id"}, {Name: "approval_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "approver_id", "comments", "return_reason",
			"approved_at", "declined_at", "returned_at", "updated_at",
		}),
	}).Create(ap).Error
}

// NextRequestNo issues IT-YYYYMMDD-NNNNN sequence numbers, serialized per
// day with an advisory lock so concurrent submissions never collide.
func (r *itemRequestRepository) NextRequestNo(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)
	prefix := "IT-" + time.Now().Format("20060102") + "-"

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.ItemRequest{}).
		Where("request_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
