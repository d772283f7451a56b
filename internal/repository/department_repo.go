package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	ListAll(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountMembers(ctx context.Context, id uuid.UUID) (int64, error)
}

type departmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *model.Department) error {
	return GetDB(ctx, r.db).Create(dept).Error
}

func (r *departmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var dept model.Department
	if err := GetDB(ctx, r.db).First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ListAll(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *departmentRepository) Update(ctx context.Context, dept *model.Department) error {
	return GetDB(ctx, r.db).Save(dept).Error
}

func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Department{}).Error
}

func (r *departmentRepository) CountMembers(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("department_id = ?", id).Count(&count).Error
	return count, err
}
