package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type UpdateDepartmentRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type DepartmentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Members   int64  `json:"members"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type DepartmentService interface {
	Create(ctx context.Context, req CreateDepartmentRequest) (*DepartmentResponse, error)
	Get(ctx context.Context, id string) (*DepartmentResponse, error)
	List(ctx context.Context) ([]DepartmentResponse, error)
	Update(ctx context.Context, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error)
	Delete(ctx context.Context, id string) error
}

type departmentService struct {
	repo repository.DepartmentRepository
}

func NewDepartmentService(repo repository.DepartmentRepository) DepartmentService {
	return &departmentService{repo: repo}
}

// --- Implementation ---

func (s *departmentService) Create(ctx context.Context, req CreateDepartmentRequest) (*DepartmentResponse, error) {
	dept := &model.Department{
		Name: req.Name,
		Code: req.Code,
	}
	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return s.toResponse(ctx, dept), nil
}

func (s *departmentService) Get(ctx context.Context, id string) (*DepartmentResponse, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid department id: %w", err)
	}
	dept, err := s.repo.FindByID(ctx, deptID)
	if err != nil {
		return nil, errors.New("department not found")
	}
	return s.toResponse(ctx, dept), nil
}

func (s *departmentService) List(ctx context.Context) ([]DepartmentResponse, error) {
	depts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	result := make([]DepartmentResponse, 0, len(depts))
	for i := range depts {
		result = append(result, *s.toResponse(ctx, &depts[i]))
	}
	return result, nil
}

func (s *departmentService) Update(ctx context.Context, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid department id: %w", err)
	}
	dept, err := s.repo.FindByID(ctx, deptID)
	if err != nil {
		return nil, errors.New("department not found")
	}

	if req.Name != "" {
		dept.Name = req.Name
	}
	if req.Code != "" {
		dept.Code = req.Code
	}
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}
	return s.toResponse(ctx, dept), nil
}

// Delete refuses while users still belong to the department; department
// scoping in approvals depends on the assignment staying consistent.
func (s *departmentService) Delete(ctx context.Context, id string) error {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid department id: %w", err)
	}
	if _, err := s.repo.FindByID(ctx, deptID); err != nil {
		return errors.New("department not found")
	}

	members, err := s.repo.CountMembers(ctx, deptID)
	if err != nil {
		return fmt.Errorf("failed to count department members: %w", err)
	}
	if members > 0 {
		return fmt.Errorf("department still has %d member(s) and cannot be deleted", members)
	}
	return s.repo.Delete(ctx, deptID)
}

func (s *departmentService) toResponse(ctx context.Context, dept *model.Department) *DepartmentResponse {
	members, _ := s.repo.CountMembers(ctx, dept.ID)
	return &DepartmentResponse{
		ID:        dept.ID.String(),
		Name:      dept.Name,
		Code:      dept.Code,
		Members:   members,
		CreatedAt: dept.CreatedAt.Format(time.RFC3339),
	}
}
