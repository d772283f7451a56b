package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountByStatus(ctx context.Context, table string, start, end time.Time) ([]model.StatusCount, error)
	CountTotal(ctx context.Context, table string, start, end time.Time) (int, error)
	CountPendingApprovals(ctx context.Context, start, end time.Time) (int, error)
	MonthlyVolumes(ctx context.Context, table, formType string, start, end time.Time) ([]model.MonthlyVolume, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountByStatus(ctx context.Context, table string, start, end time.Time) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	err := r.db.WithContext(ctx).Table(table).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("status").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by status: %w", table, err)
	}
	return counts, nil
}

func (r *statisticsRepository) CountTotal(ctx context.Context, table string, start, end time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Count(&count).Error
	return int(count), err
}

// CountPendingApprovals sums pending approval rows across both subtypes.
func (r *statisticsRepository) CountPendingApprovals(ctx context.Context, start, end time.Time) (int, error) {
	var itemPending, vehiclePending int64
	if err := r.db.WithContext(ctx).Model(&model.Approval{}).
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.ApprovalPending, start, end).
		Count(&itemPending).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.VehicleApproval{}).
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.ApprovalPending, start, end).
		Count(&vehiclePending).Error; err != nil {
		return 0, err
	}
	return int(itemPending + vehiclePending), nil
}

func (r *statisticsRepository) MonthlyVolumes(ctx context.Context, table, formType string, start, end time.Time) ([]model.MonthlyVolume, error) {
	var volumes []model.MonthlyVolume
	err := r.db.WithContext(ctx).Table(table).
		Select("TO_CHAR(created_at, 'YYYY-MM') as month, ? as form_type, COUNT(*) as count", formType).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("TO_CHAR(created_at, 'YYYY-MM')").
		Order("month ASC").
		Scan(&volumes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly volumes for %s: %w", table, err)
	}
	return volumes, nil
}
