package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics aggregates request volumes and pending-approval load over
// the given time bracket for the dashboard.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	totalItems, err := s.repo.CountTotal(ctx, "item_requests", startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to count item requests: %w", err)
	}
	response.TotalItemRequests = totalItems

	totalVehicles, err := s.repo.CountTotal(ctx, "vehicle_requests", startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to count vehicle requests: %w", err)
	}
	response.TotalVehicleRequests = totalVehicles

	pending, err := s.repo.CountPendingApprovals(ctx, startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	response.PendingApprovals = pending

	itemByStatus, err := s.repo.CountByStatus(ctx, "item_requests", startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to group item requests by status: %w", err)
	}
	response.ItemByStatus = itemByStatus

	vehicleByStatus, err := s.repo.CountByStatus(ctx, "vehicle_requests", startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to group vehicle requests by status: %w", err)
	}
	response.VehicleByStatus = vehicleByStatus

	itemMonthly, err := s.repo.MonthlyVolumes(ctx, "item_requests", model.FormTypeItemRequest, startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to aggregate item request volumes: %w", err)
	}
	vehicleMonthly, err := s.repo.MonthlyVolumes(ctx, "vehicle_requests", model.FormTypeVehicleRequest, startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to aggregate vehicle request volumes: %w", err)
	}
	response.MonthlyVolumes = append(itemMonthly, vehicleMonthly...)

	return response, nil
}
