package model

import (
	"time"
)

// StatisticsResponse aggregates request volumes for the dashboard
type StatisticsResponse struct {
	TotalItemRequests    int             `json:"total_item_requests"`
	TotalVehicleRequests int             `json:"total_vehicle_requests"`
	PendingApprovals     int             `json:"pending_approvals"`
	ItemByStatus         []StatusCount   `json:"item_by_status"`
	VehicleByStatus      []StatusCount   `json:"vehicle_by_status"`
	MonthlyVolumes       []MonthlyVolume `json:"monthly_volumes"`
	TimeRangeStartDate   time.Time       `json:"time_range_start_date"`
	TimeRangeEndDate     time.Time       `json:"time_range_end_date"`
}

// StatusCount is the number of requests currently in one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// MonthlyVolume counts submissions per month for one form type
type MonthlyVolume struct {
	Month    string `json:"month"` // YYYY-MM
	FormType string `json:"form_type"`
	Count    int    `json:"count"`
}
