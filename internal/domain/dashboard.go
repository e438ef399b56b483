package domain

import "context"

// OrderMetrics are the headline counters shown on the dashboard.
type OrderMetrics struct {
	TotalOrders      int64 `json:"totalOrders"`
	AcceptedOrders   int64 `json:"acceptedOrders"`
	InProgressOrders int64 `json:"inProgressOrders"`
	CanceledOrders   int64 `json:"canceledOrders"`
	CompletedOrders  int64 `json:"completedOrders"`
}

// DistributionEntry is one slice of an order distribution.
type DistributionEntry struct {
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type WeeklySeries struct {
	Weeks []string  `json:"weeks"`
	Data  []float64 `json:"data"`
}

type VolumeSeries struct {
	Weeks        []string  `json:"weeks"`
	Volume       []float64 `json:"volume"`
	ServiceLevel []float64 `json:"serviceLevel"`
}

// WeeklyTrends groups the week-by-week series of the dashboard.
type WeeklyTrends struct {
	WeeklyOrders          WeeklySeries `json:"weeklyOrders"`
	WeeklyErrors          WeeklySeries `json:"weeklyPomErrors"`
	VolumeVsServiceLevels VolumeSeries `json:"volumeVsServiceLevels"`
}

// Overview aggregates all dashboard panels. Failed lists the panels whose
// backend call failed; those panels are left empty.
type Overview struct {
	Metrics           OrderMetrics        `json:"metrics"`
	Channels          []DistributionEntry `json:"channels"`
	BusinessProcesses []DistributionEntry `json:"businessProcesses"`
	Trends            WeeklyTrends        `json:"trends"`
	Failed            []string            `json:"failed,omitempty"`
}

// DashboardService loads the dashboard overview.
type DashboardService interface {
	Overview(ctx context.Context) (*Overview, error)
}
