package entity

import "time"

type SummaryCounts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
	Cancelled  int `json:"cancelled"`
	Overdue    int `json:"overdue"`
}

type Performance string

const (
	PerformanceGood Performance = "good"
	PerformanceFair Performance = "fair"
	PerformancePoor Performance = "poor"
)

type ServiceStats struct {
	ServiceID   string      `json:"service_id"`
	Name        string      `json:"name"`
	Tasks       int         `json:"tasks"`
	Completed   int         `json:"completed"`
	Pending     int         `json:"pending"`
	Efficiency  int         `json:"efficiency"`
	Performance Performance `json:"performance"`
}

type DailyBucket struct {
	Date      time.Time `json:"date"`
	Label     string    `json:"label"`
	Completed int       `json:"completed"`
	Assigned  int       `json:"assigned"`
}

type MonthlyBucket struct {
	Month      time.Time `json:"month"`
	Label      string    `json:"label"`
	Tasks      int       `json:"tasks"`
	Completed  int       `json:"completed"`
	Efficiency int       `json:"efficiency"`
}

type PriorityCount struct {
	Priority Priority `json:"priority"`
	Count    int      `json:"count"`
}

// Snapshot - все задачи и отделы на момент чтения
type Snapshot struct {
	Tasks    []Task    `json:"tasks"`
	Services []Service `json:"services"`
	LoadedAt time.Time `json:"loaded_at"`
}

type Dashboard struct {
	Summary     SummaryCounts   `json:"summary"`
	Services    []ServiceStats  `json:"services"`
	Daily       []DailyBucket   `json:"daily"`
	Monthly     []MonthlyBucket `json:"monthly"`
	Priorities  []PriorityCount `json:"priorities"`
	GeneratedAt time.Time       `json:"generated_at"`
	Stale       bool            `json:"stale"`
	Error       string          `json:"error,omitempty"`
}
