package usecase

import (
	"testing"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
)

var fixedNow = time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC)

func newTestAnalytics() *Analytics {
	return NewAnalytics(func() time.Time { return fixedNow }, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestSummaryCounts(t *testing.T) {
	a := newTestAnalytics()
	yesterday := fixedNow.Add(-24 * time.Hour)
	tomorrow := fixedNow.Add(24 * time.Hour)

	tasks := []entity.Task{
		{Status: entity.StatusPending, Deadline: ptrTime(yesterday)},
		{Status: entity.StatusInProgress, Deadline: ptrTime(tomorrow)},
		{Status: entity.StatusCompleted, Deadline: ptrTime(yesterday)},
		{Status: entity.StatusCancelled, Deadline: ptrTime(yesterday)},
		{Status: entity.StatusPending},
	}

	got := a.SummaryCounts(tasks)
	want := entity.SummaryCounts{Total: 5, Completed: 1, InProgress: 1, Pending: 2, Cancelled: 1, Overdue: 2}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if got.Pending+got.InProgress+got.Completed+got.Cancelled != got.Total {
		t.Error("Expected status counts to add up to total")
	}
}

func TestSummaryCountsEmpty(t *testing.T) {
	got := newTestAnalytics().SummaryCounts(nil)
	if got != (entity.SummaryCounts{}) {
		t.Errorf("Expected zero counts, got %+v", got)
	}
}

func TestPerServiceBreakdown(t *testing.T) {
	a := newTestAnalytics()
	services := []entity.Service{
		{ID: "geology", Name: "Geology"},
		{ID: "survey", Name: "Survey"},
		{ID: "drilling", Name: "Drilling"},
	}
	tasks := []entity.Task{
		{ServiceID: "geology", Status: entity.StatusCompleted},
		{ServiceID: "geology", Status: entity.StatusCompleted},
		{ServiceID: "geology", Status: entity.StatusPending},
		{ServiceID: "survey", Status: entity.StatusInProgress},
		{ServiceID: "unknown", Status: entity.StatusCompleted},
		{ServiceID: "", Status: entity.StatusCompleted},
	}

	got := a.PerServiceBreakdown(tasks, services)
	if len(got) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(got))
	}

	geo := got[0]
	if geo.ServiceID != "geology" || geo.Tasks != 3 || geo.Completed != 2 || geo.Pending != 1 || geo.Efficiency != 67 {
		t.Errorf("Unexpected geology row %+v", geo)
	}
	if geo.Performance != entity.PerformanceFair {
		t.Errorf("Expected fair performance, got %s", geo.Performance)
	}
	if got[1].Efficiency != 0 || got[1].Performance != entity.PerformancePoor {
		t.Errorf("Unexpected survey row %+v", got[1])
	}
	if got[2].Tasks != 0 || got[2].Efficiency != 0 {
		t.Errorf("Expected empty drilling row, got %+v", got[2])
	}
}

func TestPerformanceTiers(t *testing.T) {
	cases := map[int]entity.Performance{100: entity.PerformanceGood, 80: entity.PerformanceGood, 79: entity.PerformanceFair, 60: entity.PerformanceFair, 59: entity.PerformancePoor, 0: entity.PerformancePoor}
	for eff, want := range cases {
		if got := performance(eff); got != want {
			t.Errorf("performance(%d): expected %s, got %s", eff, want, got)
		}
	}
}

func TestDailyBuckets(t *testing.T) {
	a := newTestAnalytics()
	tasks := []entity.Task{
		{CreatedAt: fixedNow.Add(-1 * time.Hour), Status: entity.StatusCompleted},
		{CreatedAt: fixedNow.Add(-2 * time.Hour), Status: entity.StatusPending},
		{CreatedAt: time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC), Status: entity.StatusCompleted},
		{CreatedAt: time.Date(2025, time.March, 5, 23, 59, 0, 0, time.UTC), Status: entity.StatusCompleted},
		{CreatedAt: fixedNow.Add(48 * time.Hour), Status: entity.StatusCompleted},
	}

	got := a.DailyBuckets(tasks, 7)
	if len(got) != 7 {
		t.Fatalf("Expected 7 buckets, got %d", len(got))
	}
	if got[0].Label != "2025-03-06" || got[6].Label != "2025-03-12" {
		t.Errorf("Unexpected range %s..%s", got[0].Label, got[6].Label)
	}
	if got[0].Assigned != 1 || got[0].Completed != 1 {
		t.Errorf("Unexpected first bucket %+v", got[0])
	}
	if got[6].Assigned != 2 || got[6].Completed != 1 {
		t.Errorf("Unexpected last bucket %+v", got[6])
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Fatal("Expected buckets ordered oldest first")
		}
	}
}

func TestDailyBucketsDefaultWindow(t *testing.T) {
	got := newTestAnalytics().DailyBuckets(nil, 0)
	if len(got) != DefaultDaysBack {
		t.Errorf("Expected %d buckets, got %d", DefaultDaysBack, len(got))
	}
}

func TestMonthlyTrend(t *testing.T) {
	a := newTestAnalytics()
	tasks := []entity.Task{
		{CreatedAt: time.Date(2025, time.January, 31, 10, 0, 0, 0, time.UTC), Status: entity.StatusCompleted},
		{CreatedAt: time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC), Status: entity.StatusPending},
		{CreatedAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), Status: entity.StatusCompleted},
		{CreatedAt: time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), Status: entity.StatusCompleted},
	}

	got := a.MonthlyTrend(tasks, 3)
	if len(got) != 3 {
		t.Fatalf("Expected 3 buckets, got %d", len(got))
	}
	if got[0].Label != "2025-01" || got[2].Label != "2025-03" {
		t.Errorf("Unexpected labels %s..%s", got[0].Label, got[2].Label)
	}
	if got[0].Tasks != 2 || got[0].Completed != 1 || got[0].Efficiency != 50 {
		t.Errorf("Unexpected January %+v", got[0])
	}
	if got[1].Tasks != 0 || got[1].Efficiency != 0 {
		t.Errorf("Unexpected February %+v", got[1])
	}
	if got[2].Tasks != 1 || got[2].Efficiency != 100 {
		t.Errorf("Unexpected March %+v", got[2])
	}
}

func TestPriorityDistribution(t *testing.T) {
	tasks := []entity.Task{
		{Priority: entity.PriorityLow},
		{Priority: entity.PriorityUrgent},
		{Priority: entity.PriorityLow},
		{Priority: entity.PriorityMedium},
	}

	got := newTestAnalytics().PriorityDistribution(tasks)
	want := []entity.PriorityCount{
		{Priority: entity.PriorityUrgent, Count: 1},
		{Priority: entity.PriorityMedium, Count: 1},
		{Priority: entity.PriorityLow, Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v at %d, got %v", want[i], i, got[i])
		}
	}
}

func TestServiceSummary(t *testing.T) {
	tasks := []entity.Task{
		{ServiceID: "geology", Status: entity.StatusCompleted},
		{ServiceID: "geology", Status: entity.StatusInProgress},
		{ServiceID: "survey", Status: entity.StatusPending},
	}

	got := newTestAnalytics().ServiceSummary(tasks, "geology")
	if got.Total != 2 || got.Completed != 1 || got.InProgress != 1 || got.Pending != 0 {
		t.Errorf("Unexpected summary %+v", got)
	}
}

func TestDashboardEmptySnapshot(t *testing.T) {
	d := newTestAnalytics().Dashboard(&entity.Snapshot{})
	if d.Summary.Total != 0 || len(d.Services) != 0 || len(d.Priorities) != 0 {
		t.Errorf("Expected empty dashboard, got %+v", d)
	}
	if len(d.Daily) != DefaultDaysBack || len(d.Monthly) != DefaultMonthsBack {
		t.Error("Expected full bucket windows even with no tasks")
	}
	if !d.GeneratedAt.Equal(fixedNow) {
		t.Errorf("Expected generated_at %v, got %v", fixedNow, d.GeneratedAt)
	}
}

func TestServiceSummaryEmptyIDCountsUnassigned(t *testing.T) {
	tasks := []entity.Task{
		{ServiceID: "geology", Status: entity.StatusCompleted},
		{ServiceID: "survey", Status: entity.StatusPending},
		{ServiceID: "", Status: entity.StatusInProgress},
	}

	got := newTestAnalytics().ServiceSummary(tasks, "")
	if got.Total != 1 || got.InProgress != 1 || got.Completed != 0 {
		t.Errorf("Expected only the unassigned task, got %+v", got)
	}

	got = newTestAnalytics().ServiceSummary(tasks[:2], "")
	if got.Total != 0 {
		t.Errorf("Expected empty summary, got %+v", got)
	}
}
