package usecase

import (
	"math"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
)

const (
	DefaultDaysBack   = 7
	DefaultMonthsBack = 3
)

// Analytics - расчет показателей по снимку задач, без побочных эффектов
type Analytics struct {
	now func() time.Time
	loc *time.Location
}

func NewAnalytics(now func() time.Time, loc *time.Location) *Analytics {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Analytics{now: now, loc: loc}
}

// percent - округленный процент, 0 при пустом знаменателе
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

func performance(efficiency int) entity.Performance {
	switch {
	case efficiency >= 80:
		return entity.PerformanceGood
	case efficiency >= 60:
		return entity.PerformanceFair
	default:
		return entity.PerformancePoor
	}
}

func (a *Analytics) SummaryCounts(tasks []entity.Task) entity.SummaryCounts {
	now := a.now()
	var c entity.SummaryCounts
	for i := range tasks {
		t := &tasks[i]
		c.Total++
		switch t.Status {
		case entity.StatusCompleted:
			c.Completed++
		case entity.StatusInProgress:
			c.InProgress++
		case entity.StatusPending:
			c.Pending++
		case entity.StatusCancelled:
			c.Cancelled++
		}
		if t.IsOverdue(now) {
			c.Overdue++
		}
	}
	return c
}

// ServiceSummary - показатели одного отдела, пустой id значит задачи без отдела
func (a *Analytics) ServiceSummary(tasks []entity.Task, serviceID string) entity.SummaryCounts {
	if serviceID == "" {
		serviceID = FilterUnassigned
	}
	return a.SummaryCounts(FilterTasks(tasks, TaskFilter{Service: serviceID, Status: FilterAll}))
}

// PerServiceBreakdown - строка на каждый отдел в порядке входа
func (a *Analytics) PerServiceBreakdown(tasks []entity.Task, services []entity.Service) []entity.ServiceStats {
	type counter struct{ tasks, completed int }
	counts := make(map[string]*counter, len(services))
	for i := range services {
		counts[services[i].ID] = &counter{}
	}
	for i := range tasks {
		c, ok := counts[tasks[i].ServiceID]
		if !ok {
			continue
		}
		c.tasks++
		if tasks[i].Status == entity.StatusCompleted {
			c.completed++
		}
	}

	stats := make([]entity.ServiceStats, 0, len(services))
	for _, s := range services {
		c := counts[s.ID]
		eff := percent(c.completed, c.tasks)
		stats = append(stats, entity.ServiceStats{
			ServiceID:   s.ID,
			Name:        s.Name,
			Tasks:       c.tasks,
			Completed:   c.completed,
			Pending:     c.tasks - c.completed,
			Efficiency:  eff,
			Performance: performance(eff),
		})
	}
	return stats
}

// DailyBuckets - последние daysBack календарных дней, от старых к новым
func (a *Analytics) DailyBuckets(tasks []entity.Task, daysBack int) []entity.DailyBucket {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	today := a.now().In(a.loc)
	y, m, d := today.Date()

	buckets := make([]entity.DailyBucket, daysBack)
	first := time.Date(y, m, d-(daysBack-1), 0, 0, 0, 0, a.loc)
	for i := range buckets {
		day := time.Date(y, m, d-(daysBack-1)+i, 0, 0, 0, 0, a.loc)
		buckets[i] = entity.DailyBucket{Date: day, Label: day.Format("2006-01-02")}
	}
	end := time.Date(y, m, d+1, 0, 0, 0, 0, a.loc)

	for i := range tasks {
		created := tasks[i].CreatedAt.In(a.loc)
		if created.Before(first) || !created.Before(end) {
			continue
		}
		cy, cm, cd := created.Date()
		idx := dayIndex(first, time.Date(cy, cm, cd, 0, 0, 0, 0, a.loc))
		if idx < 0 || idx >= daysBack {
			continue
		}
		buckets[idx].Assigned++
		if tasks[i].Status == entity.StatusCompleted {
			buckets[idx].Completed++
		}
	}
	return buckets
}

// dayIndex - число календарных дней между полуночами, устойчиво к переходу на летнее время
func dayIndex(from, day time.Time) int {
	return int(math.Round(day.Sub(from).Hours() / 24))
}

// MonthlyTrend - последние monthsBack календарных месяцев
func (a *Analytics) MonthlyTrend(tasks []entity.Task, monthsBack int) []entity.MonthlyBucket {
	if monthsBack <= 0 {
		monthsBack = DefaultMonthsBack
	}
	now := a.now().In(a.loc)
	y, m, _ := now.Date()

	buckets := make([]entity.MonthlyBucket, monthsBack)
	for i := range buckets {
		month := time.Date(y, m-time.Month(monthsBack-1-i), 1, 0, 0, 0, 0, a.loc)
		buckets[i] = entity.MonthlyBucket{Month: month, Label: month.Format("2006-01")}
	}

	for i := range tasks {
		created := tasks[i].CreatedAt.In(a.loc)
		cy, cm, _ := created.Date()
		idx := (cy-buckets[0].Month.Year())*12 + int(cm) - int(buckets[0].Month.Month())
		if idx < 0 || idx >= monthsBack {
			continue
		}
		buckets[idx].Tasks++
		if tasks[i].Status == entity.StatusCompleted {
			buckets[idx].Completed++
		}
	}
	for i := range buckets {
		buckets[i].Efficiency = percent(buckets[i].Completed, buckets[i].Tasks)
	}
	return buckets
}

// PriorityDistribution - от срочных к низким, нулевые пропускаются
func (a *Analytics) PriorityDistribution(tasks []entity.Task) []entity.PriorityCount {
	counts := make(map[entity.Priority]int, len(entity.Priorities))
	for i := range tasks {
		counts[tasks[i].Priority]++
	}

	out := []entity.PriorityCount{}
	for _, p := range entity.Priorities {
		if counts[p] > 0 {
			out = append(out, entity.PriorityCount{Priority: p, Count: counts[p]})
		}
	}
	return out
}

// Dashboard собирает все показатели панели администратора
func (a *Analytics) Dashboard(snap *entity.Snapshot) *entity.Dashboard {
	var tasks []entity.Task
	var services []entity.Service
	if snap != nil {
		tasks, services = snap.Tasks, snap.Services
	}

	return &entity.Dashboard{
		Summary:     a.SummaryCounts(tasks),
		Services:    a.PerServiceBreakdown(tasks, services),
		Daily:       a.DailyBuckets(tasks, DefaultDaysBack),
		Monthly:     a.MonthlyTrend(tasks, DefaultMonthsBack),
		Priorities:  a.PriorityDistribution(tasks),
		GeneratedAt: a.now(),
	}
}
