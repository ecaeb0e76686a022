package usecase

import (
	"strings"

	"github.com/St1cky1/service-tasks/internal/entity"
)

// FilterAll - значение фильтра "без ограничения"
const FilterAll = "all"

// FilterUnassigned - задачи без отдела; slug отдела не может начинаться с '_'
const FilterUnassigned = "_unassigned"

type TaskFilter struct {
	Query   string
	Status  string
	Service string
}

// ParseTaskFilter - проверка статуса на границе, пустые значения означают "all"
func ParseTaskFilter(query, status, service string) (TaskFilter, error) {
	f := TaskFilter{
		Query:   strings.TrimSpace(query),
		Status:  strings.TrimSpace(status),
		Service: strings.TrimSpace(service),
	}
	if f.Status == "" {
		f.Status = FilterAll
	}
	if f.Service == "" {
		f.Service = FilterAll
	}
	if f.Status != FilterAll {
		if _, err := entity.ParseTaskStatus(f.Status); err != nil {
			return TaskFilter{}, err
		}
	}
	return f, nil
}

func (f TaskFilter) matches(t *entity.Task, query string) bool {
	if f.Status != "" && f.Status != FilterAll && string(t.Status) != f.Status {
		return false
	}
	switch f.Service {
	case "", FilterAll:
	case FilterUnassigned:
		if t.ServiceID != "" {
			return false
		}
	default:
		if t.ServiceID != f.Service {
			return false
		}
	}
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query)
}

// FilterTasks - новый срез в исходном порядке, вход не изменяется
func FilterTasks(tasks []entity.Task, f TaskFilter) []entity.Task {
	query := strings.ToLower(f.Query)
	out := make([]entity.Task, 0, len(tasks))
	for i := range tasks {
		if f.matches(&tasks[i], query) {
			out = append(out, tasks[i])
		}
	}
	return out
}
