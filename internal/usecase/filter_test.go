package usecase

import (
	"errors"
	"testing"

	"github.com/St1cky1/service-tasks/internal/entity"
)

func filterFixture() []entity.Task {
	return []entity.Task{
		{ID: "1", Title: "Geology report", Description: "quarterly", ServiceID: "geology", Status: entity.StatusPending},
		{ID: "2", Title: "Drill plan", Description: "Survey of GEOLOGY samples", ServiceID: "drilling", Status: entity.StatusCompleted},
		{ID: "3", Title: "Survey map", Description: "", ServiceID: "survey", Status: entity.StatusInProgress},
		{ID: "4", Title: "Old task", Description: "archived", ServiceID: "geology", Status: entity.StatusCancelled},
	}
}

func ids(tasks []entity.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterTasks(t *testing.T) {
	tasks := filterFixture()

	tests := []struct {
		name   string
		filter TaskFilter
		want   []string
	}{
		{"all sentinels", TaskFilter{Status: FilterAll, Service: FilterAll}, []string{"1", "2", "3", "4"}},
		{"empty sentinels", TaskFilter{}, []string{"1", "2", "3", "4"}},
		{"query title or description case-insensitive", TaskFilter{Query: "geology"}, []string{"1", "2"}},
		{"status", TaskFilter{Status: "completed", Service: FilterAll}, []string{"2"}},
		{"service", TaskFilter{Status: FilterAll, Service: "geology"}, []string{"1", "4"}},
		{"combined", TaskFilter{Query: "GEO", Status: "pending", Service: "geology"}, []string{"1"}},
		{"no match", TaskFilter{Query: "nothing here"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTasks(tasks, tt.filter)
			if got == nil {
				t.Fatal("Expected non-nil result")
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestFilterTasksIdempotentAndPure(t *testing.T) {
	tasks := filterFixture()
	f := TaskFilter{Query: "survey", Status: FilterAll, Service: FilterAll}

	once := FilterTasks(tasks, f)
	twice := FilterTasks(once, f)
	if !equalIDs(ids(once), ids(twice)) {
		t.Errorf("Expected idempotent filter, got %v then %v", ids(once), ids(twice))
	}

	once[0].Title = "mutated"
	if tasks[1].Title != "Drill plan" {
		t.Error("Expected input to stay unchanged")
	}
}

func TestParseTaskFilter(t *testing.T) {
	f, err := ParseTaskFilter("  report ", "", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if f.Query != "report" || f.Status != FilterAll || f.Service != FilterAll {
		t.Errorf("Unexpected filter %+v", f)
	}

	_, err = ParseTaskFilter("", "done", "")
	if !errors.Is(err, entity.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestFilterTasksUnassigned(t *testing.T) {
	tasks := append(filterFixture(), entity.Task{ID: "5", Title: "Orphan", Status: entity.StatusPending})

	got := ids(FilterTasks(tasks, TaskFilter{Service: FilterUnassigned}))
	if !equalIDs(got, []string{"5"}) {
		t.Errorf("Expected only unassigned task, got %v", got)
	}

	f, err := ParseTaskFilter("", "", FilterUnassigned)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := ids(FilterTasks(tasks, f)); !equalIDs(got, []string{"5"}) {
		t.Errorf("Expected parsed filter to keep unassigned sentinel, got %v", got)
	}

	if got := FilterTasks(tasks, TaskFilter{Service: FilterAll}); len(got) != len(tasks) {
		t.Errorf("Expected all tasks for %q, got %d", FilterAll, len(got))
	}
	if Slugify(FilterUnassigned) == FilterUnassigned {
		t.Error("Service slug must never collide with the unassigned sentinel")
	}
}
