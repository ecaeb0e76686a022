package entity

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// ParseTaskStatus - разбор статуса из внешнего ввода
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(strings.TrimSpace(s)); st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Message: "unknown status " + strings.TrimSpace(s)}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities - порядок вывода от самого срочного
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority - пустое значение означает medium
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriorityMedium, nil
	}
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", &ValidationError{Field: "priority", Message: "unknown priority " + s}
}

type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ServiceID   string       `json:"service_id"`
	Priority    Priority     `json:"priority"`
	Status      TaskStatus   `json:"status"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Comments    []Comment    `json:"comments"`
	Files       []Attachment `json:"files"`
}

// IsOverdue - дедлайн прошел, а задача не завершена
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.Status != StatusCompleted
}

// DateLayout - дедлайн из формы приходит календарной датой
const DateLayout = "2006-01-02"

// DeadlineInput - дедлайн из запроса: дата YYYY-MM-DD или момент RFC3339.
// Дата без времени становится полуночью в часовом поясе сервиса.
type DeadlineInput struct {
	at       time.Time
	dateOnly bool
}

// DeadlineOn - календарная дата без привязки к поясу
func DeadlineOn(year int, month time.Month, day int) *DeadlineInput {
	return &DeadlineInput{at: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), dateOnly: true}
}

// DeadlineAt - точный момент
func DeadlineAt(t time.Time) *DeadlineInput {
	return &DeadlineInput{at: t}
}

// ParseDeadline разбирает дату или RFC3339, пустая строка дает nil
func ParseDeadline(s string) (*DeadlineInput, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return DeadlineOn(d.Year(), d.Month(), d.Day()), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, &ValidationError{Field: "deadline", Message: "expected YYYY-MM-DD or RFC3339, got " + s}
	}
	return DeadlineAt(t), nil
}

func (d *DeadlineInput) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = DeadlineInput{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "deadline", Message: "deadline must be a string"}
	}
	parsed, err := ParseDeadline(s)
	if err != nil {
		return err
	}
	if parsed == nil {
		*d = DeadlineInput{}
		return nil
	}
	*d = *parsed
	return nil
}

// IsZero - дедлайн не задан (null или пустая строка)
func (d *DeadlineInput) IsZero() bool {
	return d == nil || d.at.IsZero()
}

// In - момент дедлайна; дата становится полуночью в loc
func (d *DeadlineInput) In(loc *time.Location) *time.Time {
	if d.IsZero() {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	t := d.at
	if d.dateOnly {
		t = time.Date(d.at.Year(), d.at.Month(), d.at.Day(), 0, 0, 0, 0, loc)
	}
	return &t
}

type CreateTaskRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ServiceID   string         `json:"service_id"`
	Priority    string         `json:"priority"`
	Deadline    *DeadlineInput `json:"deadline"`
}

// UpdateTaskRequest - частичное обновление, nil значит "не менять"
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Priority    *string        `json:"priority"`
	ServiceID   *string        `json:"service_id"`
	Deadline    *DeadlineInput `json:"deadline"`
	// ClearDeadline снимает дедлайн
	ClearDeadline bool `json:"clear_deadline"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// TaskQuery - серверная предфильтрация списка
type TaskQuery struct {
	ServiceID     string
	WithRelations bool
}
