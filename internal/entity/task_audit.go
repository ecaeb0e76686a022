package entity

import (
	"time"
)

type ActionType string

const (
	ActionCreate        ActionType = "created"
	ActionStatusChanged ActionType = "status_changed"
	ActionUpdate        ActionType = "updated"
	ActionCommentAdded  ActionType = "comment_added"
	ActionFilesAdded    ActionType = "files_added"
	ActionDelete        ActionType = "deleted"
	ActionOverdue       ActionType = "overdue"
)

type TaskAudit struct {
	ID        int        `json:"id"`
	ActorID   string     `json:"actor_id"`
	Action    ActionType `json:"action"`
	TaskID    string     `json:"task_id"`
	ServiceID string     `json:"service_id"`
	OldValues *string    `json:"old_values"`
	NewValues *string    `json:"new_values"`
	Changes   *string    `json:"changes"`
	ChangedAt time.Time  `json:"changed_at"`
}

// TaskEvent - сообщение о задаче в очереди событий
type TaskEvent struct {
	ActorID   string         `json:"actor_id"`
	Action    ActionType     `json:"action"`
	TaskID    string         `json:"task_id"`
	ServiceID string         `json:"service_id"`
	OldValues map[string]any `json:"old_values,omitempty"`
	NewValues map[string]any `json:"new_values,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
