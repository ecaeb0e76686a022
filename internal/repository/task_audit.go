package repository

import (
	"context"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskAuditRepository struct {
	db *pgxpool.Pool
}

func NewTaskAuditRepository(db *pgxpool.Pool) *TaskAuditRepository {
	return &TaskAuditRepository{
		db: db,
	}
}

// Create - запись журнала, переживает удаление задачи
func (r *TaskAuditRepository) Create(ctx context.Context, audit *entity.TaskAudit) error {
	query := `
	INSERT INTO task_audit (actor_id, action, task_id, service_id, old_values, new_values, changes, changed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
	`

	return r.db.QueryRow(
		ctx,
		query,
		audit.ActorID,
		audit.Action,
		audit.TaskID,
		audit.ServiceID,
		audit.OldValues,
		audit.NewValues,
		audit.Changes,
		audit.ChangedAt,
	).Scan(&audit.ID)
}

func (r *TaskAuditRepository) ListByTask(ctx context.Context, taskID string) ([]entity.TaskAudit, error) {
	query := `
	SELECT id, actor_id, action, task_id, service_id, old_values, new_values, changes, changed_at
	FROM task_audit
	WHERE task_id = $1
	ORDER BY changed_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audits := []entity.TaskAudit{}
	for rows.Next() {
		var audit entity.TaskAudit
		err := rows.Scan(
			&audit.ID,
			&audit.ActorID,
			&audit.Action,
			&audit.TaskID,
			&audit.ServiceID,
			&audit.OldValues,
			&audit.NewValues,
			&audit.Changes,
			&audit.ChangedAt,
		)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}
