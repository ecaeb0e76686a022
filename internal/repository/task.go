package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, COALESCE(service_id, ''), priority, status,
	deadline, completed_at, COALESCE(created_by, ''), created_at, updated_at`

// колонки, которые разрешено менять через Update
var taskUpdatable = map[string]bool{
	"title":        true,
	"description":  true,
	"priority":     true,
	"status":       true,
	"deadline":     true,
	"completed_at": true,
	"service_id":   true,
}

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var task entity.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.ServiceID,
		&task.Priority,
		&task.Status,
		&task.Deadline,
		&task.CompletedAt,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Comments = []entity.Comment{}
	task.Files = []entity.Attachment{}
	return &task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	INSERT INTO tasks (id, title, description, service_id, priority, status, deadline, completed_at, created_by)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''))
	RETURNING ` + taskColumns

	created, err := scanTask(r.db.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.ServiceID,
		task.Priority,
		task.Status,
		task.Deadline,
		task.CompletedAt,
		task.CreatedBy,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByID - задача вместе с комментариями и файлами, nil если не найдена
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	tasks := []entity.Task{*task}
	if err := r.loadRelations(ctx, tasks); err != nil {
		return nil, err
	}

	return &tasks[0], nil
}

// Update - обновление задачи
func (r *TaskRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*entity.Task, error) {
	// Динамически строим SET часть запроса
	setClause := ""
	args := []interface{}{}
	argIndex := 1

	for field, value := range updates {
		if !taskUpdatable[field] {
			return nil, fmt.Errorf("task: field %q is not updatable", field)
		}
		if argIndex > 1 {
			setClause += ", "
		}
		if field == "service_id" {
			setClause += field + " = NULLIF($" + strconv.Itoa(argIndex) + ", '')"
		} else {
			setClause += field + " = $" + strconv.Itoa(argIndex)
		}
		args = append(args, value)
		argIndex++
	}

	if argIndex == 1 {
		return nil, entity.ErrNoFieldsToUpdate
	}
	setClause += ", updated_at = CURRENT_TIMESTAMP"

	query := `
        UPDATE tasks
        SET ` + setClause + `
        WHERE id = $` + strconv.Itoa(argIndex) + `
        RETURNING ` + taskColumns
	args = append(args, id)

	task, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return task, nil
}

// Delete - удаление задачи, комментарии и файлы удаляются каскадом
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

// List - список задач, новые сверху
func (r *TaskRepository) List(ctx context.Context, q entity.TaskQuery) ([]entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []interface{}{}

	if q.ServiceID != "" {
		query += " WHERE service_id = $1"
		args = append(args, q.ServiceID)
	}

	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.WithRelations {
		if err := r.loadRelations(ctx, tasks); err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

// loadRelations подтягивает комментарии и файлы двумя запросами
func (r *TaskRepository) loadRelations(ctx context.Context, tasks []entity.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]string, len(tasks))
	index := make(map[string]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		index[tasks[i].ID] = i
	}

	rows, err := r.db.Query(ctx, commentsByTaskQuery, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			rows.Close()
			return err
		}
		i := index[c.TaskID]
		tasks[i].Comments = append(tasks[i].Comments, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, attachmentsByTaskQuery, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return err
		}
		i := index[a.TaskID]
		tasks[i].Files = append(tasks[i].Files, *a)
	}

	return rows.Err()
}
