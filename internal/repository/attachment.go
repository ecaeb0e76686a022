package repository

import (
	"context"
	"errors"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const attachmentColumns = `id, task_id, file_name, storage_ref, size, content_type,
	COALESCE(uploaded_by, ''), created_at`

// attachmentsByTaskQuery - файлы задач в порядке загрузки
const attachmentsByTaskQuery = `
	SELECT ` + attachmentColumns + `
	FROM task_attachments
	WHERE task_id = ANY($1)
	ORDER BY task_id, seq
	`

type AttachmentRepository struct {
	db *pgxpool.Pool
}

func NewAttachmentRepository(db *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{
		db: db,
	}
}

func scanAttachment(row pgx.Row) (*entity.Attachment, error) {
	var a entity.Attachment
	err := row.Scan(
		&a.ID,
		&a.TaskID,
		&a.FileName,
		&a.StorageRef,
		&a.Size,
		&a.ContentType,
		&a.UploadedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Save - запись о сохраненном файле
func (r *AttachmentRepository) Save(ctx context.Context, attachment *entity.Attachment) (*entity.Attachment, error) {
	query := `
	INSERT INTO task_attachments (id, task_id, file_name, storage_ref, size, content_type, uploaded_by)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	RETURNING ` + attachmentColumns

	return scanAttachment(r.db.QueryRow(ctx, query,
		attachment.ID,
		attachment.TaskID,
		attachment.FileName,
		attachment.StorageRef,
		attachment.Size,
		attachment.ContentType,
		attachment.UploadedBy,
	))
}

// GetByID - nil если файла нет
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*entity.Attachment, error) {
	a, err := scanAttachment(r.db.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM task_attachments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *AttachmentRepository) ListByTask(ctx context.Context, taskID string) ([]entity.Attachment, error) {
	rows, err := r.db.Query(ctx, attachmentsByTaskQuery, []string{taskID})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []entity.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *a)
	}

	return files, rows.Err()
}
