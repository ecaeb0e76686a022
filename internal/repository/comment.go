package repository

import (
	"context"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, task_id, author, COALESCE(user_id, ''), text, created_at`

// commentsByTaskQuery - комментарии задач в порядке добавления
const commentsByTaskQuery = `
	SELECT ` + commentColumns + `
	FROM task_comments
	WHERE task_id = ANY($1)
	ORDER BY task_id, seq
	`

type CommentRepository struct {
	db *pgxpool.Pool
}

func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

func scanComment(row pgx.Row) (*entity.Comment, error) {
	var c entity.Comment
	if err := row.Scan(&c.ID, &c.TaskID, &c.Author, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create - комментарии только добавляются
func (r *CommentRepository) Create(ctx context.Context, comment *entity.Comment) (*entity.Comment, error) {
	query := `
	INSERT INTO task_comments (id, task_id, author, user_id, text)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	RETURNING ` + commentColumns

	return scanComment(r.db.QueryRow(ctx, query,
		comment.ID,
		comment.TaskID,
		comment.Author,
		comment.UserID,
		comment.Text,
	))
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID string) ([]entity.Comment, error) {
	rows, err := r.db.Query(ctx, commentsByTaskQuery, []string{taskID})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []entity.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}

	return comments, rows.Err()
}
