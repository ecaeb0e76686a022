package repository

import (
	"context"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
)

// ITaskRepository - интерфейс для TaskRepository
type ITaskRepository interface {
	Create(ctx context.Context, task *entity.Task) (*entity.Task, error)
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*entity.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q entity.TaskQuery) ([]entity.Task, error)
}

// IServiceRepository - интерфейс для ServiceRepository
type IServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) (*entity.Service, error)
	GetByID(ctx context.Context, id string) (*entity.Service, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*entity.Service, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, includeDeleted bool) ([]entity.Service, error)
}

// ICommentRepository - интерфейс для CommentRepository
type ICommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) (*entity.Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]entity.Comment, error)
}

// IAttachmentRepository - интерфейс для AttachmentRepository
type IAttachmentRepository interface {
	Save(ctx context.Context, attachment *entity.Attachment) (*entity.Attachment, error)
	GetByID(ctx context.Context, id string) (*entity.Attachment, error)
	ListByTask(ctx context.Context, taskID string) ([]entity.Attachment, error)
}

// IAccountRepository - интерфейс для AccountRepository
type IAccountRepository interface {
	Create(ctx context.Context, account *entity.Account) (*entity.Account, error)
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// IRefreshTokenRepository - интерфейс для RefreshTokenRepository
type IRefreshTokenRepository interface {
	Save(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAll(ctx context.Context, accountID string) error
}

// ITaskAuditRepository - интерфейс для TaskAuditRepository
type ITaskAuditRepository interface {
	Create(ctx context.Context, audit *entity.TaskAudit) error
	ListByTask(ctx context.Context, taskID string) ([]entity.TaskAudit, error)
}
