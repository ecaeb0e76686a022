package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/notify"
	"github.com/St1cky1/service-tasks/internal/repository"
)

// MockTaskRepository - мок для ITaskRepository
type MockTaskRepository struct {
	CreateFunc  func(ctx context.Context, task *entity.Task) (*entity.Task, error)
	GetByIDFunc func(ctx context.Context, id string) (*entity.Task, error)
	UpdateFunc  func(ctx context.Context, id string, updates map[string]interface{}) (*entity.Task, error)
	DeleteFunc  func(ctx context.Context, id string) error
	ListFunc    func(ctx context.Context, q entity.TaskQuery) ([]entity.Task, error)
}

var _ repository.ITaskRepository = (*MockTaskRepository)(nil)

func (m *MockTaskRepository) Create(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, task)
	}
	return nil, nil
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTaskRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*entity.Task, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, updates)
	}
	return nil, nil
}

func (m *MockTaskRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockTaskRepository) List(ctx context.Context, q entity.TaskQuery) ([]entity.Task, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, q)
	}
	return nil, nil
}

// MockServiceRepository - мок для IServiceRepository
type MockServiceRepository struct {
	CreateFunc     func(ctx context.Context, service *entity.Service) (*entity.Service, error)
	GetByIDFunc    func(ctx context.Context, id string) (*entity.Service, error)
	UpdateFunc     func(ctx context.Context, id string, updates map[string]interface{}) (*entity.Service, error)
	SoftDeleteFunc func(ctx context.Context, id string) error
	ListFunc       func(ctx context.Context, includeDeleted bool) ([]entity.Service, error)
}

var _ repository.IServiceRepository = (*MockServiceRepository)(nil)

func (m *MockServiceRepository) Create(ctx context.Context, service *entity.Service) (*entity.Service, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, service)
	}
	return nil, nil
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string) (*entity.Service, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockServiceRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*entity.Service, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, updates)
	}
	return nil, nil
}

func (m *MockServiceRepository) SoftDelete(ctx context.Context, id string) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockServiceRepository) List(ctx context.Context, includeDeleted bool) ([]entity.Service, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, includeDeleted)
	}
	return nil, nil
}

// MockCommentRepository - мок для ICommentRepository
type MockCommentRepository struct {
	CreateFunc     func(ctx context.Context, comment *entity.Comment) (*entity.Comment, error)
	ListByTaskFunc func(ctx context.Context, taskID string) ([]entity.Comment, error)
}

var _ repository.ICommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) Create(ctx context.Context, comment *entity.Comment) (*entity.Comment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, comment)
	}
	return nil, nil
}

func (m *MockCommentRepository) ListByTask(ctx context.Context, taskID string) ([]entity.Comment, error) {
	if m.ListByTaskFunc != nil {
		return m.ListByTaskFunc(ctx, taskID)
	}
	return nil, nil
}

// MockAttachmentRepository - мок для IAttachmentRepository
type MockAttachmentRepository struct {
	SaveFunc       func(ctx context.Context, attachment *entity.Attachment) (*entity.Attachment, error)
	GetByIDFunc    func(ctx context.Context, id string) (*entity.Attachment, error)
	ListByTaskFunc func(ctx context.Context, taskID string) ([]entity.Attachment, error)
}

var _ repository.IAttachmentRepository = (*MockAttachmentRepository)(nil)

func (m *MockAttachmentRepository) Save(ctx context.Context, attachment *entity.Attachment) (*entity.Attachment, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, attachment)
	}
	return nil, nil
}

func (m *MockAttachmentRepository) GetByID(ctx context.Context, id string) (*entity.Attachment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAttachmentRepository) ListByTask(ctx context.Context, taskID string) ([]entity.Attachment, error) {
	if m.ListByTaskFunc != nil {
		return m.ListByTaskFunc(ctx, taskID)
	}
	return nil, nil
}

// MockAccountRepository - мок для IAccountRepository
type MockAccountRepository struct {
	CreateFunc         func(ctx context.Context, account *entity.Account) (*entity.Account, error)
	GetByIDFunc        func(ctx context.Context, id string) (*entity.Account, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*entity.Account, error)
	TouchLastLoginFunc func(ctx context.Context, id string, at time.Time) error
}

var _ repository.IAccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) Create(ctx context.Context, account *entity.Account) (*entity.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockAccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.TouchLastLoginFunc != nil {
		return m.TouchLastLoginFunc(ctx, id, at)
	}
	return nil
}

// MockRefreshTokenRepository - мок для IRefreshTokenRepository
type MockRefreshTokenRepository struct {
	SaveFunc      func(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error
	GetByHashFunc func(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)
	RevokeFunc    func(ctx context.Context, tokenHash string) error
	RevokeAllFunc func(ctx context.Context, accountID string) error
}

var _ repository.IRefreshTokenRepository = (*MockRefreshTokenRepository)(nil)

func (m *MockRefreshTokenRepository) Save(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, accountID, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, tokenHash)
	}
	return nil
}

func (m *MockRefreshTokenRepository) RevokeAll(ctx context.Context, accountID string) error {
	if m.RevokeAllFunc != nil {
		return m.RevokeAllFunc(ctx, accountID)
	}
	return nil
}

// MockTaskAuditRepository - мок для ITaskAuditRepository
type MockTaskAuditRepository struct {
	CreateFunc     func(ctx context.Context, audit *entity.TaskAudit) error
	ListByTaskFunc func(ctx context.Context, taskID string) ([]entity.TaskAudit, error)
}

var _ repository.ITaskAuditRepository = (*MockTaskAuditRepository)(nil)

func (m *MockTaskAuditRepository) Create(ctx context.Context, audit *entity.TaskAudit) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, audit)
	}
	return nil
}

func (m *MockTaskAuditRepository) ListByTask(ctx context.Context, taskID string) ([]entity.TaskAudit, error) {
	if m.ListByTaskFunc != nil {
		return m.ListByTaskFunc(ctx, taskID)
	}
	return nil, nil
}

// MockFileStorage - мок для FileStorage
type MockFileStorage struct {
	SaveFunc   func(ctx context.Context, taskID, fileName string, r io.Reader, limit int64) (string, int64, error)
	OpenFunc   func(ref string) (io.ReadCloser, error)
	RemoveFunc func(ref string) error
}

var _ FileStorage = (*MockFileStorage)(nil)

func (m *MockFileStorage) Save(ctx context.Context, taskID, fileName string, r io.Reader, limit int64) (string, int64, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, taskID, fileName, r, limit)
	}
	n, err := io.Copy(io.Discard, r)
	return taskID + "/" + fileName, n, err
}

func (m *MockFileStorage) Open(ref string) (io.ReadCloser, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ref)
	}
	return nil, nil
}

func (m *MockFileStorage) Remove(ref string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ref)
	}
	return nil
}

// MockEventPublisher - мок для EventPublisher
type MockEventPublisher struct {
	PublishTaskEventFunc func(ctx context.Context, event *entity.TaskEvent) error
}

func (m *MockEventPublisher) PublishTaskEvent(ctx context.Context, event *entity.TaskEvent) error {
	if m.PublishTaskEventFunc != nil {
		return m.PublishTaskEventFunc(ctx, event)
	}
	return nil
}

// recordingNotifier запоминает локальные уведомления
type recordingNotifier struct {
	mu      sync.Mutex
	changes []notify.Change
}

func (n *recordingNotifier) Publish(change notify.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes)
}

// memStore - хранилище задач в памяти поверх моков
type memStore struct {
	mu       sync.Mutex
	tasks    map[string]*entity.Task
	services map[string]*entity.Service
	now      time.Time
}

func newMemStore(now time.Time) *memStore {
	return &memStore{
		tasks: map[string]*entity.Task{},
		services: map[string]*entity.Service{
			"geology": {ID: "geology", Name: "Geology", Email: "geo@example.com", Active: true},
			"survey":  {ID: "survey", Name: "Survey", Email: "survey@example.com", Active: true},
		},
		now: now,
	}
}

func cloneTask(t *entity.Task) *entity.Task {
	c := *t
	c.Comments = append([]entity.Comment{}, t.Comments...)
	c.Files = append([]entity.Attachment{}, t.Files...)
	return &c
}

func (m *memStore) taskRepo() *MockTaskRepository {
	return &MockTaskRepository{
		CreateFunc: func(ctx context.Context, task *entity.Task) (*entity.Task, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			stored := cloneTask(task)
			stored.CreatedAt, stored.UpdatedAt = m.now, m.now
			m.tasks[task.ID] = stored
			return cloneTask(stored), nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*entity.Task, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			t, ok := m.tasks[id]
			if !ok {
				return nil, nil
			}
			return cloneTask(t), nil
		},
		UpdateFunc: func(ctx context.Context, id string, updates map[string]interface{}) (*entity.Task, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			t, ok := m.tasks[id]
			if !ok {
				return nil, nil
			}
			for k, v := range updates {
				switch k {
				case "title":
					t.Title = v.(string)
				case "description":
					t.Description = v.(string)
				case "priority":
					t.Priority = v.(entity.Priority)
				case "status":
					t.Status = v.(entity.TaskStatus)
				case "completed_at":
					t.CompletedAt = v.(*time.Time)
				case "deadline":
					t.Deadline = v.(*time.Time)
				case "service_id":
					t.ServiceID = v.(string)
				}
			}
			t.UpdatedAt = m.now.Add(time.Minute)
			return cloneTask(t), nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.tasks, id)
			return nil
		},
		ListFunc: func(ctx context.Context, q entity.TaskQuery) ([]entity.Task, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			out := []entity.Task{}
			for _, t := range m.tasks {
				if q.ServiceID == "" || t.ServiceID == q.ServiceID {
					out = append(out, *cloneTask(t))
				}
			}
			return out, nil
		},
	}
}

func (m *memStore) serviceRepo() *MockServiceRepository {
	return &MockServiceRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*entity.Service, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			s, ok := m.services[id]
			if !ok {
				return nil, nil
			}
			c := *s
			return &c, nil
		},
		ListFunc: func(ctx context.Context, includeDeleted bool) ([]entity.Service, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			out := []entity.Service{}
			for _, s := range m.services {
				if includeDeleted || !s.Deleted() {
					out = append(out, *s)
				}
			}
			return out, nil
		},
	}
}

func (m *memStore) commentRepo() *MockCommentRepository {
	return &MockCommentRepository{
		CreateFunc: func(ctx context.Context, comment *entity.Comment) (*entity.Comment, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			c := *comment
			c.CreatedAt = m.now
			t := m.tasks[c.TaskID]
			t.Comments = append(t.Comments, c)
			return &c, nil
		},
	}
}

func (m *memStore) attachmentRepo() *MockAttachmentRepository {
	return &MockAttachmentRepository{
		SaveFunc: func(ctx context.Context, a *entity.Attachment) (*entity.Attachment, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			c := *a
			c.CreatedAt = m.now
			t := m.tasks[c.TaskID]
			t.Files = append(t.Files, c)
			return &c, nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*entity.Attachment, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, t := range m.tasks {
				for _, f := range t.Files {
					if f.ID == id {
						c := f
						return &c, nil
					}
				}
			}
			return nil, nil
		},
	}
}
