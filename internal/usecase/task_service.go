package usecase

import (
	"context"
	"io"
	"log"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/notify"
	"github.com/St1cky1/service-tasks/internal/repository"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// maxParallelUploads - одновременные записи файлов в хранилище
const maxParallelUploads = 3

// EventPublisher интерфейс для публикации событий задач в RabbitMQ
type EventPublisher interface {
	PublishTaskEvent(ctx context.Context, event *entity.TaskEvent) error
}

// FileStorage - хранилище содержимого вложений
type FileStorage interface {
	Save(ctx context.Context, taskID, fileName string, r io.Reader, limit int64) (ref string, size int64, err error)
	Open(ref string) (io.ReadCloser, error)
	Remove(ref string) error
}

// ChangeNotifier - локальные уведомления об изменениях
type ChangeNotifier interface {
	Publish(change notify.Change)
}

type TaskServiceDeps struct {
	Tasks       repository.ITaskRepository
	Services    repository.IServiceRepository
	Comments    repository.ICommentRepository
	Attachments repository.IAttachmentRepository
	Audit       repository.ITaskAuditRepository
	Storage     FileStorage
	Events      EventPublisher
	Notifier    ChangeNotifier
	// Location - пояс, в котором дата дедлайна становится полуночью
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

type TaskService struct {
	TaskServiceDeps
}

func NewTaskService(deps TaskServiceDeps) *TaskService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &TaskService{TaskServiceDeps: deps}
}

// FileBatchResult - итог загрузки: часть файлов может быть отклонена
type FileBatchResult struct {
	Task     *entity.Task          `json:"task"`
	Accepted []entity.Attachment   `json:"accepted"`
	Rejected []entity.RejectedFile `json:"rejected"`

	errs *multierror.Error
}

// Err - все отказы одной ошибкой, nil если приняты все файлы
func (r *FileBatchResult) Err() error {
	return r.errs.ErrorOrNil()
}

func (r *FileBatchResult) reject(name string, err error) {
	r.Rejected = append(r.Rejected, entity.RejectedFile{Name: name, Reason: err.Error()})
	r.errs = multierror.Append(r.errs, err)
}

func (s *TaskService) CreateTask(ctx context.Context, actor entity.Identity, req *entity.CreateTaskRequest) (*entity.Task, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &entity.ValidationError{Field: "title", Message: "title is required"}
	}
	serviceID := strings.TrimSpace(req.ServiceID)
	if serviceID == "" {
		return nil, &entity.ValidationError{Field: "service_id", Message: "service is required"}
	}
	priority, err := entity.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.requireService(ctx, serviceID); err != nil {
		return nil, err
	}

	task := &entity.Task{
		ID:          s.NewID(),
		Title:       title,
		Description: req.Description,
		ServiceID:   serviceID,
		Priority:    priority,
		Status:      entity.StatusPending,
		Deadline:    req.Deadline.In(s.Location),
		CreatedBy:   actor.AccountID,
	}

	created, err := s.Tasks.Create(ctx, task)
	if err != nil {
		return nil, entity.WrapStore("create task", err)
	}

	s.notify(notify.TableTasks, "insert", created.ID)
	s.sendEvent(entity.ActionCreate, actor, nil, created, nil)

	return created, nil
}

func (s *TaskService) GetTask(ctx context.Context, actor entity.Identity, taskID string) (*entity.Task, error) {
	return s.loadTask(ctx, actor, taskID)
}

// ListTasks - отдел видит только свои задачи
func (s *TaskService) ListTasks(ctx context.Context, actor entity.Identity, filter TaskFilter) ([]entity.Task, error) {
	q := entity.TaskQuery{WithRelations: true}
	if !actor.IsAdmin() {
		if actor.ServiceID == "" {
			return []entity.Task{}, nil
		}
		q.ServiceID = actor.ServiceID
	}

	tasks, err := s.Tasks.List(ctx, q)
	if err != nil {
		return nil, entity.WrapStore("list tasks", err)
	}

	return FilterTasks(tasks, filter), nil
}

// ChangeStatus - переходы между статусами не ограничены
func (s *TaskService) ChangeStatus(ctx context.Context, actor entity.Identity, taskID string, status string) (*entity.Task, error) {
	newStatus, err := entity.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}

	oldTask, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if newStatus == entity.StatusCompleted {
		now := s.Now()
		completedAt = &now
	}

	updates := map[string]interface{}{
		"status":       newStatus,
		"completed_at": completedAt,
	}

	updated, err := s.Tasks.Update(ctx, taskID, updates)
	if err != nil {
		return nil, entity.WrapStore("change status", err)
	}
	if updated == nil {
		return nil, &entity.NotFoundError{Entity: "task", ID: taskID}
	}
	updated.Comments = oldTask.Comments
	updated.Files = oldTask.Files

	s.notify(notify.TableTasks, "update", taskID)
	s.sendEvent(entity.ActionStatusChanged, actor, oldTask, updated, map[string]interface{}{
		"status": map[string]interface{}{"old": oldTask.Status, "new": updated.Status},
	})

	return updated, nil
}

// AddComment - статус задачи не меняется
func (s *TaskService) AddComment(ctx context.Context, actor entity.Identity, taskID, author, text string) (*entity.Task, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return nil, &entity.ValidationError{Field: "author", Message: "author is required"}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &entity.ValidationError{Field: "text", Message: "comment text is empty"}
	}

	task, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	comment, err := s.Comments.Create(ctx, &entity.Comment{
		ID:     s.NewID(),
		TaskID: taskID,
		Author: author,
		UserID: actor.AccountID,
		Text:   text,
	})
	if err != nil {
		return nil, entity.WrapStore("add comment", err)
	}
	task.Comments = append(task.Comments, *comment)

	s.notify(notify.TableComments, "insert", comment.ID)
	s.sendEvent(entity.ActionCommentAdded, actor, nil, task, map[string]interface{}{
		"comment_id": comment.ID,
		"author":     comment.Author,
	})

	return task, nil
}

// validateFile - причина отказа или nil
func validateFile(fd entity.FileDescriptor) error {
	name := strings.TrimSpace(fd.Name)
	if name == "" {
		return &entity.ValidationError{Field: "file", Message: "file name is required"}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !entity.AllowedExtensions[ext] {
		return &entity.ValidationError{Field: name, Message: "file type ." + ext + " is not allowed"}
	}
	if fd.Size < 0 || fd.Size > entity.MaxFileSize {
		return &entity.ValidationError{Field: name, Message: "file exceeds 10 MB"}
	}
	if fd.Content == nil {
		return &entity.ValidationError{Field: name, Message: "file has no content"}
	}
	return nil
}

func contentTypeOf(fd entity.FileDescriptor) string {
	if fd.ContentType != "" {
		return fd.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fd.Name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// AddFiles - невалидные файлы отклоняются по отдельности, остальные сохраняются
func (s *TaskService) AddFiles(ctx context.Context, actor entity.Identity, taskID string, files []entity.FileDescriptor) (*FileBatchResult, error) {
	if len(files) == 0 {
		return nil, &entity.ValidationError{Field: "files", Message: "no files provided"}
	}
	if len(files) > entity.MaxFilesPerBatch {
		return nil, &entity.ValidationError{Field: "files", Message: "at most 10 files per upload"}
	}

	task, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	result := &FileBatchResult{Task: task, Accepted: []entity.Attachment{}, Rejected: []entity.RejectedFile{}}

	type stored struct {
		ref  string
		size int64
		err  error
	}
	valid := make([]bool, len(files))
	slots := make([]stored, len(files))

	var g errgroup.Group
	g.SetLimit(maxParallelUploads)
	for i, fd := range files {
		if err := validateFile(fd); err != nil {
			continue
		}
		valid[i] = true
		g.Go(func() error {
			ref, size, err := s.Storage.Save(ctx, taskID, strings.TrimSpace(fd.Name), fd.Content, entity.MaxFileSize)
			slots[i] = stored{ref: ref, size: size, err: err}
			return nil
		})
	}
	_ = g.Wait()

	// записи в БД в порядке входа
	for i, fd := range files {
		name := strings.TrimSpace(fd.Name)
		if !valid[i] {
			result.reject(fd.Name, validateFile(fd))
			continue
		}
		if slots[i].err != nil {
			result.reject(name, entity.WrapStore("store file "+name, slots[i].err))
			continue
		}

		att, err := s.Attachments.Save(ctx, &entity.Attachment{
			ID:          s.NewID(),
			TaskID:      taskID,
			FileName:    name,
			StorageRef:  slots[i].ref,
			Size:        slots[i].size,
			ContentType: contentTypeOf(fd),
			UploadedBy:  actor.AccountID,
		})
		if err != nil {
			if rmErr := s.Storage.Remove(slots[i].ref); rmErr != nil {
				log.Printf("❌ Не удалось удалить файл %s: %v", slots[i].ref, rmErr)
			}
			result.reject(name, entity.WrapStore("save attachment "+name, err))
			continue
		}
		result.Accepted = append(result.Accepted, *att)
		task.Files = append(task.Files, *att)
	}

	if len(result.Accepted) > 0 {
		s.notify(notify.TableAttachments, "insert", taskID)
		names := make([]string, len(result.Accepted))
		for i, a := range result.Accepted {
			names[i] = a.FileName
		}
		s.sendEvent(entity.ActionFilesAdded, actor, nil, task, map[string]interface{}{"files": names})
	}

	return result, nil
}

// UpdateFields - правка задачи администратором
func (s *TaskService) UpdateFields(ctx context.Context, actor entity.Identity, taskID string, req *entity.UpdateTaskRequest) (*entity.Task, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrForbidden
	}

	oldTask, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &entity.ValidationError{Field: "title", Message: "title is required"}
		}
		updates["title"] = title
	}

	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if req.Priority != nil {
		p, err := entity.ParsePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		updates["priority"] = p
	}

	if req.ServiceID != nil {
		serviceID := strings.TrimSpace(*req.ServiceID)
		if serviceID == "" {
			return nil, &entity.ValidationError{Field: "service_id", Message: "service is required"}
		}
		if err := s.requireService(ctx, serviceID); err != nil {
			return nil, err
		}
		updates["service_id"] = serviceID
	}

	if req.ClearDeadline {
		updates["deadline"] = (*time.Time)(nil)
	} else if !req.Deadline.IsZero() {
		updates["deadline"] = req.Deadline.In(s.Location)
	}

	if len(updates) == 0 {
		return nil, &entity.ValidationError{Message: entity.ErrNoFieldsToUpdate.Error()}
	}

	updated, err := s.Tasks.Update(ctx, taskID, updates)
	if err != nil {
		return nil, entity.WrapStore("update task", err)
	}
	if updated == nil {
		return nil, &entity.NotFoundError{Entity: "task", ID: taskID}
	}
	updated.Comments = oldTask.Comments
	updated.Files = oldTask.Files

	s.notify(notify.TableTasks, "update", taskID)
	s.sendEvent(entity.ActionUpdate, actor, oldTask, updated, diffTasks(oldTask, updated))

	return updated, nil
}

// DeleteTask - комментарии и файлы удаляются вместе с задачей
func (s *TaskService) DeleteTask(ctx context.Context, actor entity.Identity, taskID string) error {
	if !actor.IsAdmin() {
		return entity.ErrForbidden
	}

	task, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return err
	}

	if err := s.Tasks.Delete(ctx, taskID); err != nil {
		return entity.WrapStore("delete task", err)
	}

	for _, f := range task.Files {
		if err := s.Storage.Remove(f.StorageRef); err != nil {
			log.Printf("❌ Не удалось удалить файл %s задачи %s: %v", f.StorageRef, taskID, err)
		}
	}

	s.notify(notify.TableTasks, "delete", taskID)
	s.sendEvent(entity.ActionDelete, actor, task, nil, nil)

	return nil
}

// OpenAttachment - файл задачи для скачивания, вызывающий закрывает reader
func (s *TaskService) OpenAttachment(ctx context.Context, actor entity.Identity, taskID, fileID string) (*entity.Attachment, io.ReadCloser, error) {
	if _, err := s.loadTask(ctx, actor, taskID); err != nil {
		return nil, nil, err
	}

	att, err := s.Attachments.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, entity.WrapStore("get attachment", err)
	}
	if att == nil || att.TaskID != taskID {
		return nil, nil, &entity.NotFoundError{Entity: "file", ID: fileID}
	}

	rc, err := s.Storage.Open(att.StorageRef)
	if err != nil {
		return nil, nil, entity.WrapStore("open attachment", err)
	}
	return att, rc, nil
}

// History - журнал изменений задачи
func (s *TaskService) History(ctx context.Context, actor entity.Identity, taskID string) ([]entity.TaskAudit, error) {
	if _, err := s.loadTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	audits, err := s.Audit.ListByTask(ctx, taskID)
	if err != nil {
		return nil, entity.WrapStore("task history", err)
	}
	return audits, nil
}

// Snapshot - все задачи и действующие отделы для аналитики
func (s *TaskService) Snapshot(ctx context.Context) (*entity.Snapshot, error) {
	tasks, err := s.Tasks.List(ctx, entity.TaskQuery{})
	if err != nil {
		return nil, entity.WrapStore("load tasks", err)
	}
	services, err := s.Services.List(ctx, false)
	if err != nil {
		return nil, entity.WrapStore("load services", err)
	}
	return &entity.Snapshot{Tasks: tasks, Services: services, LoadedAt: s.Now()}, nil
}

func (s *TaskService) loadTask(ctx context.Context, actor entity.Identity, taskID string) (*entity.Task, error) {
	task, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, entity.WrapStore("get task", err)
	}
	if task == nil {
		return nil, &entity.NotFoundError{Entity: "task", ID: taskID}
	}
	if !actor.CanAccess(task) {
		return nil, entity.ErrForbidden
	}
	return task, nil
}

// requireService - отдел существует и не удален
func (s *TaskService) requireService(ctx context.Context, serviceID string) error {
	svc, err := s.Services.GetByID(ctx, serviceID)
	if err != nil {
		return entity.WrapStore("get service", err)
	}
	if svc == nil || svc.Deleted() {
		return &entity.NotFoundError{Entity: "service", ID: serviceID}
	}
	return nil
}

func (s *TaskService) notify(table, op, id string) {
	if s.Notifier != nil {
		s.Notifier.Publish(notify.Change{Table: table, Op: op, ID: id})
	}
}

func taskValues(t *entity.Task) map[string]interface{} {
	if t == nil {
		return nil
	}
	return map[string]interface{}{
		"title":       t.Title,
		"description": t.Description,
		"service_id":  t.ServiceID,
		"priority":    t.Priority,
		"status":      t.Status,
		"deadline":    t.Deadline,
	}
}

func diffTasks(oldTask, newTask *entity.Task) map[string]interface{} {
	oldValues, newValues := taskValues(oldTask), taskValues(newTask)
	changes := make(map[string]interface{})
	for k, ov := range oldValues {
		nv := newValues[k]
		if k == "deadline" {
			if !sameDeadline(oldTask.Deadline, newTask.Deadline) {
				changes[k] = map[string]interface{}{"old": ov, "new": nv}
			}
			continue
		}
		if ov != nv {
			changes[k] = map[string]interface{}{"old": ov, "new": nv}
		}
	}
	return changes
}

func sameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Вспомогательный метод для асинхронной отправки события
func (s *TaskService) sendEvent(action entity.ActionType, actor entity.Identity, oldTask, newTask *entity.Task, changes map[string]interface{}) {
	if s.Events == nil {
		return
	}

	event := &entity.TaskEvent{
		ActorID:   actor.AccountID,
		Action:    action,
		OldValues: taskValues(oldTask),
		NewValues: taskValues(newTask),
		Changes:   changes,
		Timestamp: s.Now(),
	}
	for _, t := range []*entity.Task{newTask, oldTask} {
		if t != nil {
			event.TaskID = t.ID
			event.ServiceID = t.ServiceID
			break
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Events.PublishTaskEvent(ctx, event); err != nil {
			log.Printf("❌ Ошибка отправки события в RabbitMQ: %v", err)
		}
	}()
}
