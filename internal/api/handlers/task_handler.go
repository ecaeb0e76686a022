package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// maxUploadBody - десять файлов по 10 MB и служебные части multipart
const maxUploadBody = entity.MaxFilesPerBatch*entity.MaxFileSize + 1<<20

type TaskUsecase interface {
	CreateTask(ctx context.Context, actor entity.Identity, req *entity.CreateTaskRequest) (*entity.Task, error)
	GetTask(ctx context.Context, actor entity.Identity, taskID string) (*entity.Task, error)
	ListTasks(ctx context.Context, actor entity.Identity, filter usecase.TaskFilter) ([]entity.Task, error)
	ChangeStatus(ctx context.Context, actor entity.Identity, taskID string, status string) (*entity.Task, error)
	AddComment(ctx context.Context, actor entity.Identity, taskID, author, text string) (*entity.Task, error)
	AddFiles(ctx context.Context, actor entity.Identity, taskID string, files []entity.FileDescriptor) (*usecase.FileBatchResult, error)
	UpdateFields(ctx context.Context, actor entity.Identity, taskID string, req *entity.UpdateTaskRequest) (*entity.Task, error)
	DeleteTask(ctx context.Context, actor entity.Identity, taskID string) error
	OpenAttachment(ctx context.Context, actor entity.Identity, taskID, fileID string) (*entity.Attachment, io.ReadCloser, error)
	History(ctx context.Context, actor entity.Identity, taskID string) ([]entity.TaskAudit, error)
}

type TaskHandler struct {
	taskService TaskUsecase
}

func NewTaskHandler(taskService TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// создаем новую задачу
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), actor(r), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListTasks - параметры q, status, service
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := usecase.ParseTaskFilter(q.Get("q"), q.Get("status"), q.Get("service"))
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), actor(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req entity.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.taskService.UpdateFields(r.Context(), actor(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.DeleteTask(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req entity.ChangeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.taskService.ChangeStatus(r.Context(), actor(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// AddComment - автор берется из токена
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req entity.AddCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	who := actor(r)
	task, err := h.taskService.AddComment(r.Context(), who, chi.URLParam(r, "id"), who.Name, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UploadFiles - multipart поле files, до 10 файлов за раз
func (h *TaskHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload is too large"})
			return
		}
		writeError(w, &entity.ValidationError{Field: "files", Message: "invalid multipart form: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) > entity.MaxFilesPerBatch {
		writeError(w, &entity.ValidationError{Field: "files", Message: "at most " + strconv.Itoa(entity.MaxFilesPerBatch) + " files per upload"})
		return
	}

	files := make([]entity.FileDescriptor, 0, len(headers))
	for _, fh := range headers {
		fd := entity.FileDescriptor{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		}
		if f, err := fh.Open(); err == nil {
			defer closeFile(f)
			fd.Content = f
		}
		files = append(files, fd)
	}

	result, err := h.taskService.AddFiles(r.Context(), actor(r), chi.URLParam(r, "id"), files)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if len(result.Accepted) == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func closeFile(f multipart.File) {
	if err := f.Close(); err != nil {
		log.Printf("❌ Ошибка закрытия файла загрузки: %v", err)
	}
}

func (h *TaskHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	att, rc, err := h.taskService.OpenAttachment(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.FileName}))
	w.Header().Set("Content-Length", strconv.FormatInt(att.Size, 10))
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("❌ Ошибка отправки файла %s: %v", att.ID, err)
	}
}

func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	audits, err := h.taskService.History(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audits)
}
