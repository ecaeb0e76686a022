package entity

import (
	"io"
	"time"
)

const (
	MaxFileSize      = 10 * 1024 * 1024
	MaxFilesPerBatch = 10
)

// AllowedExtensions - допустимые расширения вложений
var AllowedExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true,
	"jpg": true, "jpeg": true, "png": true, "gif": true,
}

type Attachment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	FileName    string    `json:"file_name"`
	StorageRef  string    `json:"-"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileDescriptor - файл, пришедший от клиента
type FileDescriptor struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// RejectedFile - файл, не прошедший проверку или сохранение
type RejectedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
