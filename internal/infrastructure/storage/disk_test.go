package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStorage(t *testing.T) *DiskStorage {
	t.Helper()
	s, err := NewDiskStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return s
}

func TestSaveOpenRemove(t *testing.T) {
	s := newTestStorage(t)

	ref, n, err := s.Save(context.Background(), "task-1", "Report.PDF", strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5 bytes, got %d", n)
	}
	if !strings.HasPrefix(ref, "task-1/") || !strings.HasSuffix(ref, ".pdf") {
		t.Errorf("Unexpected ref %s", ref)
	}

	rc, err := s.Open(ref)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Errorf("Expected hello, got %q", data)
	}

	if err := s.Remove(ref); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.root, "task-1")); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected empty task dir removed")
	}
	if err := s.Remove(ref); err != nil {
		t.Errorf("Expected removing twice to succeed, got %v", err)
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	s := newTestStorage(t)

	_, _, err := s.Save(context.Background(), "task-1", "big.pdf", strings.NewReader("0123456789AB"), 10)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(s.root, "task-1"))
	if len(entries) != 0 {
		t.Errorf("Expected partial file cleaned up, got %d entries", len(entries))
	}
}

func TestRejectsPathEscape(t *testing.T) {
	s := newTestStorage(t)

	if _, _, err := s.Save(context.Background(), "../x", "a.pdf", strings.NewReader("x"), 10); !errors.Is(err, ErrInvalidRef) {
		t.Errorf("Expected ErrInvalidRef for task id, got %v", err)
	}
	if _, err := s.Open("../../etc/passwd"); !errors.Is(err, ErrInvalidRef) {
		t.Errorf("Expected ErrInvalidRef for ref, got %v", err)
	}
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := s.Save(ctx, "task-1", "a.pdf", strings.NewReader("x"), 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
