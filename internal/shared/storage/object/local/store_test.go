package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"execsummary-backend/internal/shared/storage/object"
)

func TestPutOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, err := object.NewKey("resumes", "cand-1", "My Resume.pdf")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	size, err := store.Put(ctx, key, "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if size != 8 {
		t.Fatalf("expected 8 bytes written, got %d", size)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"../escape.txt", "/abs/path", "a/../../b"} {
		if _, err := store.Put(ctx, key, "text/plain", strings.NewReader("x")); !errors.Is(err, object.ErrInvalidKey) {
			t.Fatalf("Put(%q) expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestPutReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	key := "screenshots/cand-1/about.png"
	if _, err := store.Put(ctx, key, "image/png", strings.NewReader("first")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(ctx, key, "image/png", strings.NewReader("second")); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "second" {
		t.Fatalf("expected replaced content, got %q", data)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "screenshots", "cand-1"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the object file, got %d entries", len(entries))
	}
}
