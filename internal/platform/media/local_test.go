package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(dir, "/uploads")

	obj, err := store.Put(context.Background(), "patient-123.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obj.URL != "/uploads/patient-123.png" {
		t.Errorf("expected /uploads/patient-123.png, got %s", obj.URL)
	}
	if obj.DownloadURL != "" {
		t.Errorf("expected no download URL for local storage, got %s", obj.DownloadURL)
	}

	data, err := os.ReadFile(filepath.Join(dir, "patient-123.png"))
	if err != nil {
		t.Fatalf("expected stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("expected stored content png-bytes, got %q", string(data))
	}
}

func TestLocalStore_Put_CreatesDirOnDemand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store := NewLocalStore(dir, "/uploads")

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("expected uploads dir to not exist yet")
	}

	if _, err := store.Put(context.Background(), "patient-1.jpg", "image/jpeg", strings.NewReader("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Pre-existing directory is tolerated on the next upload.
	if _, err := store.Put(context.Background(), "patient-2.jpg", "image/jpeg", strings.NewReader("b")); err != nil {
		t.Fatalf("unexpected error on second put: %v", err)
	}
}

func TestLocalStore_Put_LeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(dir, "/uploads")

	if _, err := store.Put(context.Background(), "patient-9.gif", "image/gif", strings.NewReader("gif")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, ".upload-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("expected no temp files, found %v", leftovers)
	}
}

func TestLocalStore_BaseURLTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/uploads/")

	obj, err := store.Put(context.Background(), "patient-7.png", "image/png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.URL != "/uploads/patient-7.png" {
		t.Errorf("expected normalized URL, got %s", obj.URL)
	}
}
