package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	fs := NewFileStorage(path)

	if _, err := fs.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	if err := fs.Save(context.Background(), []byte(`{"schema_version":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"schema_version":1}` {
		t.Fatalf("round trip mismatch: %s", data)
	}

	if err := fs.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := fs.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	// Clearing an already-empty file is idempotent.
	if err := fs.Clear(context.Background()); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileStoragePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix permissions")
	}
	path := filepath.Join(t.TempDir(), "session.json")
	fs := NewFileStorage(path)
	if err := fs.Save(context.Background(), []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode: got %o want 600", info.Mode().Perm())
	}
}

func TestFileStorageOverwriteIsAtomicReplacement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fs := NewFileStorage(path)

	if err := fs.Save(context.Background(), []byte("first")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := fs.Save(context.Background(), []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	data, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected latest record, got %s", data)
	}

	// No temp files left behind.
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".session-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}
