package memfs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/filegate/filegate/backends"
)

func seeded(t *testing.T) *Adapter {
	t.Helper()
	a := New()
	err := a.Seed(map[string]string{
		"docs/readme.md":  "# readme",
		"docs/notes.txt":  "notes",
		"docs/deep/x.bin": "xx",
		"empty/":          "",
		"top.txt":         "top",
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return a
}

func TestSeedAndScan(t *testing.T) {
	a := seeded(t)
	ctx := context.Background()

	entries, err := a.Scan(ctx, "/")
	if err != nil {
		t.Fatalf("scan root: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("root has %d entries, want 3", len(entries))
	}

	isDir, _ := a.IsDir(ctx, "/empty")
	if !isDir {
		t.Error("trailing-slash seed key should create a directory")
	}
	isFile, _ := a.IsFile(ctx, "/docs/readme.md")
	if !isFile {
		t.Error("/docs/readme.md should be a file")
	}
}

func TestOpenWriteCommitsOnClose(t *testing.T) {
	a := New()
	ctx := context.Background()

	w, err := a.OpenWrite(ctx, "/f.txt")
	if err != nil {
		t.Fatalf("open write: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Not visible until Close.
	exists, _ := a.Exists(ctx, "/f.txt")
	if exists {
		t.Error("file visible before Close")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	content, err := a.ReadText(ctx, "/f.txt")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if content != "hello" {
		t.Errorf("content = %q, want hello", content)
	}
}

func TestOpenReadSnapshots(t *testing.T) {
	a := seeded(t)
	ctx := context.Background()

	rc, err := a.OpenRead(ctx, "/top.txt")
	if err != nil {
		t.Fatalf("open read: %v", err)
	}
	defer rc.Close()

	if err := a.WriteText(ctx, "/top.txt", "changed"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "top" {
		t.Errorf("reader observed overwrite: got %q", data)
	}
}

func TestMoveCollision(t *testing.T) {
	a := seeded(t)
	ctx := context.Background()

	err := a.Move(ctx, "/top.txt", "/docs/notes.txt")
	if !errors.Is(err, backends.ErrAlreadyExists) {
		t.Fatalf("move onto existing file: error = %v, want ErrAlreadyExists", err)
	}
	// Source untouched.
	if content, _ := a.ReadText(ctx, "/top.txt"); content != "top" {
		t.Error("failed move mutated the source")
	}
}

func TestMoveTreeCreatesDestinationParents(t *testing.T) {
	a := seeded(t)
	ctx := context.Background()

	if err := a.MoveTree(ctx, "/docs", "/archive/2026/docs"); err != nil {
		t.Fatalf("move tree: %v", err)
	}
	content, err := a.ReadText(ctx, "/archive/2026/docs/deep/x.bin")
	if err != nil {
		t.Fatalf("moved file unreadable: %v", err)
	}
	if content != "xx" {
		t.Errorf("content = %q, want xx", content)
	}
	if exists, _ := a.Exists(ctx, "/docs"); exists {
		t.Error("source tree still present after move")
	}
}

func TestRemoveKindChecks(t *testing.T) {
	a := seeded(t)
	ctx := context.Background()

	if err := a.Remove(ctx, "/docs"); !errors.Is(err, backends.ErrNotFile) {
		t.Errorf("Remove on dir: error = %v, want ErrNotFile", err)
	}
	if err := a.RemoveTree(ctx, "/top.txt"); !errors.Is(err, backends.ErrNotDirectory) {
		t.Errorf("RemoveTree on file: error = %v, want ErrNotDirectory", err)
	}
	if err := a.Remove(ctx, "/missing"); !errors.Is(err, backends.ErrNotFound) {
		t.Errorf("Remove missing: error = %v, want ErrNotFound", err)
	}
}

func TestRemoveTreeRootResets(t *testing.T) {
	a := seeded(t)
	ctx := context.Background()

	if err := a.RemoveTree(ctx, "/"); err != nil {
		t.Fatalf("remove root: %v", err)
	}
	entries, err := a.Scan(ctx, "/")
	if err != nil {
		t.Fatalf("scan after reset: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("root has %d entries after reset, want 0", len(entries))
	}
}
