package gateway

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/filegate/filegate/backends"
	"github.com/filegate/filegate/backends/memfs"
)

func TestArchiveName(t *testing.T) {
	got, err := archiveName("backup")
	if err != nil || got != "backup.zip" {
		t.Errorf("archiveName(backup) = %q, %v", got, err)
	}
	got, err = archiveName("Backup.ZIP")
	if err != nil || got != "Backup.ZIP" {
		t.Errorf("archiveName(Backup.ZIP) = %q, %v", got, err)
	}
	if _, err := archiveName("a/b"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("archiveName(a/b): error = %v, want ErrInvalidName", err)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	if err := fs.Seed(map[string]string{
		"a/b.txt":   "hi",
		"a/c/d.txt": "yo",
		"a/empty/":  "",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := writeArchive(ctx, fs, "/", []string{"/a"}, "out.zip"); err != nil {
		t.Fatalf("writeArchive: %v", err)
	}

	// The temporary never survives a clean pack.
	if exists, _ := fs.Exists(ctx, "/.out.zip.partial"); exists {
		t.Error("temporary archive left behind")
	}

	dst := memfs.New()
	if err := dst.MakeDir(ctx, "/restored"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := fs.ReadText(ctx, "/out.zip")
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if err := dst.WriteText(ctx, "/out.zip", data); err != nil {
		t.Fatalf("copy archive: %v", err)
	}
	if err := unpackArchive(ctx, dst, "/restored", "/out.zip"); err != nil {
		t.Fatalf("unpackArchive: %v", err)
	}

	for path, want := range map[string]string{
		"/restored/a/b.txt":   "hi",
		"/restored/a/c/d.txt": "yo",
	} {
		got, err := dst.ReadText(ctx, path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if isDir, _ := dst.IsDir(ctx, "/restored/a/empty"); !isDir {
		t.Error("empty directory was not restored")
	}
}

func TestWriteArchiveDestinationCollision(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	if err := fs.Seed(map[string]string{
		"a.txt":   "x",
		"out.zip": "already here",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := writeArchive(ctx, fs, "/", []string{"/a.txt"}, "out.zip")
	if !errors.Is(err, backends.ErrAlreadyExists) {
		t.Fatalf("error = %v, want ErrAlreadyExists", err)
	}
	// The existing file is untouched.
	if content, _ := fs.ReadText(ctx, "/out.zip"); content != "already here" {
		t.Error("collision overwrote the existing archive")
	}
}

func TestUnpackCollisionWritesNothing(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	if err := fs.Seed(map[string]string{
		"src/keep.txt": "keep",
		"src/new.txt":  "new",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := writeArchive(ctx, fs, "/src", []string{"/src/keep.txt", "/src/new.txt"}, "bundle.zip"); err != nil {
		t.Fatalf("writeArchive: %v", err)
	}

	// Destination already holds one of the entries.
	if err := fs.Seed(map[string]string{"dst/keep.txt": "original"}); err != nil {
		t.Fatalf("seed dst: %v", err)
	}

	err := unpackArchive(ctx, fs, "/dst", "/src/bundle.zip")
	if !errors.Is(err, backends.ErrAlreadyExists) {
		t.Fatalf("error = %v, want ErrAlreadyExists", err)
	}

	// The pre-flight scan aborts before any write: the colliding file keeps
	// its content and the non-colliding entry is absent.
	if content, _ := fs.ReadText(ctx, "/dst/keep.txt"); content != "original" {
		t.Error("collision target was overwritten")
	}
	if exists, _ := fs.Exists(ctx, "/dst/new.txt"); exists {
		t.Error("partial extraction happened despite collision")
	}
}

func TestUnpackRejectsEscapingEntries(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../evil.txt")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := io.WriteString(w, "pwn"); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	fs := memfs.New()
	if err := fs.WriteText(ctx, "/evil.zip", buf.String()); err != nil {
		t.Fatalf("store zip: %v", err)
	}
	if err := fs.MakeDir(ctx, "/safe"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := unpackArchive(ctx, fs, "/safe", "/evil.zip"); !errors.Is(err, backends.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestPackArchiveBuffer(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	if err := fs.Seed(map[string]string{"a.txt": "alpha", "b/c.txt": "gamma"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	data, err := packArchiveBuffer(ctx, fs, "/", []string{"/a.txt", "/b"})
	if err != nil {
		t.Fatalf("packArchiveBuffer: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open produced archive: %v", err)
	}
	found := map[string]string{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		content, _ := io.ReadAll(rc)
		rc.Close()
		found[f.Name] = string(content)
	}
	if found["a.txt"] != "alpha" || found["b/c.txt"] != "gamma" {
		t.Errorf("entries = %v", found)
	}
}
