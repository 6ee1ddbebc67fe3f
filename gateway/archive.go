package gateway

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/filegate/filegate/backends"
	"github.com/filegate/filegate/internal/pathutil"
)

// archiveName validates a requested container name and enforces the .zip
// extension, appending it when absent.
func archiveName(name string) (string, error) {
	if !pathutil.ValidFilename(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return name, nil
}

// packArchive streams the given source paths (files or whole directory
// trees) into a zip container written to w. Traversal uses an explicit
// worklist rather than recursion, so depth is bounded on adversarially deep
// trees: directories push their children and the most recently pushed entry
// is processed next. Entry paths inside the container are computed relative
// to base.
func packArchive(ctx context.Context, fs backends.FS, base string, sources []string, w io.Writer) error {
	zw := zip.NewWriter(w)

	stack := append([]string(nil), sources...)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := fs.Stat(ctx, p)
		if err != nil {
			return err
		}
		rel := pathutil.RelativeTo(base, p)

		if info.IsDir {
			if rel != "" {
				if _, err := zw.Create(rel + "/"); err != nil {
					return fmt.Errorf("failed to add directory entry %s: %w", rel, err)
				}
			}
			entries, err := fs.Scan(ctx, p)
			if err != nil {
				return err
			}
			for _, e := range entries {
				child, err := pathutil.Join(p, e.Name)
				if err != nil {
					return err
				}
				stack = append(stack, child)
			}
			continue
		}

		hdr := &zip.FileHeader{
			Name:     rel,
			Method:   zip.Deflate,
			Modified: info.ModTime,
		}
		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("failed to add archive entry %s: %w", rel, err)
		}
		rc, err := fs.OpenRead(ctx, p)
		if err != nil {
			return err
		}
		if _, err := io.Copy(entry, rc); err != nil {
			rc.Close()
			return fmt.Errorf("failed to write archive entry %s: %w", rel, err)
		}
		if err := rc.Close(); err != nil {
			return fmt.Errorf("failed to close source %s: %w", p, err)
		}
	}

	return zw.Close()
}

// writeArchive packs sources into a new container at dir/name on the same
// adapter. The container is written to a hidden temporary path and moved
// into place only after a clean finish, so a mid-pack failure never leaves a
// partial artifact at the destination.
func writeArchive(ctx context.Context, fs backends.FS, dir string, sources []string, name string) error {
	dst, err := pathutil.Join(dir, name)
	if err != nil {
		return err
	}
	exists, err := fs.Exists(ctx, dst)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: archive %s", backends.ErrAlreadyExists, dst)
	}

	tmp, err := pathutil.Join(dir, "."+name+".partial")
	if err != nil {
		return err
	}
	w, err := fs.OpenWrite(ctx, tmp)
	if err != nil {
		return err
	}
	if err := packArchive(ctx, fs, dir, sources, w); err != nil {
		w.Close()
		_ = fs.Remove(ctx, tmp)
		return err
	}
	if err := w.Close(); err != nil {
		_ = fs.Remove(ctx, tmp)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := fs.Move(ctx, tmp, dst); err != nil {
		_ = fs.Remove(ctx, tmp)
		return err
	}
	return nil
}

// packArchiveBuffer packs sources into an in-memory container and returns
// its bytes. Used by download_archive, which streams the container to the
// caller instead of persisting it.
func packArchiveBuffer(ctx context.Context, fs backends.FS, base string, sources []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := packArchive(ctx, fs, base, sources, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unpackArchive extracts the container at archivePath into base on the same
// adapter. Extraction is two-phase: a pre-flight scan checks every file
// entry for a destination collision (and containment) before anything is
// written, so a collision aborts the whole operation with the destination
// untouched.
func unpackArchive(ctx context.Context, fs backends.FS, base, archivePath string) error {
	rc, err := fs.OpenRead(ctx, archivePath)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}

	type fileEntry struct {
		src *zip.File
		dst string
	}
	var dirs []string
	var files []fileEntry

	for _, f := range zr.File {
		rel, err := pathutil.Clean(f.Name)
		if err != nil {
			return fmt.Errorf("archive entry %q: %w", f.Name, err)
		}
		dst, err := pathutil.Join(base, rel)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			dirs = append(dirs, dst)
			continue
		}
		exists, err := fs.Exists(ctx, dst)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s would be overwritten by unarchive", backends.ErrAlreadyExists, dst)
		}
		files = append(files, fileEntry{src: f, dst: dst})
	}

	for _, dir := range dirs {
		if err := fs.MakeDir(ctx, dir); err != nil {
			return err
		}
	}
	for _, entry := range files {
		if parent := path.Dir(entry.dst); parent != "/" {
			if err := fs.MakeDir(ctx, parent); err != nil {
				return err
			}
		}
		src, err := entry.src.Open()
		if err != nil {
			return fmt.Errorf("failed to open archive entry %s: %w", entry.src.Name, err)
		}
		w, err := fs.OpenWrite(ctx, entry.dst)
		if err != nil {
			src.Close()
			return err
		}
		if _, err := io.Copy(w, src); err != nil {
			w.Close()
			src.Close()
			return fmt.Errorf("failed to extract %s: %w", entry.dst, err)
		}
		src.Close()
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to finalize %s: %w", entry.dst, err)
		}
	}
	return nil
}
