// Package localfs implements the backend capability interface on top of a
// rooted local directory. Every virtual path is contained to the root via
// pathutil.SafeJoin before any syscall.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/filegate/filegate/backends"
	"github.com/filegate/filegate/internal/pathutil"
)

// Adapter is a backends.FS over a local directory tree.
type Adapter struct {
	rootPath string
}

// New creates a local filesystem adapter rooted at rootPath, creating the
// root directory if it does not exist yet.
func New(rootPath string) (*Adapter, error) {
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root path %s: %w", rootPath, err)
	}
	if _, err := os.Stat(rootPath); err != nil {
		return nil, fmt.Errorf("root path %s is not accessible: %w", rootPath, err)
	}
	return &Adapter{rootPath: rootPath}, nil
}

func (a *Adapter) resolve(p string) (string, error) {
	return pathutil.SafeJoin(a.rootPath, p)
}

func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	full, err := a.resolve(p)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return true, nil
}

func (a *Adapter) IsFile(ctx context.Context, p string) (bool, error) {
	full, err := a.resolve(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return info.Mode().IsRegular(), nil
}

func (a *Adapter) IsDir(ctx context.Context, p string) (bool, error) {
	full, err := a.resolve(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return info.IsDir(), nil
}

func (a *Adapter) Scan(ctx context.Context, dir string) ([]backends.EntryInfo, error) {
	full, err := a.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	infos := make([]backends.EntryInfo, 0, len(entries))
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info; skip it.
			continue
		}
		infos = append(infos, backends.EntryInfo{
			Name:    entry.Name(),
			IsDir:   entry.IsDir(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	return infos, nil
}

func (a *Adapter) Stat(ctx context.Context, p string) (backends.EntryInfo, error) {
	full, err := a.resolve(p)
	if err != nil {
		return backends.EntryInfo{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return backends.EntryInfo{}, backends.ErrNotFound
		}
		return backends.EntryInfo{}, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return backends.EntryInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (a *Adapter) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	full, err := a.resolve(p)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file %s: %w", p, err)
	}
	return file, nil
}

func (a *Adapter) OpenWrite(ctx context.Context, p string) (io.WriteCloser, error) {
	full, err := a.resolve(p)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file for writing %s: %w", p, err)
	}
	return file, nil
}

func (a *Adapter) MakeDir(ctx context.Context, p string) error {
	full, err := a.resolve(p)
	if err != nil {
		return err
	}
	if info, err := os.Stat(full); err == nil {
		if !info.IsDir() {
			return backends.ErrAlreadyExists
		}
		return nil
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p, err)
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, p string) error {
	full, err := a.resolve(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return backends.ErrNotFound
		}
		return fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if info.IsDir() {
		return backends.ErrNotFile
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}

func (a *Adapter) RemoveTree(ctx context.Context, p string) error {
	full, err := a.resolve(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return backends.ErrNotFound
		}
		return fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if !info.IsDir() {
		return backends.ErrNotDirectory
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to delete tree %s: %w", p, err)
	}
	return nil
}

func (a *Adapter) Move(ctx context.Context, src, dst string) error {
	return a.rename(src, dst, false)
}

func (a *Adapter) MoveTree(ctx context.Context, src, dst string) error {
	return a.rename(src, dst, true)
}

func (a *Adapter) rename(src, dst string, wantDir bool) error {
	fullSrc, err := a.resolve(src)
	if err != nil {
		return err
	}
	fullDst, err := a.resolve(dst)
	if err != nil {
		return err
	}
	info, err := os.Stat(fullSrc)
	if err != nil {
		if os.IsNotExist(err) {
			return backends.ErrNotFound
		}
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if wantDir && !info.IsDir() {
		return backends.ErrNotDirectory
	}
	if !wantDir && info.IsDir() {
		return backends.ErrNotFile
	}
	if _, err := os.Stat(fullDst); err == nil {
		return backends.ErrAlreadyExists
	}
	if wantDir {
		if err := os.MkdirAll(filepath.Dir(fullDst), 0755); err != nil {
			return fmt.Errorf("failed to create destination parent: %w", err)
		}
	}
	if err := os.Rename(fullSrc, fullDst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

func (a *Adapter) ReadText(ctx context.Context, p string) (string, error) {
	full, err := a.resolve(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", backends.ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", p, err)
	}
	return string(data), nil
}

func (a *Adapter) WriteText(ctx context.Context, p, content string) error {
	full, err := a.resolve(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

func (a *Adapter) Close() error {
	return nil
}
