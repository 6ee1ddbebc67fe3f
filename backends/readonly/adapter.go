// Package readonly wraps any backend so that every mutating operation fails
// with backends.ErrReadOnly. Used to mount the same storage twice with
// different access modes (e.g. "media" read-only next to "media-rw").
package readonly

import (
	"context"
	"io"

	"github.com/filegate/filegate/backends"
)

// Adapter is a read-only view over another backends.FS.
type Adapter struct {
	inner backends.FS
}

// Wrap returns a read-only view of fs.
func Wrap(fs backends.FS) *Adapter {
	return &Adapter{inner: fs}
}

func (a *Adapter) Exists(ctx context.Context, path string) (bool, error) {
	return a.inner.Exists(ctx, path)
}

func (a *Adapter) IsFile(ctx context.Context, path string) (bool, error) {
	return a.inner.IsFile(ctx, path)
}

func (a *Adapter) IsDir(ctx context.Context, path string) (bool, error) {
	return a.inner.IsDir(ctx, path)
}

func (a *Adapter) Scan(ctx context.Context, dir string) ([]backends.EntryInfo, error) {
	return a.inner.Scan(ctx, dir)
}

func (a *Adapter) Stat(ctx context.Context, path string) (backends.EntryInfo, error) {
	return a.inner.Stat(ctx, path)
}

func (a *Adapter) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	return a.inner.OpenRead(ctx, path)
}

func (a *Adapter) ReadText(ctx context.Context, path string) (string, error) {
	return a.inner.ReadText(ctx, path)
}

func (a *Adapter) OpenWrite(ctx context.Context, path string) (io.WriteCloser, error) {
	return nil, backends.ErrReadOnly
}

func (a *Adapter) MakeDir(ctx context.Context, path string) error {
	return backends.ErrReadOnly
}

func (a *Adapter) Remove(ctx context.Context, path string) error {
	return backends.ErrReadOnly
}

func (a *Adapter) RemoveTree(ctx context.Context, path string) error {
	return backends.ErrReadOnly
}

func (a *Adapter) Move(ctx context.Context, src, dst string) error {
	return backends.ErrReadOnly
}

func (a *Adapter) MoveTree(ctx context.Context, src, dst string) error {
	return backends.ErrReadOnly
}

func (a *Adapter) WriteText(ctx context.Context, path, content string) error {
	return backends.ErrReadOnly
}

func (a *Adapter) Close() error {
	return a.inner.Close()
}
