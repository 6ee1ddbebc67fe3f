// Package backends defines the filesystem capability interface the gateway
// dispatches against, and the error sentinels shared by all adapters.
// Implementations exist for in-memory storage, a rooted local directory,
// S3-compatible object stores, and a read-only decorator.
package backends

import (
	"context"
	"errors"
	"io"
	"time"
)

// Capability errors. Adapters return these (optionally wrapped) so the
// gateway can translate backend failures into its response taxonomy.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrNotDirectory  = errors.New("resource is not a directory")
	ErrNotFile       = errors.New("resource is not a file")
	ErrReadOnly      = errors.New("backend is read-only")
	ErrForbidden     = errors.New("path escapes backend root")
)

// EntryInfo is one child entry of a scanned directory.
type EntryInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// FS is the capability set the gateway requires of a mounted backend. All
// paths are absolute, forward-slash separated, and normalized by the caller;
// adapters never see ".." segments.
type FS interface {
	// Exists reports whether a file or directory occupies path.
	Exists(ctx context.Context, path string) (bool, error)

	// IsFile reports whether path names an existing regular file.
	IsFile(ctx context.Context, path string) (bool, error)

	// IsDir reports whether path names an existing directory.
	IsDir(ctx context.Context, path string) (bool, error)

	// Scan returns the immediate children of a directory.
	Scan(ctx context.Context, dir string) ([]EntryInfo, error)

	// Stat returns the entry info for a single path.
	Stat(ctx context.Context, path string) (EntryInfo, error)

	// OpenRead opens a file for reading.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)

	// OpenWrite opens a file for writing, creating it if absent and
	// truncating it otherwise. Parent directories must already exist.
	OpenWrite(ctx context.Context, path string) (io.WriteCloser, error)

	// MakeDir creates a directory. Missing parents are created.
	MakeDir(ctx context.Context, path string) error

	// Remove deletes a file. Directories are rejected with ErrNotFile.
	Remove(ctx context.Context, path string) error

	// RemoveTree deletes a directory and everything beneath it.
	RemoveTree(ctx context.Context, path string) error

	// Move renames a file. The destination parent must exist.
	Move(ctx context.Context, src, dst string) error

	// MoveTree renames a directory tree, creating the destination's
	// parent directories as needed.
	MoveTree(ctx context.Context, src, dst string) error

	// ReadText reads an entire file as a string.
	ReadText(ctx context.Context, path string) (string, error)

	// WriteText replaces a file's content with the given string.
	WriteText(ctx context.Context, path, content string) error

	// Close releases any resources held by the adapter.
	Close() error
}
