// Package memfs provides an in-memory filesystem adapter. It backs demo and
// test mounts and is the reference implementation of the backend capability
// interface: a tree of nodes guarded by one RWMutex.
package memfs

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/filegate/filegate/backends"
)

type node struct {
	name     string
	dir      bool
	data     []byte
	modTime  time.Time
	children map[string]*node
}

func newDirNode(name string) *node {
	return &node{
		name:     name,
		dir:      true,
		modTime:  time.Now(),
		children: make(map[string]*node),
	}
}

// Adapter is an in-memory backends.FS.
type Adapter struct {
	mu   sync.RWMutex
	root *node
}

// New creates an empty in-memory filesystem.
func New() *Adapter {
	return &Adapter{root: newDirNode("")}
}

// Seed populates the filesystem from a path→content map. Keys ending in "/"
// create empty directories; other keys create files (empty string makes an
// empty file). Parent directories are created as needed.
func (a *Adapter) Seed(entries map[string]string) error {
	ctx := context.Background()
	// Directories first so files never race their parents.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasSuffix(k, "/") {
			if err := a.MakeDir(ctx, "/"+strings.Trim(k, "/")); err != nil {
				return err
			}
			continue
		}
		p := "/" + strings.TrimPrefix(k, "/")
		if dir := path.Dir(p); dir != "/" {
			if err := a.MakeDir(ctx, dir); err != nil {
				return err
			}
		}
		if err := a.WriteText(ctx, p, entries[k]); err != nil {
			return err
		}
	}
	return nil
}

// splitPath returns the cleaned segments of an absolute path, empty for "/".
func splitPath(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// lookup walks the tree. Callers must hold at least the read lock.
func (a *Adapter) lookup(p string) (*node, error) {
	cur := a.root
	for _, seg := range splitPath(p) {
		if !cur.dir {
			return nil, backends.ErrNotDirectory
		}
		next, ok := cur.children[seg]
		if !ok {
			return nil, backends.ErrNotFound
		}
		cur = next
	}
	return cur, nil
}

// lookupParent returns the parent directory node and the leaf name.
func (a *Adapter) lookupParent(p string) (*node, string, error) {
	segs := splitPath(p)
	if len(segs) == 0 {
		return nil, "", backends.ErrForbidden
	}
	parent, err := a.lookup("/" + strings.Join(segs[:len(segs)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	if !parent.dir {
		return nil, "", backends.ErrNotDirectory
	}
	return parent, segs[len(segs)-1], nil
}

func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, err := a.lookup(p); err != nil {
		return false, nil
	}
	return true, nil
}

func (a *Adapter) IsFile(ctx context.Context, p string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, err := a.lookup(p)
	if err != nil {
		return false, nil
	}
	return !n.dir, nil
}

func (a *Adapter) IsDir(ctx context.Context, p string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, err := a.lookup(p)
	if err != nil {
		return false, nil
	}
	return n.dir, nil
}

func (a *Adapter) Scan(ctx context.Context, dir string) ([]backends.EntryInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, err := a.lookup(dir)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, backends.ErrNotDirectory
	}
	entries := make([]backends.EntryInfo, 0, len(n.children))
	for _, child := range n.children {
		entries = append(entries, entryInfo(child))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (a *Adapter) Stat(ctx context.Context, p string) (backends.EntryInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, err := a.lookup(p)
	if err != nil {
		return backends.EntryInfo{}, err
	}
	return entryInfo(n), nil
}

func entryInfo(n *node) backends.EntryInfo {
	return backends.EntryInfo{
		Name:    n.name,
		IsDir:   n.dir,
		Size:    int64(len(n.data)),
		ModTime: n.modTime,
	}
}

func (a *Adapter) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, err := a.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, backends.ErrNotFile
	}
	// Snapshot so later writes don't mutate an open reader.
	return io.NopCloser(bytes.NewReader(append([]byte(nil), n.data...))), nil
}

// memWriter buffers written bytes and commits them to the tree on Close.
type memWriter struct {
	a    *Adapter
	path string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	return w.a.commit(w.path, w.buf.Bytes())
}

func (a *Adapter) commit(p string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	parent, leaf, err := a.lookupParent(p)
	if err != nil {
		return err
	}
	if existing, ok := parent.children[leaf]; ok && existing.dir {
		return backends.ErrNotFile
	}
	parent.children[leaf] = &node{name: leaf, data: data, modTime: time.Now()}
	return nil
}

func (a *Adapter) OpenWrite(ctx context.Context, p string) (io.WriteCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	parent, leaf, err := a.lookupParent(p)
	if err != nil {
		return nil, err
	}
	if existing, ok := parent.children[leaf]; ok && existing.dir {
		return nil, backends.ErrNotFile
	}
	return &memWriter{a: a, path: p}, nil
}

func (a *Adapter) MakeDir(ctx context.Context, p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.root
	for _, seg := range splitPath(p) {
		next, ok := cur.children[seg]
		if !ok {
			next = newDirNode(seg)
			cur.children[seg] = next
		} else if !next.dir {
			return backends.ErrAlreadyExists
		}
		cur = next
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	parent, leaf, err := a.lookupParent(p)
	if err != nil {
		return err
	}
	n, ok := parent.children[leaf]
	if !ok {
		return backends.ErrNotFound
	}
	if n.dir {
		return backends.ErrNotFile
	}
	delete(parent.children, leaf)
	return nil
}

func (a *Adapter) RemoveTree(ctx context.Context, p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(splitPath(p)) == 0 {
		a.root = newDirNode("")
		return nil
	}
	parent, leaf, err := a.lookupParent(p)
	if err != nil {
		return err
	}
	n, ok := parent.children[leaf]
	if !ok {
		return backends.ErrNotFound
	}
	if !n.dir {
		return backends.ErrNotDirectory
	}
	delete(parent.children, leaf)
	return nil
}

func (a *Adapter) Move(ctx context.Context, src, dst string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	srcParent, srcLeaf, err := a.lookupParent(src)
	if err != nil {
		return err
	}
	n, ok := srcParent.children[srcLeaf]
	if !ok {
		return backends.ErrNotFound
	}
	if n.dir {
		return backends.ErrNotFile
	}
	dstParent, dstLeaf, err := a.lookupParent(dst)
	if err != nil {
		return err
	}
	if _, ok := dstParent.children[dstLeaf]; ok {
		return backends.ErrAlreadyExists
	}
	delete(srcParent.children, srcLeaf)
	n.name = dstLeaf
	n.modTime = time.Now()
	dstParent.children[dstLeaf] = n
	return nil
}

func (a *Adapter) MoveTree(ctx context.Context, src, dst string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	srcParent, srcLeaf, err := a.lookupParent(src)
	if err != nil {
		return err
	}
	n, ok := srcParent.children[srcLeaf]
	if !ok {
		return backends.ErrNotFound
	}
	if !n.dir {
		return backends.ErrNotDirectory
	}
	// Destination parents are created on demand, matching the
	// directory-aware move contract.
	segs := splitPath(dst)
	if len(segs) == 0 {
		return backends.ErrForbidden
	}
	cur := a.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.children[seg]
		if !ok {
			next = newDirNode(seg)
			cur.children[seg] = next
		} else if !next.dir {
			return backends.ErrNotDirectory
		}
		cur = next
	}
	dstLeaf := segs[len(segs)-1]
	if _, ok := cur.children[dstLeaf]; ok {
		return backends.ErrAlreadyExists
	}
	delete(srcParent.children, srcLeaf)
	n.name = dstLeaf
	n.modTime = time.Now()
	cur.children[dstLeaf] = n
	return nil
}

func (a *Adapter) ReadText(ctx context.Context, p string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, err := a.lookup(p)
	if err != nil {
		return "", err
	}
	if n.dir {
		return "", backends.ErrNotFile
	}
	return string(n.data), nil
}

func (a *Adapter) WriteText(ctx context.Context, p, content string) error {
	return a.commit(p, []byte(content))
}

func (a *Adapter) Close() error {
	return nil
}
