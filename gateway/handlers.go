package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/filegate/filegate/backends"
	"github.com/filegate/filegate/internal/pathutil"
	"github.com/filegate/filegate/metrics"
)

// ListingResponse is the directory-listing body shared by index, search and
// every mutating operation, which all answer with the refreshed listing of
// the request directory.
type ListingResponse struct {
	Adapter  string     `json:"adapter"`
	Storages []string   `json:"storages"`
	Dirname  string     `json:"dirname"`
	Files    []Resource `json:"files"`
}

// SubfoldersResponse is the body of the subfolders operation.
type SubfoldersResponse struct {
	Folders []Resource `json:"folders"`
}

// MessageResponse is the body of operations that acknowledge without
// returning a listing.
type MessageResponse struct {
	Message string `json:"message"`
	Status  bool   `json:"status"`
}

// listing builds the ListingResponse for a resolved directory, optionally
// keeping only entries whose name contains filter (case-insensitive).
func (g *Gateway) listing(ctx context.Context, loc Location, filter string) (*Response, error) {
	isDir, err := loc.Adapter.FS.IsDir(ctx, loc.Path)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, fmt.Errorf("%w: %s", backends.ErrNotDirectory, loc.Path)
	}

	entries, err := loc.Adapter.FS.Scan(ctx, loc.Path)
	if err != nil {
		return nil, err
	}

	dir := descriptorDir(loc.Path)
	files := make([]Resource, 0, len(entries))
	for _, e := range entries {
		if filter != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter)) {
			continue
		}
		files = append(files, newResource(loc.Adapter.Key, dir, e))
	}
	sortResources(files)

	return jsonResponse(ListingResponse{
		Adapter:  loc.Adapter.Key,
		Storages: g.registry.Keys(),
		Dirname:  address(loc.Adapter.Key, dir),
		Files:    files,
	}), nil
}

// sortResources orders a listing directories-first, then case-insensitively
// by basename. The sort is stable so equal-folded names keep scan order.
func sortResources(files []Resource) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Type != files[j].Type {
			return files[i].Type == "dir"
		}
		return strings.ToLower(files[i].Basename) < strings.ToLower(files[j].Basename)
	})
}

func (g *Gateway) handleIndex(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	return g.listing(ctx, loc, req.Filter)
}

// handleSearch is a filtered listing of the request directory. Entries in
// subdirectories are not visited; search differs from index only in that the
// filter is the point of the call.
func (g *Gateway) handleSearch(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	return g.listing(ctx, loc, req.Filter)
}

func (g *Gateway) handleSubfolders(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	isDir, err := loc.Adapter.FS.IsDir(ctx, loc.Path)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, fmt.Errorf("%w: %s", backends.ErrNotDirectory, loc.Path)
	}

	entries, err := loc.Adapter.FS.Scan(ctx, loc.Path)
	if err != nil {
		return nil, err
	}
	dir := descriptorDir(loc.Path)
	folders := make([]Resource, 0)
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		folders = append(folders, newResource(loc.Adapter.Key, dir, e))
	}
	sortResources(folders)

	return jsonResponse(SubfoldersResponse{Folders: folders}), nil
}

// stream serves a file's bytes. Preview answers inline with a guessed MIME
// type so browsers render what they can; download forces an attachment and
// always sends application/octet-stream so nothing renders in place.
func (g *Gateway) stream(ctx context.Context, req *Request, disposition string) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	isFile, err := loc.Adapter.FS.IsFile(ctx, loc.Path)
	if err != nil {
		return nil, err
	}
	if !isFile {
		return nil, fmt.Errorf("%w: %s", backends.ErrNotFile, loc.Path)
	}

	info, err := loc.Adapter.FS.Stat(ctx, loc.Path)
	if err != nil {
		return nil, err
	}
	rc, err := loc.Adapter.FS.OpenRead(ctx, loc.Path)
	if err != nil {
		return nil, err
	}

	contentType := "application/octet-stream"
	if disposition == "inline" {
		if mt := guessMimeType(info.Name); mt != nil {
			contentType = *mt
		}
	}
	header := http.Header{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, info.Name))

	return &Response{Status: http.StatusOK, Header: header, Stream: rc, Size: info.Size}, nil
}

func (g *Gateway) handlePreview(ctx context.Context, req *Request) (*Response, error) {
	return g.stream(ctx, req, "inline")
}

func (g *Gateway) handleDownload(ctx context.Context, req *Request) (*Response, error) {
	return g.stream(ctx, req, "attachment")
}

func (g *Gateway) handleNewFolder(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	if !pathutil.ValidFilename(req.Payload.Name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, req.Payload.Name)
	}
	dst, err := pathutil.Join(loc.Path, req.Payload.Name)
	if err != nil {
		return nil, err
	}
	exists, err := loc.Adapter.FS.Exists(ctx, dst)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", backends.ErrAlreadyExists, dst)
	}
	if err := loc.Adapter.FS.MakeDir(ctx, dst); err != nil {
		return nil, err
	}
	return g.listing(ctx, loc, "")
}

func (g *Gateway) handleNewFile(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	if !pathutil.ValidFilename(req.Payload.Name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, req.Payload.Name)
	}
	dst, err := pathutil.Join(loc.Path, req.Payload.Name)
	if err != nil {
		return nil, err
	}
	exists, err := loc.Adapter.FS.Exists(ctx, dst)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", backends.ErrAlreadyExists, dst)
	}
	if err := loc.Adapter.FS.WriteText(ctx, dst, ""); err != nil {
		return nil, err
	}
	return g.listing(ctx, loc, "")
}

// moveEntry relocates one file or directory tree, dispatching on the source
// kind. A missing source fails with ErrNotFound before any rename runs.
func moveEntry(ctx context.Context, fs backends.FS, src, dst string) error {
	isDir, err := fs.IsDir(ctx, src)
	if err != nil {
		return err
	}
	if isDir {
		return fs.MoveTree(ctx, src, dst)
	}
	isFile, err := fs.IsFile(ctx, src)
	if err != nil {
		return err
	}
	if !isFile {
		return fmt.Errorf("%w: %s", backends.ErrNotFound, src)
	}
	return fs.Move(ctx, src, dst)
}

func (g *Gateway) handleRename(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	if !pathutil.ValidFilename(req.Payload.Name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, req.Payload.Name)
	}
	src, err := fsPath(req.Payload.Item)
	if err != nil {
		return nil, err
	}
	dst, err := pathutil.Join(path.Dir(src), req.Payload.Name)
	if err != nil {
		return nil, err
	}
	if err := moveEntry(ctx, loc.Adapter.FS, src, dst); err != nil {
		return nil, err
	}
	return g.listing(ctx, loc, "")
}

// handleMove relocates each payload item into the destination folder named
// by the payload's item field, keeping every basename. Items are processed
// in order; a failure stops the batch with earlier moves kept.
func (g *Gateway) handleMove(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	dstDir, err := fsPath(req.Payload.Item)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Payload.Items {
		src, err := fsPath(item.Path)
		if err != nil {
			return nil, err
		}
		dst, err := pathutil.Join(dstDir, path.Base(src))
		if err != nil {
			return nil, err
		}
		exists, err := loc.Adapter.FS.Exists(ctx, dst)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", backends.ErrAlreadyExists, dst)
		}
		if err := moveEntry(ctx, loc.Adapter.FS, src, dst); err != nil {
			return nil, err
		}
	}
	return g.listing(ctx, loc, "")
}

// handleDelete removes each payload item, files and trees alike. The batch
// is not atomic: a mid-batch failure leaves earlier deletions in place.
func (g *Gateway) handleDelete(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Payload.Items {
		p, err := fsPath(item.Path)
		if err != nil {
			return nil, err
		}
		isDir, err := loc.Adapter.FS.IsDir(ctx, p)
		if err != nil {
			return nil, err
		}
		if isDir {
			if err := loc.Adapter.FS.RemoveTree(ctx, p); err != nil {
				return nil, err
			}
			continue
		}
		if err := loc.Adapter.FS.Remove(ctx, p); err != nil {
			return nil, err
		}
	}
	return g.listing(ctx, loc, "")
}

func (g *Gateway) handleUpload(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	if !pathutil.ValidFilename(req.UploadName) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, req.UploadName)
	}
	dst, err := pathutil.Join(loc.Path, req.UploadName)
	if err != nil {
		return nil, err
	}
	w, err := loc.Adapter.FS.OpenWrite(ctx, dst)
	if err != nil {
		return nil, err
	}
	// A bodiless upload still creates the (empty) file.
	if req.Upload != nil {
		if _, err := io.Copy(w, req.Upload); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to store upload %s: %w", dst, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload %s: %w", dst, err)
	}
	return jsonResponse(MessageResponse{Message: "ok", Status: true}), nil
}

// handleSave replaces a file's content and answers with the fresh content
// streamed back, so editors can confirm what was persisted.
func (g *Gateway) handleSave(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	isFile, err := loc.Adapter.FS.IsFile(ctx, loc.Path)
	if err != nil {
		return nil, err
	}
	if !isFile {
		return nil, fmt.Errorf("%w: %s", backends.ErrNotFile, loc.Path)
	}
	if err := loc.Adapter.FS.WriteText(ctx, loc.Path, req.Payload.Content); err != nil {
		return nil, err
	}
	return g.stream(ctx, req, "inline")
}

func (g *Gateway) handleArchive(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	name, err := archiveName(req.Payload.Name)
	if err != nil {
		return nil, err
	}
	sources := make([]string, 0, len(req.Payload.Items))
	for _, item := range req.Payload.Items {
		p, err := fsPath(item.Path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, p)
	}
	if err := writeArchive(ctx, loc.Adapter.FS, loc.Path, sources, name); err != nil {
		return nil, err
	}
	if dst, err := pathutil.Join(loc.Path, name); err == nil {
		if info, err := loc.Adapter.FS.Stat(ctx, dst); err == nil {
			metrics.ArchiveBytesTotal.WithLabelValues("pack").Add(float64(info.Size))
		}
	}
	return g.listing(ctx, loc, "")
}

func (g *Gateway) handleUnarchive(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	archivePath, err := fsPath(req.Payload.Item)
	if err != nil {
		return nil, err
	}
	if err := unpackArchive(ctx, loc.Adapter.FS, loc.Path, archivePath); err != nil {
		return nil, err
	}
	if info, err := loc.Adapter.FS.Stat(ctx, archivePath); err == nil {
		metrics.ArchiveBytesTotal.WithLabelValues("unpack").Add(float64(info.Size))
	}
	return g.listing(ctx, loc, "")
}

// handleDownloadArchive packs the requested items into an in-memory
// container and streams it back without persisting anything on the adapter.
func (g *Gateway) handleDownloadArchive(ctx context.Context, req *Request) (*Response, error) {
	loc, err := g.resolve(req.Address, req.AdapterKey)
	if err != nil {
		return nil, err
	}
	name, err := archiveName(req.Payload.Name)
	if err != nil {
		return nil, err
	}
	sources := make([]string, 0, len(req.Payload.Items))
	for _, item := range req.Payload.Items {
		p, err := fsPath(item.Path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, p)
	}
	data, err := packArchiveBuffer(ctx, loc.Adapter.FS, loc.Path, sources)
	if err != nil {
		return nil, err
	}
	metrics.ArchiveBytesTotal.WithLabelValues("download").Add(float64(len(data)))

	header := http.Header{}
	header.Set("Content-Type", "application/zip")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	return &Response{
		Status: http.StatusOK,
		Header: header,
		Stream: io.NopCloser(bytes.NewReader(data)),
		Size:   int64(len(data)),
	}, nil
}
