package gateway

import (
	"strings"

	"github.com/filegate/filegate/backends"
)

// Resource is the uniform descriptor returned for every listed entry. It is
// derived from a backend stat result on each listing and never cached.
type Resource struct {
	Type          string  `json:"type"`
	Path          string  `json:"path"`
	Visibility    string  `json:"visibility"`
	LastModified  *int64  `json:"last_modified"`
	MimeType      *string `json:"mime_type"`
	ExtraMetadata []any   `json:"extra_metadata"`
	Basename      string  `json:"basename"`
	Extension     string  `json:"extension"`
	Storage       string  `json:"storage"`
	FileSize      *int64  `json:"file_size"`
}

// newResource builds the descriptor for one entry of dir on the given
// storage. The root directory is passed as "" so the composed path does not
// double its separator.
func newResource(storage, dir string, info backends.EntryInfo) Resource {
	kind := "file"
	if info.IsDir {
		kind = "dir"
	}
	r := Resource{
		Type:          kind,
		Path:          storage + ":/" + dir + "/" + info.Name,
		Visibility:    "public",
		MimeType:      guessMimeType(info.Name),
		ExtraMetadata: []any{},
		Basename:      info.Name,
		Extension:     extensionOf(info.Name),
		Storage:       storage,
	}
	if !info.ModTime.IsZero() {
		ts := info.ModTime.Unix()
		r.LastModified = &ts
	}
	if !info.IsDir {
		size := info.Size
		r.FileSize = &size
	}
	return r
}

// descriptorDir converts an absolute directory path into the form expected
// by newResource: the root collapses to "".
func descriptorDir(path string) string {
	if path == "/" {
		return ""
	}
	return path
}

// extensionOf returns the substring after the last dot of the basename.
// A dotless name yields the whole name; clients of the listing format have
// depended on this since the first release, so it stays.
func extensionOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
