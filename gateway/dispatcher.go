package gateway

import (
	"context"
	"fmt"
)

// Op enumerates the gateway's operations. The set is closed: requests are
// parsed into an Op up front and every Op has exactly one handler, so a typo
// in a request fails at parse time with ErrUnsupportedOperation instead of
// reaching a handler.
type Op int

const (
	OpIndex Op = iota
	OpPreview
	OpSubfolders
	OpDownload
	OpDownloadArchive
	OpSearch
	OpNewFolder
	OpNewFile
	OpRename
	OpMove
	OpDelete
	OpUpload
	OpArchive
	OpUnarchive
	OpSave
)

var opNames = map[Op]string{
	OpIndex:           "index",
	OpPreview:         "preview",
	OpSubfolders:      "subfolders",
	OpDownload:        "download",
	OpDownloadArchive: "download_archive",
	OpSearch:          "search",
	OpNewFolder:       "newfolder",
	OpNewFile:         "newfile",
	OpRename:          "rename",
	OpMove:            "move",
	OpDelete:          "delete",
	OpUpload:          "upload",
	OpArchive:         "archive",
	OpUnarchive:       "unarchive",
	OpSave:            "save",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// opTable is the fixed (verb, operation-name) routing table.
var opTable = map[string]Op{
	"GET:index":             OpIndex,
	"GET:preview":           OpPreview,
	"GET:subfolders":        OpSubfolders,
	"GET:download":          OpDownload,
	"GET:download_archive":  OpDownloadArchive,
	"GET:search":            OpSearch,
	"POST:newfolder":        OpNewFolder,
	"POST:newfile":          OpNewFile,
	"POST:rename":           OpRename,
	"POST:move":             OpMove,
	"POST:delete":           OpDelete,
	"POST:upload":           OpUpload,
	"POST:archive":          OpArchive,
	"POST:unarchive":        OpUnarchive,
	"POST:save":             OpSave,
}

// ParseOp maps an HTTP verb and operation name to an Op. Unknown pairs fail
// with ErrUnsupportedOperation.
func ParseOp(verb, name string) (Op, error) {
	op, ok := opTable[verb+":"+name]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q", ErrUnsupportedOperation, verb, name)
	}
	return op, nil
}

type handlerFunc func(ctx context.Context, req *Request) (*Response, error)

// newHandlerTable binds every Op to its handler. The table is complete by
// construction; ParseOp guarantees no other Op value reaches dispatch.
func (g *Gateway) newHandlerTable() map[Op]handlerFunc {
	return map[Op]handlerFunc{
		OpIndex:           g.handleIndex,
		OpPreview:         g.handlePreview,
		OpSubfolders:      g.handleSubfolders,
		OpDownload:        g.handleDownload,
		OpDownloadArchive: g.handleDownloadArchive,
		OpSearch:          g.handleSearch,
		OpNewFolder:       g.handleNewFolder,
		OpNewFile:         g.handleNewFile,
		OpRename:          g.handleRename,
		OpMove:            g.handleMove,
		OpDelete:          g.handleDelete,
		OpUpload:          g.handleUpload,
		OpArchive:         g.handleArchive,
		OpUnarchive:       g.handleUnarchive,
		OpSave:            g.handleSave,
	}
}
