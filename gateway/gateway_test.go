package gateway

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/filegate/filegate/auth"
	"github.com/filegate/filegate/backends/memfs"
	"github.com/filegate/filegate/backends/readonly"
)

func newTestGateway(t *testing.T, authn auth.Authenticator) *Gateway {
	t.Helper()
	return New(authn, map[string]string{"Access-Control-Allow-Origin": "*"}, zap.NewNop())
}

func seedMount(t *testing.T, g *Gateway, key string, entries map[string]string) *memfs.Adapter {
	t.Helper()
	fs := memfs.New()
	if len(entries) > 0 {
		if err := fs.Seed(entries); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	g.Register(key, fs)
	return fs
}

func listingBody(t *testing.T, resp *Response) ListingResponse {
	t.Helper()
	body, ok := resp.Body.(ListingResponse)
	if !ok {
		t.Fatalf("body is %T (%v), want ListingResponse", resp.Body, resp.Body)
	}
	return body
}

func TestIndexSortsDirsFirst(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{
		"zebra.txt": "z",
		"Apple.txt": "a",
		"banana/":   "",
		"Cherry/":   "",
	})

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "index"})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	body := listingBody(t, resp)

	if body.Adapter != "local" || body.Dirname != "local://" {
		t.Errorf("adapter/dirname = %q/%q", body.Adapter, body.Dirname)
	}
	var names []string
	for _, f := range body.Files {
		names = append(names, f.Basename)
	}
	want := []string{"banana", "Cherry", "Apple.txt", "zebra.txt"}
	if len(names) != len(want) {
		t.Fatalf("listing = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

func TestIndexFilter(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{
		"report.txt": "", "notes.md": "", "Report-final.txt": "",
	})

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "index", Filter: "report"})
	body := listingBody(t, resp)
	if len(body.Files) != 2 {
		t.Errorf("filtered listing has %d files, want 2", len(body.Files))
	}
}

func TestSearchFiltersListedDirectoryOnly(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{
		"top.txt":        "t",
		"sub/nested.txt": "n",
	})
	ctx := context.Background()

	// A match inside a subdirectory is not surfaced; search scans only the
	// request directory, like index.
	resp := g.Handle(ctx, &Request{Verb: "GET", Op: "search", Filter: "nested"})
	body := listingBody(t, resp)
	if len(body.Files) != 0 {
		t.Fatalf("search crossed into subdirectories: %+v", body.Files)
	}

	resp = g.Handle(ctx, &Request{Verb: "GET", Op: "search", Filter: "top"})
	body = listingBody(t, resp)
	if len(body.Files) != 1 || body.Files[0].Basename != "top.txt" {
		t.Fatalf("search in listed directory = %+v, want top.txt", body.Files)
	}

	// Searching inside the subdirectory finds its own entries.
	resp = g.Handle(ctx, &Request{Verb: "GET", Op: "search", Address: "local://sub", Filter: "nested"})
	body = listingBody(t, resp)
	if len(body.Files) != 1 || body.Files[0].Basename != "nested.txt" {
		t.Fatalf("search in subdirectory = %+v, want nested.txt", body.Files)
	}
}

func TestSubfolders(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{
		"docs/":   "",
		"media/":  "",
		"a.txt":   "x",
		"docs/f2": "y",
	})

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "subfolders"})
	body, ok := resp.Body.(SubfoldersResponse)
	if !ok {
		t.Fatalf("body is %T, want SubfoldersResponse", resp.Body)
	}
	if len(body.Folders) != 2 {
		t.Errorf("folders = %d, want 2", len(body.Folders))
	}
}

func TestPreviewStreamsInline(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{"hello.txt": "Hello World!"})

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "preview", Address: "local://hello.txt"})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	if resp.Stream == nil {
		t.Fatal("no stream in preview response")
	}
	defer resp.Stream.Close()

	if resp.Size != 12 {
		t.Errorf("size = %d, want 12", resp.Size)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(got, "inline") {
		t.Errorf("disposition = %q, want inline", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/plain" {
		t.Errorf("content type = %q", got)
	}
	data, _ := io.ReadAll(resp.Stream)
	if string(data) != "Hello World!" {
		t.Errorf("content = %q", data)
	}
}

func TestDownloadForcesOctetStream(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{"hello.txt": "Hello World!"})

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "download", Address: "local://hello.txt"})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	defer resp.Stream.Close()

	// The attachment path never guesses a type; only preview does.
	if got := resp.Header.Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("content type = %q, want application/octet-stream", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(got, "attachment") {
		t.Errorf("disposition = %q, want attachment", got)
	}
}

func TestDownloadOfDirectoryFails(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{"docs/": ""})

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "download", Address: "local://docs"})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Status)
	}
	if body := resp.Body.(ErrorResponse); body.Code != "NOT_A_FILE" {
		t.Errorf("code = %q, want NOT_A_FILE", body.Code)
	}
}

func TestNewFolderAndNewFile(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := seedMount(t, g, "local", nil)
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{Verb: "POST", Op: "newfolder", Payload: Payload{Name: "docs"}})
	if resp.Status != http.StatusOK {
		t.Fatalf("newfolder status = %d, body = %v", resp.Status, resp.Body)
	}
	if isDir, _ := fs.IsDir(ctx, "/docs"); !isDir {
		t.Error("folder was not created")
	}

	resp = g.Handle(ctx, &Request{Verb: "POST", Op: "newfile", Address: "local://docs", Payload: Payload{Name: "a.txt"}})
	if resp.Status != http.StatusOK {
		t.Fatalf("newfile status = %d, body = %v", resp.Status, resp.Body)
	}
	if content, err := fs.ReadText(ctx, "/docs/a.txt"); err != nil || content != "" {
		t.Errorf("new file content = %q, err = %v", content, err)
	}

	// Duplicate creation is a client error.
	resp = g.Handle(ctx, &Request{Verb: "POST", Op: "newfolder", Payload: Payload{Name: "docs"}})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("duplicate newfolder status = %d, want 400", resp.Status)
	}

	// Invalid names never reach the backend.
	resp = g.Handle(ctx, &Request{Verb: "POST", Op: "newfile", Payload: Payload{Name: "../evil"}})
	if body := resp.Body.(ErrorResponse); body.Code != "INVALID_NAME" {
		t.Errorf("code = %q, want INVALID_NAME", body.Code)
	}
}

func TestRename(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := seedMount(t, g, "local", map[string]string{"docs/old.txt": "body"})
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{
		Verb: "POST", Op: "rename", Address: "local://docs",
		Payload: Payload{Item: "local://docs/old.txt", Name: "new.txt"},
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	if content, err := fs.ReadText(ctx, "/docs/new.txt"); err != nil || content != "body" {
		t.Errorf("renamed content = %q, err = %v", content, err)
	}
	if exists, _ := fs.Exists(ctx, "/docs/old.txt"); exists {
		t.Error("old name still present")
	}
}

func TestMoveBatch(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := seedMount(t, g, "local", map[string]string{
		"inbox/a.txt": "a",
		"inbox/sub/":  "",
		"archive/":    "",
	})
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{
		Verb: "POST", Op: "move", Address: "local://inbox",
		Payload: Payload{
			Item:  "local://archive",
			Items: []Item{{Path: "local://inbox/a.txt"}, {Path: "local://inbox/sub"}},
		},
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	if exists, _ := fs.Exists(ctx, "/archive/a.txt"); !exists {
		t.Error("file was not moved")
	}
	if isDir, _ := fs.IsDir(ctx, "/archive/sub"); !isDir {
		t.Error("directory was not moved")
	}
}

func TestDeleteBatch(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := seedMount(t, g, "local", map[string]string{
		"a.txt":      "a",
		"docs/b.txt": "b",
		"keep.txt":   "k",
	})
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{
		Verb: "POST", Op: "delete",
		Payload: Payload{Items: []Item{{Path: "local://a.txt"}, {Path: "local://docs"}}},
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	for _, p := range []string{"/a.txt", "/docs"} {
		if exists, _ := fs.Exists(ctx, p); exists {
			t.Errorf("%s still present", p)
		}
	}
	if exists, _ := fs.Exists(ctx, "/keep.txt"); !exists {
		t.Error("unrelated file was deleted")
	}
}

func TestUpload(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := seedMount(t, g, "local", nil)
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{
		Verb: "POST", Op: "upload",
		Upload:     strings.NewReader("payload bytes"),
		UploadName: "data.bin",
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	if content, err := fs.ReadText(ctx, "/data.bin"); err != nil || content != "payload bytes" {
		t.Errorf("uploaded content = %q, err = %v", content, err)
	}

	// A bodiless upload still creates an empty file.
	resp = g.Handle(ctx, &Request{Verb: "POST", Op: "upload", UploadName: "empty.bin"})
	if resp.Status != http.StatusOK {
		t.Fatalf("bodiless upload status = %d", resp.Status)
	}
	if content, err := fs.ReadText(ctx, "/empty.bin"); err != nil || content != "" {
		t.Errorf("empty upload content = %q, err = %v", content, err)
	}
}

func TestSaveWritesAndEchoes(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := seedMount(t, g, "local", map[string]string{"note.txt": "before"})
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{
		Verb: "POST", Op: "save", Address: "local://note.txt",
		Payload: Payload{Content: "after"},
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	if resp.Stream == nil {
		t.Fatal("save did not stream the file back")
	}
	defer resp.Stream.Close()
	data, _ := io.ReadAll(resp.Stream)
	if string(data) != "after" {
		t.Errorf("echoed content = %q, want after", data)
	}
	if content, _ := fs.ReadText(ctx, "/note.txt"); content != "after" {
		t.Errorf("persisted content = %q, want after", content)
	}
}

func TestArchiveAndUnarchiveOps(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := seedMount(t, g, "local", map[string]string{
		"work/a.txt":     "a",
		"work/sub/b.txt": "b",
	})
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{
		Verb: "POST", Op: "archive", Address: "local://work",
		Payload: Payload{
			Name:  "bundle",
			Items: []Item{{Path: "local://work/a.txt"}, {Path: "local://work/sub"}},
		},
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("archive status = %d, body = %v", resp.Status, resp.Body)
	}
	if isFile, _ := fs.IsFile(ctx, "/work/bundle.zip"); !isFile {
		t.Fatal("archive was not created")
	}

	if err := fs.MakeDir(ctx, "/out"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	resp = g.Handle(ctx, &Request{
		Verb: "POST", Op: "unarchive", Address: "local://out",
		Payload: Payload{Item: "local://work/bundle.zip"},
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("unarchive status = %d, body = %v", resp.Status, resp.Body)
	}
	if content, err := fs.ReadText(ctx, "/out/sub/b.txt"); err != nil || content != "b" {
		t.Errorf("extracted content = %q, err = %v", content, err)
	}
}

func TestDownloadArchiveStreamsZip(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", map[string]string{"a.txt": "alpha"})

	resp := g.Handle(context.Background(), &Request{
		Verb: "GET", Op: "download_archive",
		Payload: Payload{Name: "pick", Items: []Item{{Path: "local://a.txt"}}},
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.Status, resp.Body)
	}
	if resp.Stream == nil || resp.Size <= 0 {
		t.Fatal("download_archive did not stream a container")
	}
	defer resp.Stream.Close()
	if got := resp.Header.Get("Content-Type"); got != "application/zip" {
		t.Errorf("content type = %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "pick.zip") {
		t.Errorf("disposition = %q, want pick.zip attachment", got)
	}
}

func TestReadOnlyMountRejectsMutations(t *testing.T) {
	g := newTestGateway(t, nil)
	fs := memfs.New()
	if err := fs.Seed(map[string]string{"a.txt": "a"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	g.Register("ro", readonly.Wrap(fs))

	resp := g.Handle(context.Background(), &Request{Verb: "POST", Op: "newfolder", Payload: Payload{Name: "x"}})
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Status)
	}
	if body := resp.Body.(ErrorResponse); body.Code != "READ_ONLY" {
		t.Errorf("code = %q, want READ_ONLY", body.Code)
	}

	// Reads still work.
	resp = g.Handle(context.Background(), &Request{Verb: "GET", Op: "index"})
	if resp.Status != http.StatusOK {
		t.Errorf("read on read-only mount: status = %d", resp.Status)
	}
}

func TestUnknownOperation(t *testing.T) {
	g := newTestGateway(t, nil)
	seedMount(t, g, "local", nil)

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "explode"})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Status)
	}
	if body := resp.Body.(ErrorResponse); body.Code != "UNSUPPORTED_OPERATION" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestAuthorizationGate(t *testing.T) {
	g := newTestGateway(t, auth.NewAPIKeyAuthenticator([]string{"secret"}))
	seedMount(t, g, "local", nil)
	ctx := context.Background()

	resp := g.Handle(ctx, &Request{Verb: "GET", Op: "index", Token: "wrong"})
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Status)
	}
	if body := resp.Body.(ErrorResponse); body.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
	}
	// The configured headers ride on failures too.
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header on error = %q, want *", got)
	}

	resp = g.Handle(ctx, &Request{Verb: "GET", Op: "index", Token: "secret"})
	if resp.Status != http.StatusOK {
		t.Errorf("valid token: status = %d, body = %v", resp.Status, resp.Body)
	}
}

func TestMissingAdapter(t *testing.T) {
	g := newTestGateway(t, nil)

	resp := g.Handle(context.Background(), &Request{Verb: "GET", Op: "index"})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Status)
	}
	if body := resp.Body.(ErrorResponse); body.Code != "NO_ADAPTER_CONFIGURED" {
		t.Errorf("code = %q", body.Code)
	}
}
