package gateway

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/filegate/filegate/backends"
	"github.com/filegate/filegate/backends/memfs"
)

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in, key, path string
	}{
		{"local://docs/a.txt", "local", "/docs/a.txt"},
		{"media:/", "media", ""},
		{"media:/x", "media", "x"},
		{"/docs/a.txt", "", "/docs/a.txt"},
		{"docs", "", "docs"},
		{"", "", ""},
	}
	for _, tt := range tests {
		key, path := splitAddress(tt.in)
		if key != tt.key || path != tt.path {
			t.Errorf("splitAddress(%q) = (%q, %q), want (%q, %q)", tt.in, key, path, tt.key, tt.path)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	g := New(nil, nil, zap.NewNop())
	g.Register("local", memfs.New())
	g.Register("media", memfs.New())

	// Address prefix wins over the adapter parameter.
	loc, err := g.resolve("media://x", "local")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.Adapter.Key != "media" || loc.Path != "/x" {
		t.Errorf("got (%q, %q), want (media, /x)", loc.Adapter.Key, loc.Path)
	}

	// No prefix: the adapter parameter applies.
	loc, err = g.resolve("/x", "media")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.Adapter.Key != "media" {
		t.Errorf("adapter = %q, want media", loc.Adapter.Key)
	}

	// Nothing at all: the default adapter and the root path.
	loc, err = g.resolve("", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.Adapter.Key != "local" || loc.Path != "/" {
		t.Errorf("got (%q, %q), want (local, /)", loc.Adapter.Key, loc.Path)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	g := New(nil, nil, zap.NewNop())
	g.Register("local", memfs.New())

	if _, err := g.resolve("local://../etc/passwd", ""); !errors.Is(err, backends.ErrForbidden) {
		t.Errorf("escaping address: error = %v, want ErrForbidden", err)
	}
}

func TestAddressComposition(t *testing.T) {
	// The root form matches how entry paths compose: "local://" + name.
	if got := address("local", ""); got != "local://" {
		t.Errorf("root address = %q, want local://", got)
	}
	if got := address("local", "/docs"); got != "local://docs" {
		t.Errorf("address = %q, want local://docs", got)
	}
}
