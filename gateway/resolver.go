package gateway

import (
	"strings"

	"github.com/filegate/filegate/internal/pathutil"
)

// Location is a resolved (adapter, path) pair. The path is absolute and
// normalized within the adapter's root. Locations are computed per request
// and never persisted.
type Location struct {
	Adapter Adapter
	Path    string
}

// splitAddress splits a storage-qualified address "key:/path" into its
// adapter key and raw path. An address without the ":/" separator is all
// path.
func splitAddress(addr string) (key, rawPath string) {
	if i := strings.Index(addr, ":/"); i >= 0 {
		return addr[:i], addr[i+len(":/"):]
	}
	return "", addr
}

// resolve turns an address string into a Location. The adapter is chosen by
// the address prefix when present, falling back to fallbackKey (the request's
// adapter parameter) and then to the default adapter. A missing or empty
// path normalizes to the root.
func (g *Gateway) resolve(address, fallbackKey string) (Location, error) {
	key, rawPath := splitAddress(address)
	if key == "" {
		key = fallbackKey
	}
	adapter, err := g.registry.Resolve(key)
	if err != nil {
		return Location{}, err
	}
	cleaned, err := pathutil.Clean(rawPath)
	if err != nil {
		return Location{}, err
	}
	return Location{Adapter: adapter, Path: cleaned}, nil
}

// fsPath normalizes an address or bare path into an adapter-relative
// absolute path, discarding any adapter prefix. Used for item paths in
// move/delete/archive payloads, which always target the request's adapter.
func fsPath(address string) (string, error) {
	_, rawPath := splitAddress(address)
	return pathutil.Clean(rawPath)
}

// address composes the canonical storage-qualified form of a path. The root
// (passed as "") yields "storage://", matching how entry paths compose.
func address(storage, path string) string {
	if path == "" {
		return storage + "://"
	}
	return storage + ":/" + path
}
