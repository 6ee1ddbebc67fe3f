package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/filegate/filegate/backends"
)

// SafeJoin joins an on-disk root with an adapter-relative virtual path,
// guaranteeing the result stays inside the root. Symlinks under the root are
// resolved where possible so a link pointing outside cannot smuggle the
// operation out. Returns backends.ErrForbidden if the path would escape.
func SafeJoin(root, rel string) (string, error) {
	cleanRoot := filepath.Clean(root)

	cleanRel, err := Clean(rel)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(cleanRoot, filepath.FromSlash(strings.TrimPrefix(cleanRel, "/")))

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// Target may not exist yet; verify the existing parent directory
		// still resolves inside the root.
		dir := filepath.Dir(joined)
		if dir != cleanRoot {
			if resolvedDir, dirErr := filepath.EvalSymlinks(dir); dirErr == nil {
				relDir, relErr := filepath.Rel(cleanRoot, resolvedDir)
				if relErr != nil || strings.HasPrefix(relDir, "..") {
					return "", backends.ErrForbidden
				}
			}
		}
		relPath, relErr := filepath.Rel(cleanRoot, joined)
		if relErr != nil || strings.HasPrefix(relPath, "..") {
			return "", backends.ErrForbidden
		}
		return joined, nil
	}

	relPath, relErr := filepath.Rel(cleanRoot, resolved)
	if relErr != nil || strings.HasPrefix(relPath, "..") {
		return "", backends.ErrForbidden
	}

	return joined, nil
}
