// Package pathutil provides path normalization and containment helpers for
// the gateway's adapter-relative virtual paths and for on-disk roots.
package pathutil

import (
	"path"
	"strings"

	"github.com/filegate/filegate/backends"
)

// Clean normalizes a virtual path to an absolute, forward-slash form within
// an adapter root. "." segments and duplicate slashes are collapsed, ".."
// segments are resolved. A path whose ".." segments would climb above the
// root is rejected with backends.ErrForbidden rather than clamped.
func Clean(p string) (string, error) {
	if p == "" {
		return "/", nil
	}

	// Walk the raw segments first: path.Clean would silently clamp
	// "/../x" to "/x", hiding the escape attempt.
	depth := 0
	for _, part := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 {
				return "", backends.ErrForbidden
			}
		default:
			depth++
		}
	}

	return path.Clean("/" + strings.TrimPrefix(p, "/")), nil
}

// Join joins a base directory with a leaf and normalizes the result. The
// leaf may itself contain separators; the combined path is subject to the
// same containment check as Clean. The raw concatenation goes to Clean so
// ".." segments in the leaf are rejected, not collapsed away first.
func Join(dir, name string) (string, error) {
	return Clean(dir + "/" + name)
}

// RelativeTo returns target expressed relative to base. Both arguments must
// be cleaned absolute virtual paths. Used to compute the entry path inside
// an archive container for a source path under the archive's base directory.
func RelativeTo(base, target string) string {
	if base == "/" || base == "" {
		return strings.TrimPrefix(target, "/")
	}
	rel := strings.TrimPrefix(target, strings.TrimSuffix(base, "/")+"/")
	return strings.TrimPrefix(rel, "/")
}

// Windows device names are reserved regardless of extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// ValidFilename reports whether name is a syntactically legal,
// cross-platform-safe filename: a single path component with no separators,
// reserved characters, control characters, or Windows device names.
func ValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\<>:"|?*`) {
		return false
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return false
		}
	}
	// Trailing dots and spaces are stripped by Windows and change the
	// effective name.
	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, " ") {
		return false
	}
	stem := name
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if _, ok := reservedNames[strings.ToUpper(stem)]; ok {
		return false
	}
	return true
}
