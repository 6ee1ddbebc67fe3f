package gateway

import (
	"mime"
	"path"
	"strings"
)

// Fast path for the extensions a file manager actually serves; anything else
// falls through to the platform MIME database.
var extensionMimeTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".webm": "video/webm",
}

// guessMimeType looks up a MIME type from the filename's extension. Unknown
// extensions yield nil, never an error.
func guessMimeType(name string) *string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return nil
	}
	if mt, ok := extensionMimeTypes[ext]; ok {
		return &mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		// Strip any charset parameter for a stable value.
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		return &mt
	}
	return nil
}
