package httpd

import (
	"path/filepath"
	"strings"
)

// extensionMimeTypes maps a lowercase file extension (including the leading
// dot) to its MIME type. It covers the extensions a typical static site or
// SPA build serves; anything unlisted falls back to octet-stream.
var extensionMimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".mjs":  "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".map":  "application/json; charset=utf-8",
	".xml":  "application/xml; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",

	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".webp": "image/webp",

	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".eot":   "application/vnd.ms-fontobject",

	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".wasm": "application/wasm",

	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
}

const defaultMimeType = "application/octet-stream"

// getMimeType returns the MIME type for a filename based on its extension.
// Unknown extensions return defaultMimeType.
func getMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionMimeTypes[ext]; ok {
		return mt
	}
	return defaultMimeType
}
