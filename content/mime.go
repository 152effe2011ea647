package content

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// extensionMIME covers the common cases net/http's sniffing table and Go's
// mime package sometimes disagree on or omit entirely.
var extensionMIME = map[string]string{
	".json": "application/json",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
}

// detectMIME implements spec.md §4.2's three-tier detection: explicit
// override wins, then magic bytes, then file-extension fallback, else the
// content sniffer's generic result for non-empty data (text/plain or
// application/octet-stream), and octet-stream for empty data.
func detectMIME(explicit string, data []byte, path string) string {
	if explicit != "" {
		return explicit
	}
	if len(data) > 0 {
		if sniffed := http.DetectContentType(data); sniffed != "" && sniffed != "application/octet-stream" && sniffed != "text/plain; charset=utf-8" {
			return stripParams(sniffed)
		}
	}
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if m, ok := extensionMIME[ext]; ok {
			return m
		}
		if m := mime.TypeByExtension(ext); m != "" {
			return stripParams(m)
		}
	}
	if len(data) > 0 {
		return stripParams(http.DetectContentType(data))
	}
	return "application/octet-stream"
}

func stripParams(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		return strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

func classifyBlockType(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "audio/"):
		return "audio"
	default:
		return "binary"
	}
}
