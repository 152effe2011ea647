// Package ui implements the UI Source Classifier & Compiler (spec.md
// §4.11): inspecting a polymorphic `source` value to pick one of six
// delivery modes and emitting the matching MCP content envelope.
package ui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcpforge/mcpforge/kernel"
)

// mimeForMode is the fixed MIME envelope table from spec.md §4.11.
var mimeForMode = map[kernel.UISourceMode]string{
	kernel.UIModeExternalURL:   "text/uri-list",
	kernel.UIModeInlineHTML:    "text/html",
	kernel.UIModeRemoteDOM:     "application/vnd.mcp-ui.remote-dom+json",
	kernel.UIModeHTMLFile:      "text/html",
	kernel.UIModeComponentFile: "text/html",
	kernel.UIModeFolder:        "text/html",
}

// MIMEForMode returns the fixed envelope MIME for a classified mode.
func MIMEForMode(mode kernel.UISourceMode) string { return mimeForMode[mode] }

// Classify inspects a source string (case-insensitive prefix/suffix
// detection) and returns the delivery mode it matches, per the predicate
// table in spec.md §4.11. folderRoot, if non-empty, is consulted to decide
// whether a bare string resolves to a directory containing index.html.
func Classify(source string, folderRoot string) kernel.UISourceMode {
	trimmed := strings.TrimSpace(source)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return kernel.UIModeExternalURL

	case strings.HasPrefix(trimmed, "<") || looksLikeHTML(trimmed):
		return kernel.UIModeInlineHTML

	case isRemoteDOMJSON(trimmed):
		return kernel.UIModeRemoteDOM

	case strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm"):
		return kernel.UIModeHTMLFile

	case strings.HasSuffix(lower, ".tsx") || strings.HasSuffix(lower, ".jsx"):
		return kernel.UIModeComponentFile

	case strings.HasSuffix(trimmed, "/") || resolvesToFolderWithIndex(folderRoot, trimmed):
		return kernel.UIModeFolder

	default:
		return kernel.UIModeInlineHTML
	}
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	for _, tag := range []string{"<html", "<div", "<body", "<!doctype"} {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

func isRemoteDOMJSON(s string) bool {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return false
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return false
	}
	return probe.Type != ""
}

func resolvesToFolderWithIndex(root, source string) bool {
	if root == "" {
		return false
	}
	path := filepath.Join(root, source)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(path, "index.html"))
	return err == nil
}
