package content

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mcpforge/mcpforge/kernel"
)

const (
	// HardCapBytes is the absolute size limit for any single content item
	// (spec.md §4.2, §8 boundary behaviors).
	HardCapBytes = 50 * 1024 * 1024
	// WarnThresholdBytes is the point above which a size warning is logged
	// but the content still completes.
	WarnThresholdBytes = 10 * 1024 * 1024
)

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// looksLikeBase64 applies the permissive regex spec.md §4.2 calls for,
// after stripping a data-URL prefix if present.
func looksLikeBase64(s string) bool {
	s = stripDataURLPrefix(s)
	if s == "" {
		return false
	}
	if len(s)%4 != 0 {
		return false
	}
	return base64Pattern.MatchString(s)
}

// stripDataURLPrefix removes a leading "data:<mime>;base64," prefix if
// present (spec.md §8: "base64ToBuffer strips a data-URL prefix if present").
func stripDataURLPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if idx := strings.Index(s, ","); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// base64ToBuffer decodes a (possibly data-URL-prefixed) base64 string.
func base64ToBuffer(s string) ([]byte, error) {
	raw := stripDataURLPrefix(s)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, kernel.WrapError(kernel.KindResource, "invalid-base64", err)
	}
	return data, nil
}

// bufferToBase64 canonically re-encodes raw bytes. Composing this with
// base64ToBuffer is the identity for any input base64ToBuffer accepts
// (spec.md §8).
func bufferToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// checkSize enforces the hard cap and returns whether a warning should be
// logged.
func checkSize(n int) (warn bool, err error) {
	if n > HardCapBytes {
		return false, kernel.NewError(kernel.KindResource, fmt.Sprintf("content-too-large: %d bytes exceeds %d byte cap", n, HardCapBytes))
	}
	return n > WarnThresholdBytes, nil
}

// resolveSandboxedPath joins basePath and requested path, rejecting any
// result that escapes basePath (spec.md §4.2 "path-escape", §8 boundary
// behavior: "../x.txt" from base "/srv" resolving to "/x.txt" is rejected).
func resolveSandboxedPath(basePath, requested string) (string, error) {
	if basePath == "" {
		return requested, nil
	}
	base, err := filepath.Abs(basePath)
	if err != nil {
		return "", kernel.WrapError(kernel.KindResource, "resolve base path", err)
	}
	joined := filepath.Join(base, requested)
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", kernel.WrapError(kernel.KindResource, "resolve requested path", err)
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", kernel.NewError(kernel.KindResource, fmt.Sprintf("path-escape: %q resolves outside base path %q", requested, base))
	}
	return resolved, nil
}

// readSandboxedFile reads a file rooted under basePath, enforcing the size
// cap. Returns the bytes and whether a size warning should be logged.
func readSandboxedFile(basePath, requested string) (data []byte, warn bool, err error) {
	path, err := resolveSandboxedPath(basePath, requested)
	if err != nil {
		return nil, false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, kernel.WrapError(kernel.KindResource, fmt.Sprintf("stat %q", requested), err)
	}
	if info.Size() > HardCapBytes {
		return nil, false, kernel.NewError(kernel.KindResource, fmt.Sprintf("content-too-large: %q is %d bytes", requested, info.Size()))
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, false, kernel.WrapError(kernel.KindResource, fmt.Sprintf("read %q", requested), err)
	}
	warn, err = checkSize(len(data))
	return data, warn, err
}
