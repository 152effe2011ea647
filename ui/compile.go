package ui

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mcpforge/mcpforge/content"
	"github.com/mcpforge/mcpforge/kernel"
)

// Compiler resolves a classified UI source into the MCP content envelope
// the dispatcher returns from resources/read. It owns the filesystem root
// used for htmlFile/componentFile/folder modes and the CDN allow-list used
// for component dependency injection.
type Compiler struct {
	BasePath             string
	ExternalAllowList    []string
	InlineThresholdBytes int64
}

func NewCompiler(basePath string, allowList []string, inlineThreshold int64) *Compiler {
	if inlineThreshold <= 0 {
		inlineThreshold = 10 * 1024
	}
	return &Compiler{BasePath: basePath, ExternalAllowList: allowList, InlineThresholdBytes: inlineThreshold}
}

// AssetResource is a synthetic resource a folder-mode compilation registers
// alongside the UI entry for siblings too large to inline.
type AssetResource struct {
	URI      string
	MimeType string
	Data     []byte
}

// Compile resolves source (already the result of invoking a callable, if
// the descriptor's source was one) into a read result plus any synthetic
// asset resources that should be registered alongside the UI entry.
func (c *Compiler) Compile(uri, source string) (*kernel.ResourcesReadResult, []AssetResource, error) {
	mode := Classify(source, c.BasePath)
	switch mode {
	case kernel.UIModeExternalURL:
		return textResult(uri, MIMEForMode(mode), source), nil, nil

	case kernel.UIModeInlineHTML:
		return textResult(uri, MIMEForMode(mode), source), nil, nil

	case kernel.UIModeRemoteDOM:
		return textResult(uri, MIMEForMode(mode), source), nil, nil

	case kernel.UIModeHTMLFile:
		data, err := c.readFile(source)
		if err != nil {
			return nil, nil, err
		}
		return textResult(uri, MIMEForMode(mode), string(data)), nil, nil

	case kernel.UIModeComponentFile:
		return c.compileComponent(uri, source)

	case kernel.UIModeFolder:
		return c.compileFolder(uri, source)

	default:
		return nil, nil, kernel.NewError(kernel.KindConfiguration, fmt.Sprintf("unclassifiable UI source for %q", uri))
	}
}

func (c *Compiler) readFile(relPath string) ([]byte, error) {
	path := filepath.Join(c.BasePath, relPath)
	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, kernel.WrapError(kernel.KindResource, "resolve UI source path", err)
	}
	base, _ := filepath.Abs(c.BasePath)
	if rel, err := filepath.Rel(base, resolved); err != nil || strings.HasPrefix(rel, "..") {
		return nil, kernel.NewError(kernel.KindResource, fmt.Sprintf("path-escape: %q resolves outside base path", relPath))
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, kernel.WrapError(kernel.KindResource, fmt.Sprintf("read UI source %q", relPath), err)
	}
	return data, nil
}

var bareImportPattern = regexp.MustCompile(`import\s+(?:[\w*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`)

// extractDependencies performs the lexical extraction spec.md §4.11(a)
// calls for: bare-specifier import names, filtered against the configured
// external allow-list (b).
func (c *Compiler) extractDependencies(source string) []string {
	seen := map[string]bool{}
	var deps []string
	for _, m := range bareImportPattern.FindAllStringSubmatch(source, -1) {
		name := m[1]
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "/") {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if c.allowed(name) {
			deps = append(deps, name)
		}
	}
	return deps
}

func (c *Compiler) allowed(dep string) bool {
	if len(c.ExternalAllowList) == 0 {
		return false
	}
	for _, a := range c.ExternalAllowList {
		if a == dep {
			return true
		}
	}
	return false
}

func (c *Compiler) compileComponent(uri, source string) (*kernel.ResourcesReadResult, []AssetResource, error) {
	raw, err := c.readFile(source)
	if err != nil {
		return nil, nil, err
	}
	src := string(raw)
	deps := c.extractDependencies(src)

	compiled, err := transpileComponent(src)
	if err != nil {
		return nil, nil, kernel.WrapError(kernel.KindConfiguration, fmt.Sprintf("compile component %q", source), err)
	}

	var cdnTags strings.Builder
	for _, dep := range deps {
		fmt.Fprintf(&cdnTags, "<script src=\"https://esm.sh/%s\"></script>\n", dep)
	}

	html := fmt.Sprintf("<!doctype html>\n<html><head>%s</head><body><div id=\"root\"></div><script type=\"module\">%s</script></body></html>",
		cdnTags.String(), compiled)

	return textResult(uri, MIMEForMode(kernel.UIModeComponentFile), html), nil, nil
}

// compileFolder walks the folder rooted at source, inlining small siblings
// referenced from index.html and registering larger ones as synthetic
// ui-asset://<uri>/<relpath> resources (spec.md §4.11, SPEC_FULL.md §4).
func (c *Compiler) compileFolder(uri, source string) (*kernel.ResourcesReadResult, []AssetResource, error) {
	folderRoot := filepath.Join(c.BasePath, source)
	indexPath := filepath.Join(folderRoot, "index.html")
	indexData, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, nil, kernel.WrapError(kernel.KindResource, fmt.Sprintf("read folder UI index at %q", source), err)
	}

	var assets []AssetResource
	html := string(indexData)

	walkErr := filepath.Walk(folderRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Base(path) == "index.html" {
			return err
		}
		rel, relErr := filepath.Rel(folderRoot, path)
		if relErr != nil {
			return relErr
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		if int64(len(data)) <= c.InlineThresholdBytes {
			mimeType := detectMIMEForAsset(rel, data)
			html = strings.ReplaceAll(html, rel, "data:"+mimeType+";base64,"+base64.StdEncoding.EncodeToString(data))
			return nil
		}
		if int64(len(data)) > content.HardCapBytes {
			return kernel.NewError(kernel.KindResource, fmt.Sprintf("content-too-large: folder asset %q is %d bytes", rel, len(data)))
		}
		assets = append(assets, AssetResource{
			URI:      fmt.Sprintf("ui-asset://%s/%s", uri, rel),
			MimeType: detectMIMEForAsset(rel, data),
			Data:     data,
		})
		return nil
	})
	if walkErr != nil {
		return nil, nil, kernel.WrapError(kernel.KindResource, fmt.Sprintf("walk folder UI %q", source), walkErr)
	}

	return textResult(uri, MIMEForMode(kernel.UIModeFolder), html), assets, nil
}

func detectMIMEForAsset(relPath string, data []byte) string {
	switch filepath.Ext(relPath) {
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func textResult(uri, mimeType, text string) *kernel.ResourcesReadResult {
	return &kernel.ResourcesReadResult{Contents: []kernel.ResourceContent{{URI: uri, MimeType: mimeType, Text: text}}}
}
