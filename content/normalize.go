package content

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mcpforge/mcpforge/kernel"
)

// FileHandle is the pseudo-handle form a handler may return to have a file
// read from disk (spec.md §4.2: "{ type: 'file', path }").
type FileHandle struct {
	Path     string
	MimeType string // optional override
}

// Base64Payload wraps an already base64-encoded value a handler wants
// normalized as binary content, re-encoding it canonically.
type Base64Payload struct {
	Data     string
	MimeType string
}

// Normalizer converts a handler's arbitrary return value into an MCP
// content array (spec.md §4.2). It is constructed once per server with the
// base path used for file-handle sandboxing.
type Normalizer struct {
	BasePath string
	Logger   *slog.Logger
}

func NewNormalizer(basePath string, logger *slog.Logger) *Normalizer {
	return &Normalizer{BasePath: basePath, Logger: logger}
}

// Normalize accepts any of: string, JSON-serializable value, a
// kernel.ContentBlock or []kernel.ContentBlock, []byte, FileHandle, or
// Base64Payload, and produces the content array to ship on the wire.
func (n *Normalizer) Normalize(value any) ([]kernel.ContentBlock, error) {
	switch v := value.(type) {
	case nil:
		return []kernel.ContentBlock{kernel.TextContent("")}, nil

	case string:
		return []kernel.ContentBlock{kernel.TextContent(v)}, nil

	case kernel.ContentBlock:
		if err := n.validateBlock(v); err != nil {
			return nil, err
		}
		return []kernel.ContentBlock{v}, nil

	case []kernel.ContentBlock:
		for _, b := range v {
			if err := n.validateBlock(b); err != nil {
				return nil, err
			}
		}
		return v, nil

	case []byte:
		return n.normalizeBinary(v, "", "")

	case FileHandle:
		return n.normalizeFile(v)

	case Base64Payload:
		return n.normalizeBase64(v)

	default:
		return n.normalizeStructured(v)
	}
}

func (n *Normalizer) validateBlock(b kernel.ContentBlock) error {
	switch b.Type {
	case "text", "image", "audio", "binary", "resource", "resource-link":
		return nil
	default:
		return kernel.NewError(kernel.KindResource, fmt.Sprintf("unrecognized content block type %q", b.Type))
	}
}

func (n *Normalizer) normalizeStructured(v any) ([]kernel.ContentBlock, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, kernel.WrapError(kernel.KindResource, "marshal structured handler return value", err)
	}
	return []kernel.ContentBlock{kernel.TextContent(string(buf))}, nil
}

func (n *Normalizer) normalizeBinary(data []byte, mimeOverride, path string) ([]kernel.ContentBlock, error) {
	warn, err := checkSize(len(data))
	if err != nil {
		return nil, err
	}
	if warn && n.Logger != nil {
		n.Logger.Warn("content size exceeds warning threshold", "bytes", len(data), "threshold", WarnThresholdBytes)
	}
	mimeType := detectMIME(mimeOverride, data, path)
	block := kernel.ContentBlock{
		Type:     classifyBlockType(mimeType),
		Data:     bufferToBase64(data),
		MimeType: mimeType,
	}
	return []kernel.ContentBlock{block}, nil
}

func (n *Normalizer) normalizeFile(h FileHandle) ([]kernel.ContentBlock, error) {
	data, warn, err := readSandboxedFile(n.BasePath, h.Path)
	if err != nil {
		return nil, err
	}
	if warn && n.Logger != nil {
		n.Logger.Warn("content size exceeds warning threshold", "path", h.Path, "bytes", len(data), "threshold", WarnThresholdBytes)
	}
	mimeType := detectMIME(h.MimeType, data, h.Path)
	block := kernel.ContentBlock{
		Type:     classifyBlockType(mimeType),
		Data:     bufferToBase64(data),
		MimeType: mimeType,
	}
	return []kernel.ContentBlock{block}, nil
}

func (n *Normalizer) normalizeBase64(p Base64Payload) ([]kernel.ContentBlock, error) {
	if !looksLikeBase64(p.Data) {
		return nil, kernel.NewError(kernel.KindResource, "invalid-base64: payload does not look like base64 data")
	}
	data, err := base64ToBuffer(p.Data)
	if err != nil {
		return nil, err
	}
	return n.normalizeBinary(data, p.MimeType, "")
}
