package content

import (
	"bytes"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer(basePath string) *Normalizer {
	return NewNormalizer(basePath, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNormalize_String(t *testing.T) {
	n := testNormalizer("")
	blocks, err := n.Normalize("hello")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "text", blocks[0].Type)
	assert.Equal(t, "hello", blocks[0].Text)
}

func TestNormalize_StructuredValue_JSONEncoded(t *testing.T) {
	n := testNormalizer("")
	blocks, err := n.Normalize(map[string]any{"temperature": 21.5})
	require.NoError(t, err)
	assert.Contains(t, blocks[0].Text, "\"temperature\": 21.5")
}

func TestNormalize_ContentBlockPassthrough(t *testing.T) {
	n := testNormalizer("")
	block := kernel.TextContent("already normalized")
	blocks, err := n.Normalize(block)
	require.NoError(t, err)
	assert.Equal(t, block, blocks[0])
}

func TestNormalize_UnknownBlockTypeRejected(t *testing.T) {
	n := testNormalizer("")
	_, err := n.Normalize(kernel.ContentBlock{Type: "bogus"})
	require.Error(t, err)
}

func TestNormalize_ByteSlice_DetectsMIMEAndEncodesBase64(t *testing.T) {
	n := testNormalizer("")
	png := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("x", 16))
	blocks, err := n.Normalize(png)
	require.NoError(t, err)
	assert.Equal(t, "image", blocks[0].Type)
	assert.Equal(t, "image/png", blocks[0].MimeType)

	decoded, err := base64.StdEncoding.DecodeString(blocks[0].Data)
	require.NoError(t, err)
	assert.Equal(t, png, decoded)
}

func TestNormalize_FileHandle_ReadsWithinBasePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hi"), 0o644))

	n := testNormalizer(dir)
	blocks, err := n.Normalize(FileHandle{Path: "note.txt"})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", blocks[0].MimeType)
}

func TestNormalize_FileHandle_RejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	n := testNormalizer(dir)
	_, err := n.Normalize(FileHandle{Path: "../../etc/passwd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path-escape")
}

func TestNormalize_FileHandle_OversizeRejected(t *testing.T) {
	dir := t.TempDir()
	big := bytes.Repeat([]byte("a"), HardCapBytes+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), big, 0o644))

	n := testNormalizer(dir)
	_, err := n.Normalize(FileHandle{Path: "big.bin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content-too-large")
}

func TestNormalize_Base64Payload_RoundTrips(t *testing.T) {
	n := testNormalizer("")
	raw := []byte("round trip me")
	encoded := base64.StdEncoding.EncodeToString(raw)

	blocks, err := n.Normalize(Base64Payload{Data: encoded, MimeType: "application/octet-stream"})
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(blocks[0].Data)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestNormalize_Base64Payload_InvalidRejected(t *testing.T) {
	n := testNormalizer("")
	_, err := n.Normalize(Base64Payload{Data: "not base64!!"})
	require.Error(t, err)
}

func TestBase64_ComposesToIdentity(t *testing.T) {
	raw := []byte{0, 1, 2, 255, 254, 10, 13}
	encoded := bufferToBase64(raw)
	decoded, err := base64ToBuffer(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestBase64_StripsDataURLPrefix(t *testing.T) {
	raw := []byte("payload")
	encoded := "data:text/plain;base64," + base64.StdEncoding.EncodeToString(raw)
	decoded, err := base64ToBuffer(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestResolveSandboxedPath_AllowsNestedPath(t *testing.T) {
	dir := t.TempDir()
	resolved, err := resolveSandboxedPath(dir, "a/b.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resolved, dir))
}

func TestDetectMIME_ExtensionFallback(t *testing.T) {
	assert.Equal(t, "application/json", detectMIME("", nil, "config.json"))
}

func TestDetectMIME_ExplicitOverrideWins(t *testing.T) {
	assert.Equal(t, "application/custom", detectMIME("application/custom", []byte("\x89PNG"), "x.png"))
}
