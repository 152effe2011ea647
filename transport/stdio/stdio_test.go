package stdio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubHandler struct {
	calls []string
}

func (s *stubHandler) Handle(ctx context.Context, sessionID string, data []byte) *kernel.Response {
	s.calls = append(s.calls, sessionID)
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	_ = json.Unmarshal(data, &req)
	if req.ID == nil {
		return nil
	}
	return &kernel.Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]string{"method": req.Method}}
}

func TestTransport_Run_DispatchesLinesWithStdioSession(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n")
	var out bytes.Buffer
	var errOut bytes.Buffer
	handler := &stubHandler{}

	tr := New(handler, in, &out, &errOut, testLogger())
	err := tr.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, handler.calls, 1)
	assert.Equal(t, kernel.StdioSessionID, handler.calls[0])
	assert.Contains(t, out.String(), `"method":"initialize"`)
}

func TestTransport_Run_SkipsMalformedLines(t *testing.T) {
	in := strings.NewReader("not json at all\n" + `{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")
	var out bytes.Buffer
	var errOut bytes.Buffer
	handler := &stubHandler{}

	tr := New(handler, in, &out, &errOut, testLogger())
	err := tr.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, handler.calls, 1)
	assert.Contains(t, out.String(), "tools/list")
}

func TestTransport_Run_NotificationsProduceNoOutput(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n")
	var out bytes.Buffer
	var errOut bytes.Buffer
	handler := &stubHandler{}

	tr := New(handler, in, &out, &errOut, testLogger())
	err := tr.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestTransport_Run_EmptyLinesIgnored(t *testing.T) {
	in := strings.NewReader("\n\n" + `{"jsonrpc":"2.0","id":3,"method":"ping"}` + "\n")
	var out bytes.Buffer
	var errOut bytes.Buffer
	handler := &stubHandler{}

	tr := New(handler, in, &out, &errOut, testLogger())
	err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, handler.calls, 1)
}

func TestTransport_Run_ClosesCleanlyOnEOF(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	var errOut bytes.Buffer
	handler := &stubHandler{}

	tr := New(handler, in, &out, &errOut, testLogger())
	err := tr.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, handler.calls)
}
