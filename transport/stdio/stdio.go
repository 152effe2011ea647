// Package stdio implements the newline-delimited JSON-RPC transport over
// standard input/output (spec.md §4.6): exactly one implicit client, one
// session ("stdio"), malformed lines are logged and skipped rather than
// fatal, and the loop exits cleanly on stdin EOF.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcpforge/mcpforge/kernel"
)

// Handler is the subset of kernel.Dispatcher the transport depends on.
type Handler interface {
	Handle(ctx context.Context, sessionID string, data []byte) *kernel.Response
}

// Transport runs the stdio read/dispatch/write loop.
type Transport struct {
	handler Handler
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
}

// New builds a stdio transport against the given handler. server.Builder
// passes stdin/stdout/stderr unless its StdioIn/StdioOut/StdioErr fields are
// set; taking them as arguments lets tests substitute in-memory
// readers/writers.
func New(handler Handler, in io.Reader, out, errOut io.Writer, logger *slog.Logger) *Transport {
	return &Transport{handler: handler, in: in, out: out, errOut: errOut, logger: logger}
}

// Run reads newline-delimited JSON-RPC requests until stdin closes or ctx is
// cancelled; cancellation is checked after each line is read, so a Run
// blocked waiting for input returns at the next line or at EOF. It never
// writes anything but JSON-RPC responses to out; all diagnostics go to the
// logger, and errOut is not written to.
func (t *Transport) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	encoder := json.NewEncoder(t.out)

	t.logger.Info("stdio transport started")

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		// Copy the line: scanner.Bytes() is only valid until the next Scan.
		msg := make([]byte, len(line))
		copy(msg, line)

		if !json.Valid(msg) {
			t.logger.Error("malformed JSON-RPC line, skipping", "line", string(msg))
			continue
		}

		resp := t.handler.Handle(ctx, kernel.StdioSessionID, msg)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	t.logger.Info("stdio transport stopped (stdin closed)")
	return nil
}
