// Package liveserver exposes Garden's evaluate-sequence cycle as an MCP
// tool server (spec §6's external-interfaces slot for a network
// protocol): an "eval" tool that accepts a snippet of source, runs one
// cycle against the server's long-lived Driver, and returns the change
// report as text.
//
// The teacher declared github.com/mark3labs/mcp-go in go.mod but never
// wired it to anything; this package is that wiring, repurposed as the
// modern analogue of the legacy nREPL-style network REPL the original
// implementation exposed (see original_source/nrepl.rs): a small,
// well-known protocol for driving the engine from an external client
// instead of a bespoke wire format.
package liveserver

import (
	"bytes"
	"context"
	"fmt"

	"github.com/agentic-research/garden/internal/driver"
	"github.com/agentic-research/garden/internal/render"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps one Driver behind an MCP tool server. Every "eval" call
// runs a new cycle against the same Driver, so the memoisation and
// change-detection story is identical to the file-watching CLI path:
// two calls with identical source report zero changes.
type Server struct {
	mcp *server.MCPServer
	d   *driver.Driver
}

// New builds a Server around d, named and versioned for MCP's initialize
// handshake.
func New(d *driver.Driver, name, version string) *Server {
	s := &Server{
		mcp: server.NewMCPServer(name, version),
		d:   d,
	}

	tool := mcp.NewTool("eval",
		mcp.WithDescription("Evaluate a Garden source snippet and report changed expressions since the last call"),
		mcp.WithString("source", mcp.Required(), mcp.Description("Garden source: a sequence of parenthesised expressions")),
	)
	s.mcp.AddTool(tool, s.handleEval)
	return s
}

func (s *Server) handleEval(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]interface{})
	source, _ := args["source"].(string)

	report, perr := s.d.RunCycle(source)
	if perr != nil {
		return mcp.NewToolResultError(perr.Repr()), nil
	}

	var buf bytes.Buffer
	printer := render.New(&buf)
	printer.NoColor = true
	printer.Report(report)
	return mcp.NewToolResultText(buf.String()), nil
}

// ServeStdio runs the server over stdio, the transport MCP clients
// (editor integrations, CLI agents) expect by default.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("liveserver: serving stdio: %w", err)
	}
	return nil
}
