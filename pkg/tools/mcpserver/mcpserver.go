// Package mcpserver exposes a toolbox to MCP clients, so agent runtimes that
// speak MCP can invoke the skill tools directly.
package mcpserver

import (
	"context"
	"io"

	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/metrics"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Server serves toolbox tools over MCP.
type Server struct {
	server *mcp.Server
	tb     *toolbox.ToolBox
	log    *zap.Logger

	// Metrics, when set, counts every call by outcome.
	Metrics *metrics.Metrics
}

// New creates a Server that dispatches every call through tb, so arguments
// are validated the same way the agent runtime validates them.
func New(name, version string, tb *toolbox.ToolBox, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		tb:     tb,
		log:    log,
	}

	for _, t := range tb.Tools() {
		s.server.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: inputSchema(t),
		}, s.handler(t.Name))
	}

	return s
}

// Serve reads requests from in and writes responses to out until ctx is
// cancelled or the transport closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return s.run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	})
}

func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call := content.ToolCall{ID: uuid.NewString(), Name: name, Arguments: string(req.Params.Arguments)}

		res := s.tb.Call(ctx, call)
		s.Metrics.ObserveTool(name, res.IsError)
		s.log.Info("mcp tool call", zap.String("tool", name), zap.Bool("is_error", res.IsError))

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
			IsError: res.IsError,
		}, nil
	}
}

func inputSchema(t toolbox.Tool) any {
	if len(t.InputSchema) == 0 {
		return map[string]any{"type": "object"}
	}
	return t.InputSchema
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
