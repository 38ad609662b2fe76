// Package mcp exposes margin blanking as Model Context Protocol tools so an
// AI assistant can inspect page sizes, plan and apply blanking, and look at
// a preview of a page with the bands drawn on.
//
// Every tool call opens its own session on the given file; nothing is kept
// between calls.
//
// # Usage with Claude Desktop
//
// Add to your claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "marginblank": {
//	      "command": "marginblank",
//	      "args": ["mcp"]
//	    }
//	  }
//	}
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/session"
)

// Implementation identifies this server to MCP clients.
var Implementation = &mcp.Implementation{Name: "marginblank-mcp", Version: "1.0.0"}

// Server wraps an MCP server with the marginblank tools registered.
type Server struct {
	srv    *mcp.Server
	opts   []session.Option
	logger *slog.Logger
}

// NewServer returns a server whose tools build sessions with opts.
func NewServer(logger *slog.Logger, opts ...session.Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		srv:    mcp.NewServer(Implementation, nil),
		opts:   append([]session.Option{session.WithLogger(logger)}, opts...),
		logger: logger,
	}
	RegisterDefaultTools(s)
	RegisterDefaultResources(s)
	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.srv }

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// toolHandler runs a decoded request and returns a JSON-encodable response,
// or extra content blocks placed before the JSON text.
type toolHandler[T any] func(ctx context.Context, req T) (resp any, extra []mcp.Content, err error)

// addTool registers a tool whose arguments decode into T. Failures become
// tool errors carrying the operator-facing message, never protocol errors.
func addTool[T any](s *Server, tool *mcp.Tool, h toolHandler[T]) {
	s.srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args T
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				var res mcp.CallToolResult
				res.SetError(errors.New("invalid arguments: " + err.Error()))
				return &res, nil
			}
		}

		resp, extra, err := h(ctx, args)
		if err != nil {
			s.logger.Warn("mcp: tool failed", "tool", tool.Name, "kind", marginblank.KindOf(err).String(), "error", err)
			var res mcp.CallToolResult
			res.SetError(errors.New(marginblank.Message(err)))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New("marshal: " + err.Error()))
			return &res, nil
		}
		content := append(extra, &mcp.TextContent{Text: string(data)})
		return &mcp.CallToolResult{Content: content}, nil
	})
}
