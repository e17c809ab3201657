package collector

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the collector tools on an MCP server.
func (c *Coordinator) RegisterMCP(srv *mcp.Server) {
	c.registerRunTool(srv, ModeQuick,
		"comsum_quick",
		"Summarize the comments currently visible on the page. Fast; does not scroll or paginate.")
	c.registerRunTool(srv, ModeDeep,
		"comsum_deep",
		"Scroll, expand replies and paginate to gather more comments, then summarize. Slower but more thorough.")
	c.registerStatusTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
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

// addTool registers an endpoint whose JSON-marshaled result becomes the
// tool's text content. Endpoint errors become tool errors, not protocol
// errors, so clients see them as failed calls.
func addTool(srv *mcp.Server, tool *mcp.Tool, endpoint func(ctx context.Context) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := endpoint(ctx)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func (c *Coordinator) registerRunTool(srv *mcp.Server, mode Mode, name, desc string) {
	tool := &mcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context) (any, error) {
		res, err := c.run(ctx, mode)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}

func (c *Coordinator) registerStatusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "comsum_status",
		Description: "Report whether a summarization run is currently in progress.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(_ context.Context) (any, error) {
		return map[string]bool{"busy": c.Busy()}, nil
	})
}
