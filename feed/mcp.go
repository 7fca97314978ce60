package feed

import (
	"context"

	"github.com/hazyhaar/wikiread/kit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the feed tool on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "wiki_feed",
		Description: "Fetch the wiki homepage feed: recent updates, announcements, on-this-day, popular pages",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.Fetch(ctx)
	}

	decode := func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
