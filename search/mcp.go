package search

import (
	"context"
	"encoding/json"

	"github.com/hazyhaar/wikiread/kit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the search tool on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	type req struct {
		Query  string `json:"query"`
		Limit  int    `json:"limit"`
		Offset int    `json:"offset"`
	}

	tool := &mcp.Tool{
		Name:        "wiki_search",
		Description: "Search the wiki; returns ranked results with thumbnails and pagination info",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":  map[string]any{"type": "string", "description": "Search query"},
				"limit":  map[string]any{"type": "integer", "description": "Page size (max 50)"},
				"offset": map[string]any{"type": "integer", "description": "Offset into the full result ordering"},
			},
			"required": []string{"query"},
		},
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.Search(ctx, p.Query, p.Limit, p.Offset)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
