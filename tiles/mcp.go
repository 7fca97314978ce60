package tiles

import (
	"context"

	"github.com/hazyhaar/wikiread/kit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the tile metadata tool on an MCP server. Tile blobs
// themselves are binary and served over HTTP only; MCP exposes the bounds,
// zoom range and cache counters.
func (s *Store) RegisterMCP(srv *mcp.Server) {
	type resp struct {
		Metadata Metadata   `json:"metadata"`
		Cache    CacheStats `json:"cache"`
	}

	tool := &mcp.Tool{
		Name:        "tile_metadata",
		Description: "Describe the offline map tile set: bounds, zoom range, cache statistics",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return &resp{Metadata: s.Metadata(), Cache: s.Stats()}, nil
	}

	decode := func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
