package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources
func (s *MCPServer) registerResources() {
	// Resource 1: Registry snapshot
	registryResource := mcp.NewResource("tags://registry",
		"标签注册表",
		mcp.WithMIMEType("application/json"),
		mcp.WithResourceDescription("完整的注册表快照 (规范标签/别名/使用统计)"),
	)
	s.mcpServer.AddResource(registryResource, s.handleRegistryResource)

	// Resource 2: Stats
	statsResource := mcp.NewResource("tags://stats",
		"词表统计",
		mcp.WithMIMEType("text/markdown"),
		mcp.WithResourceDescription("词表健康统计"),
	)
	s.mcpServer.AddResource(statsResource, s.handleStatsResource)
}

func (s *MCPServer) handleRegistryResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap := s.registry.Snapshot()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tags://registry",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *MCPServer) handleStatsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats := s.registry.Stats()

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tags://stats",
			MIMEType: "text/markdown",
			Text:     formatStats(stats),
		},
	}, nil
}
