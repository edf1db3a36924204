package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers all MCP tools
func (s *MCPServer) registerTools() {
	// Tool 1: Search tags
	searchTool := mcp.NewTool("search_tags",
		mcp.WithDescription("在标签注册表中搜索, 匹配规范标签和别名"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("搜索关键词"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchTags)

	// Tool 2: Tag stats
	statsTool := mcp.NewTool("get_tag_stats",
		mcp.WithDescription("获取词表统计信息 (标签数/别名数/高频标签)"),
	)
	s.mcpServer.AddTool(statsTool, s.handleGetTagStats)

	// Tool 3: Optimize tags
	optimizeTool := mcp.NewTool("optimize_tags",
		mcp.WithDescription("执行一轮标签整理。默认预览模式, 只展示将要合并的标签"),
		mcp.WithBoolean("dry_run",
			mcp.Description("true=预览(默认), false=实际执行合并并回写书签"),
		),
	)
	s.mcpServer.AddTool(optimizeTool, s.handleOptimizeTags)

	// Tool 4: Metrics history
	metricsTool := mcp.NewTool("get_metrics_history",
		mcp.WithDescription("获取健康度评估的指标历史"),
		mcp.WithNumber("limit",
			mcp.Description("返回条数 (默认 20)"),
		),
	)
	s.mcpServer.AddTool(metricsTool, s.handleGetMetricsHistory)
}

func (s *MCPServer) handleSearchTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter required"), nil
	}

	snap := s.registry.Snapshot()

	var result strings.Builder
	result.WriteString(fmt.Sprintf("# 搜索结果: '%s'\n\n", query))

	found := 0
	for key, rec := range snap.Tags {
		if strings.Contains(key, query) {
			result.WriteString(fmt.Sprintf("- **%s** (%d次, %s)\n", key, rec.UsageCount, rec.Category))
			found++
		}
	}
	for alias, canonical := range snap.Aliases {
		if strings.Contains(alias, query) {
			result.WriteString(fmt.Sprintf("- %s → **%s** (别名)\n", alias, canonical))
			found++
		}
	}

	if found == 0 {
		result.WriteString("没有找到匹配的标签。\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *MCPServer) handleGetTagStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.registry.Stats()
	return mcp.NewToolResultText(formatStats(stats)), nil
}

func (s *MCPServer) handleOptimizeTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dryRun := request.GetBool("dry_run", true)

	result, err := s.consolidator.Run(dryRun)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to run consolidation: %v", err)), nil
	}

	return mcp.NewToolResultText(formatConsolidationResult(result)), nil
}

func (s *MCPServer) handleGetMetricsHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", 20))

	entries, err := s.metricsRepo.List(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get metrics history: %v", err)), nil
	}

	return mcp.NewToolResultText(formatMetrics(entries)), nil
}
