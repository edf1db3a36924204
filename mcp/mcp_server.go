package mcp

import (
	"fmt"
	"strings"

	"github.com/colin-rod/raindrop-classifier/db"
	"github.com/colin-rod/raindrop-classifier/models"
	"github.com/colin-rod/raindrop-classifier/services"

	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the MCP server with tag registry services
type MCPServer struct {
	registry     *services.TagRegistry
	consolidator *services.Consolidator
	metricsRepo  *db.MetricsRepository
	mcpServer    *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(
	registry *services.TagRegistry,
	consolidator *services.Consolidator,
	metricsRepo *db.MetricsRepository,
) *MCPServer {
	s := &MCPServer{
		registry:     registry,
		consolidator: consolidator,
		metricsRepo:  metricsRepo,
	}

	s.mcpServer = server.NewMCPServer(
		"raindrop-classifier",
		"1.0.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	// Register tools and resources
	s.registerTools()
	s.registerResources()

	return s
}

// Server returns the underlying MCP server
func (s *MCPServer) Server() *server.MCPServer {
	return s.mcpServer
}

// formatStats formats tag stats as markdown
func formatStats(stats *models.TagStats) string {
	var result strings.Builder
	result.WriteString("# 词表统计\n\n")
	result.WriteString(fmt.Sprintf("- **规范标签**: %d\n", stats.Total))
	result.WriteString(fmt.Sprintf("- **别名**: %d\n", stats.Aliases))
	result.WriteString(fmt.Sprintf("- **累计使用**: %d\n", stats.TotalUsage))
	result.WriteString(fmt.Sprintf("- **单次使用**: %d\n", stats.SingleUse))

	if len(stats.TopTags) > 0 {
		result.WriteString("\n## 高频标签\n\n")
		for _, tag := range stats.TopTags {
			result.WriteString(fmt.Sprintf("- %s (%d次, %s)\n", tag.Name, tag.Count, tag.Category))
		}
	}

	return result.String()
}

// formatMetrics formats metrics history as markdown
func formatMetrics(entries []*models.MetricsSnapshot) string {
	if len(entries) == 0 {
		return "# 指标历史\n\n暂无评估记录。"
	}

	var result strings.Builder
	result.WriteString("# 指标历史\n\n")
	result.WriteString(fmt.Sprintf("共 %d 次评估\n", len(entries)))

	for _, m := range entries {
		result.WriteString(fmt.Sprintf("\n## %s\n", m.Timestamp.Format("2006-01-02 15:04:05")))
		result.WriteString(fmt.Sprintf("- 唯一标签: %d (上次 %d, 新增 %d)\n", m.UniqueTags, m.PreviousUniqueTags, m.NewTags))
		result.WriteString(fmt.Sprintf("- 增长率: %.3f | 新标签比: %.3f | 单次使用比: %.3f | 熵: %.3f bit\n",
			m.GrowthRate, m.NewTagRatio, m.SingleUseRatio, m.Entropy))
	}

	return result.String()
}

// formatConsolidationResult formats a consolidation result as markdown
func formatConsolidationResult(result *models.ConsolidationResult) string {
	var out strings.Builder
	if result.Preview {
		out.WriteString("# 整理预览\n\n")
	} else {
		out.WriteString("# 整理结果\n\n")
	}

	if !result.Executed {
		out.WriteString("健康门控判定词表健康, 本轮跳过。\n")
		return out.String()
	}

	out.WriteString(fmt.Sprintf("标签总数 %d -> %d, 合并 %d 个",
		result.Summary.TagsBefore, result.Summary.TagsAfter, result.Summary.TotalMerges))
	if !result.Preview {
		out.WriteString(fmt.Sprintf(", 更新 %d 条书签", result.Summary.ItemsUpdated))
	}
	out.WriteString("\n")

	for _, action := range result.Actions {
		out.WriteString(fmt.Sprintf("\n- %s -> %s", action.Source, action.Target))
		if action.Reason != "" {
			out.WriteString(fmt.Sprintf(" (%s)", action.Reason))
		}
	}

	return out.String()
}
