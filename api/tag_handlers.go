package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/colin-rod/raindrop-classifier/db"
	"github.com/colin-rod/raindrop-classifier/services"
)

var (
	tagRegistry  *services.TagRegistry
	consolidator *services.Consolidator
	metricsRepo  *db.MetricsRepository
)

// SetTagRegistry 设置标签注册表
func SetTagRegistry(registry *services.TagRegistry) {
	tagRegistry = registry
}

// SetConsolidator 设置整理服务
func SetConsolidator(c *services.Consolidator) {
	consolidator = c
}

// SetMetricsRepository 设置指标历史仓库
func SetMetricsRepository(repo *db.MetricsRepository) {
	metricsRepo = repo
}

// HandleGetTags 获取注册表快照 (规范标签 + 别名)
func HandleGetTags(w http.ResponseWriter, r *http.Request) {
	if tagRegistry == nil {
		http.Error(w, "标签注册表未初始化", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tagRegistry.Snapshot())
}

// HandleGetTagStats 获取词表统计信息
func HandleGetTagStats(w http.ResponseWriter, r *http.Request) {
	if tagRegistry == nil {
		http.Error(w, "标签注册表未初始化", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tagRegistry.Stats())
}

// HandleOptimizeTags 手动触发一轮标签整理
func HandleOptimizeTags(w http.ResponseWriter, r *http.Request) {
	if consolidator == nil {
		http.Error(w, "整理服务未初始化", http.StatusInternalServerError)
		return
	}

	var req struct {
		DryRun bool `json:"dry_run"`
	}
	req.DryRun = true

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// 解析失败则使用默认值 (预览模式)
		log.Printf("⚠️ 解析请求失败, 使用默认值: %v", err)
	}

	log.Printf("🔧 开始标签整理: dry_run=%v", req.DryRun)

	result, err := consolidator.Run(req.DryRun)
	if err != nil {
		log.Printf("❌ 标签整理失败: %v", err)
		http.Error(w, "整理失败", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleGetMetrics 获取指标历史 (按时间升序)
func HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	if metricsRepo == nil {
		http.Error(w, "指标仓库未初始化", http.StatusInternalServerError)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := metricsRepo.List(limit)
	if err != nil {
		log.Printf("❌ 查询指标历史失败: %v", err)
		http.Error(w, "查询失败", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
