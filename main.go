package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/colin-rod/raindrop-classifier/api"
	"github.com/colin-rod/raindrop-classifier/config"
	"github.com/colin-rod/raindrop-classifier/db"
	"github.com/colin-rod/raindrop-classifier/mcp"
	"github.com/colin-rod/raindrop-classifier/models"
	"github.com/colin-rod/raindrop-classifier/services"

	"github.com/mark3labs/mcp-go/server"
)

var (
	cfg             *config.Config
	metricsRepo     *db.MetricsRepository
	processedRepo   *db.ProcessedRepository
	registryStore   *db.RegistryStore
	tagRegistry     *services.TagRegistry
	scraperService  *services.ScraperService
	aiService       *services.AIService
	raindropService *services.RaindropService
	healthGate      *services.HealthGate
	consolidator    *services.Consolidator
	rateLimiter     *api.RateLimiter
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// 1. 加载配置
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("⚠️ 配置验证警告: %v", err)
	}

	log.Printf("✅ 配置加载成功")
	log.Printf("📊 AI启用: %v", cfg.AIEnabled)
	log.Printf("📊 相似度阈值: %.2f", cfg.SimilarityThreshold)

	// 2. 初始化数据库 (指标历史 + 已处理记录)
	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("❌ 数据库初始化失败: %v", err)
	}
	defer db.Close()

	// 3. 初始化仓库和注册表
	metricsRepo = db.NewMetricsRepository()
	processedRepo = db.NewProcessedRepository()
	registryStore = db.NewRegistryStore(cfg.RegistryPath)

	tagRegistry = services.NewTagRegistry(registryStore, cfg.SimilarityThreshold)
	if err := tagRegistry.Load(); err != nil {
		// 快照损坏时拒绝启动, 防止覆盖用户数据
		log.Fatalf("❌ 加载标签注册表失败: %v", err)
	}

	// 4. 初始化服务
	scraperService = services.NewScraperService()
	aiService = services.NewAIService(cfg, scraperService)
	raindropService = services.NewRaindropService(cfg)
	healthGate = services.NewHealthGate(metricsRepo, cfg)
	consolidator = services.NewConsolidator(tagRegistry, aiService, raindropService, healthGate, cfg.BatchSize, cfg.RaindropCollection)

	switch os.Args[1] {
	case "classify":
		runClassify(os.Args[2:])
	case "consolidate":
		runConsolidate(os.Args[2:])
	case "stats":
		runStats()
	case "serve":
		runServe()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "用法: raindrop-classifier <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "命令:")
	fmt.Fprintln(os.Stderr, "  classify     拉取未处理的书签, AI 建议标签并写回")
	fmt.Fprintln(os.Stderr, "  consolidate  执行一轮标签整理 (--dry-run 预览)")
	fmt.Fprintln(os.Stderr, "  stats        打印词表统计")
	fmt.Fprintln(os.Stderr, "  serve        启动 HTTP API + MCP 服务器")
}

// runClassify 分类模式: 对每条未处理书签执行 AI 建议 -> 注册表登记 -> 回写
func runClassify(args []string) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	limit := fs.Int("limit", 0, "最多处理多少条书签 (0=不限制)")
	_ = fs.Parse(args)

	if !cfg.AIEnabled {
		log.Fatalf("❌ AI 未启用, classify 模式需要 AI 建议器")
	}

	// 收藏夹标题 -> ID 映射 (用于按分类归档)
	collectionIDs := loadCollectionIndex()

	raindrops, err := raindropService.ListAllRaindrops(cfg.RaindropCollection)
	if err != nil {
		log.Fatalf("❌ 拉取书签失败: %v", err)
	}

	// 过滤已处理的书签
	pending := make([]*models.Raindrop, 0, len(raindrops))
	for _, rd := range raindrops {
		done, err := processedRepo.IsProcessed(rd.ID)
		if err != nil {
			log.Printf("⚠️ 查询处理状态失败 ID=%d: %v", rd.ID, err)
			continue
		}
		if !done {
			pending = append(pending, rd)
		}
	}

	if *limit > 0 && len(pending) > *limit {
		pending = pending[:*limit]
	}

	log.Printf("📚 共 %d 条书签, 待处理 %d 条", len(raindrops), len(pending))
	if len(pending) == 0 {
		return
	}

	pool := services.NewClassifyWorkerPool(cfg.AIWorkerCount, func(rd *models.Raindrop) {
		classifyOne(rd, collectionIDs)
	})
	pool.Start()

	for _, rd := range pending {
		pool.Submit(rd)
	}
	pool.Drain()

	if err := tagRegistry.Persist(); err != nil {
		log.Printf("❌ 持久化注册表失败: %v", err)
	}

	log.Printf("✅ 分类完成: 处理 %d 条", len(pending))
}

// classifyOne 处理单条书签 (worker 回调)
func classifyOne(rd *models.Raindrop, collectionIDs map[string]int) {
	resp, err := aiService.SuggestTags(rd)
	if err != nil {
		log.Printf("⚠️ AI 建议失败 ID=%d: %v", rd.ID, err)
		return
	}

	// 原有标签 + AI 建议一起走注册表, 保证全部规范化
	raw := append(append([]string{}, rd.Tags...), resp.Tags...)
	canonical := tagRegistry.ProcessSuggestedTags(raw, resp.Category)

	// 去重 (保留首次出现顺序)
	seen := make(map[string]bool)
	final := make([]string, 0, len(canonical))
	for _, tag := range canonical {
		if !seen[tag] {
			seen[tag] = true
			final = append(final, tag)
		}
	}

	if err := raindropService.UpdateTags(rd.ID, final); err != nil {
		log.Printf("⚠️ 回写标签失败 ID=%d: %v", rd.ID, err)
		return
	}

	// 按 AI 分类归档到对应收藏夹 (标题匹配, 找不到则跳过)
	if resp.Category != "" {
		if collID, ok := collectionIDs[strings.ToLower(resp.Category)]; ok && collID != rd.CollectionID() {
			if err := raindropService.MoveToCollection(rd.ID, collID); err != nil {
				log.Printf("⚠️ 移动书签失败 ID=%d: %v", rd.ID, err)
			}
		}
	}

	if err := processedRepo.MarkProcessed(rd.ID); err != nil {
		log.Printf("⚠️ 标记已处理失败 ID=%d: %v", rd.ID, err)
	}

	// 每条处理完就落盘, 中断后可以续跑
	if err := tagRegistry.Persist(); err != nil {
		log.Printf("⚠️ 持久化注册表失败: %v", err)
	}

	log.Printf("✅ 已分类 ID=%d: tags=%v category=%s", rd.ID, final, resp.Category)
}

// loadCollectionIndex 构建收藏夹标题到ID的索引
func loadCollectionIndex() map[string]int {
	index := make(map[string]int)
	collections, err := raindropService.ListCollections()
	if err != nil {
		log.Printf("⚠️ 拉取收藏夹列表失败, 跳过归档: %v", err)
		return index
	}
	for _, c := range collections {
		index[strings.ToLower(c.Title)] = c.ID
	}
	return index
}

// runConsolidate 整理模式: 健康门控 -> AI 分组 -> 合并 -> 回写
func runConsolidate(args []string) {
	fs := flag.NewFlagSet("consolidate", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "只预览将要合并的标签, 不执行")
	_ = fs.Parse(args)

	result, err := consolidator.Run(*dryRun)
	if err != nil {
		log.Fatalf("❌ 标签整理失败: %v", err)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// runStats 打印词表统计
func runStats() {
	stats := tagRegistry.Stats()
	processed, _ := processedRepo.Count()
	evaluations, _ := metricsRepo.Count()

	out := map[string]interface{}{
		"registry":      stats,
		"processed":     processed,
		"evaluations":   evaluations,
		"registry_path": cfg.RegistryPath,
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// runServe 启动 HTTP API + MCP 服务器
func runServe() {
	// 1. 设置 API 处理器依赖
	api.SetTagRegistry(tagRegistry)
	api.SetConsolidator(consolidator)
	api.SetMetricsRepository(metricsRepo)

	// 2. 初始化限流器
	if cfg.RateLimitEnabled {
		rateLimiter = api.NewRateLimiter(cfg.RateLimitPerIP, cfg.RateLimitBurst)
	}

	// 3. 初始化 MCP 服务器
	mcpSrv := mcp.NewMCPServer(tagRegistry, consolidator, metricsRepo)
	httpServer := server.NewStreamableHTTPServer(mcpSrv.Server())
	log.Printf("✅ MCP 服务器初始化成功")

	// 4. 设置路由
	mux := http.NewServeMux()

	// MCP HTTP 端点 - 使用 StreamableHTTPServer
	mux.Handle("/mcp/", http.StripPrefix("/mcp", httpServer))

	// 健康检查端点(不需要认证)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// API 路由
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			api.HandleGetTags(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/tags/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			api.HandleGetTagStats(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/tags/optimize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			api.HandleOptimizeTags(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			api.HandleGetMetrics(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// 5. 应用中间件
	handler := api.LoggingMiddleware(mux)
	handler = api.AuthMiddleware(func() string { return cfg.APIToken })(handler)
	handler = api.RateLimitMiddleware(rateLimiter)(handler)
	handler = api.CORSMiddleware(handler) // CORS 必须在最外层
	handler = api.RecoveryMiddleware(handler)

	// 6. 启动服务器
	log.Printf("🚀 服务器启动: http://localhost:%s", cfg.Port)
	log.Printf("📚 REST API: http://localhost:%s/api/tags", cfg.Port)
	log.Printf("🔗 MCP 端点: http://localhost:%s/mcp", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("❌ 服务器启动失败: %v", err)
	}
}
