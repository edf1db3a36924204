package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	// Raindrop.io (外部条目存储)
	RaindropToken      string
	RaindropEndpoint   string
	RaindropCollection int // 0 = 全部收藏夹

	// AI 建议器
	AIEnabled     bool
	AIAPIKey      string
	AIEndpoint    string
	AIModel       string
	AIWorkerCount int

	// 标签引擎
	SimilarityThreshold float64
	BatchSize           int
	GrowthThreshold     float64
	NewTagThreshold     float64
	SingleUseThreshold  float64
	EntropyThreshold    float64

	// 持久化
	RegistryPath string
	DBPath       string

	// serve 模式
	APIToken         string
	Port             string
	RateLimitEnabled bool
	RateLimitPerIP   int
	RateLimitBurst   int
}

// Load 加载配置（从 .env 文件和环境变量）
func Load() (*Config, error) {
	// 尝试加载 .env 文件（如果不存在也不报错）
	_ = godotenv.Load()

	cfg := &Config{
		RaindropToken:      getEnv("RAINDROP_TOKEN", ""),
		RaindropEndpoint:   getEnv("RAINDROP_ENDPOINT", "https://api.raindrop.io/rest/v1"),
		RaindropCollection: getEnvInt("RAINDROP_COLLECTION", 0),

		AIEnabled:     getEnvBool("AI_ENABLED", true),
		AIAPIKey:      getEnv("AI_API_KEY", ""),
		AIEndpoint:    getEnv("AI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		AIModel:       getEnv("AI_MODEL", "gpt-4o-mini"),
		AIWorkerCount: getEnvInt("AI_WORKER_COUNT", 3),

		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.8),
		BatchSize:           getEnvInt("BATCH_SIZE", 20),
		GrowthThreshold:     getEnvFloat("GROWTH_THRESHOLD", 0.10),
		NewTagThreshold:     getEnvFloat("NEW_TAG_THRESHOLD", 0.15),
		SingleUseThreshold:  getEnvFloat("SINGLE_USE_THRESHOLD", 0.30),
		EntropyThreshold:    getEnvFloat("ENTROPY_THRESHOLD", 3.0),

		RegistryPath: getEnv("REGISTRY_PATH", "tag_registry.json"),
		DBPath:       parseDBPath(getEnv("DATABASE_URL", "classifier.db")),

		APIToken:         getEnv("API_TOKEN", ""),
		Port:             getEnv("PORT", "8080"),
		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerIP:   getEnvInt("RATE_LIMIT_PER_IP", 60),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 10),
	}

	return cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.RaindropToken == "" {
		return fmt.Errorf("请设置 RAINDROP_TOKEN 环境变量")
	}

	if c.AIEnabled && c.AIAPIKey == "" {
		return fmt.Errorf("AI 已启用但未设置 AI_API_KEY")
	}

	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD 必须在 (0, 1] 之间, 当前: %v", c.SimilarityThreshold)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE 必须大于 0")
	}

	// 警告: AI endpoint 指向本地地址
	if c.AIEnabled && (strings.Contains(c.AIEndpoint, "localhost") ||
		strings.Contains(c.AIEndpoint, "127.0.0.1") ||
		strings.Contains(c.AIEndpoint, "[::1]")) {
		fmt.Println("⚠️  警告: AI_ENDPOINT 指向本地地址")
		fmt.Printf("   当前配置: %s\n", c.AIEndpoint)
	}

	return nil
}

// parseDBPath 解析数据库路径（兼容 sqlite:/// 前缀）
func parseDBPath(dbURL string) string {
	return strings.TrimPrefix(dbURL, "sqlite:///")
}

// getEnv 获取环境变量（带默认值）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	value = strings.ToLower(strings.TrimSpace(value))
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt 获取整型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvFloat 获取浮点型环境变量
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}
