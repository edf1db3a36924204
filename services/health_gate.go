package services

import (
	"log"
	"math"
	"time"

	"github.com/colin-rod/raindrop-classifier/config"
	"github.com/colin-rod/raindrop-classifier/db"
	"github.com/colin-rod/raindrop-classifier/models"
)

// HealthGate 词表健康度门控
// 对比当前语料与上次注册表快照, 决定是否执行 AI 整理
type HealthGate struct {
	metricsRepo        *db.MetricsRepository
	growthThreshold    float64
	newTagThreshold    float64
	singleUseThreshold float64
	entropyThreshold   float64
}

// NewHealthGate 创建健康门控
func NewHealthGate(metricsRepo *db.MetricsRepository, cfg *config.Config) *HealthGate {
	return &HealthGate{
		metricsRepo:        metricsRepo,
		growthThreshold:    cfg.GrowthThreshold,
		newTagThreshold:    cfg.NewTagThreshold,
		singleUseThreshold: cfg.SingleUseThreshold,
		entropyThreshold:   cfg.EntropyThreshold,
	}
}

// ShouldConsolidate 判断是否执行整理
// currentUsage: 当前语料里每个标签的使用次数; previous: 上次持久化的注册表快照
// 每次评估都会向历史追加一条指标记录 —— 判定为跳过时也追加, 历史必须记录每次评估
// 不存在先前快照时 (首次运行) 无条件放行
func (g *HealthGate) ShouldConsolidate(currentUsage map[string]int, previous *models.RegistrySnapshot, hadSnapshot bool) (bool, *models.MetricsSnapshot) {
	metrics := g.computeMetrics(currentUsage, previous)

	// 先记录, 再返回判定结果
	if err := g.metricsRepo.Append(metrics); err != nil {
		log.Printf("⚠️ 指标历史写入失败: %v", err)
	}

	if !hadSnapshot {
		log.Printf("🟢 首次运行 (无历史快照), 无条件执行整理")
		return true, metrics
	}

	log.Printf("📊 健康指标: 增长率=%.3f 新标签比=%.3f 单次使用比=%.3f 熵=%.3f bit",
		metrics.GrowthRate, metrics.NewTagRatio, metrics.SingleUseRatio, metrics.Entropy)

	switch {
	case metrics.GrowthRate >= g.growthThreshold:
		log.Printf("🟢 触发整理: 词表增长率 %.3f >= %.3f", metrics.GrowthRate, g.growthThreshold)
		return true, metrics
	case metrics.NewTagRatio >= g.newTagThreshold:
		log.Printf("🟢 触发整理: 新标签比例 %.3f >= %.3f", metrics.NewTagRatio, g.newTagThreshold)
		return true, metrics
	case metrics.SingleUseRatio >= g.singleUseThreshold:
		log.Printf("🟢 触发整理: 单次使用比例 %.3f >= %.3f", metrics.SingleUseRatio, g.singleUseThreshold)
		return true, metrics
	case metrics.Entropy <= g.entropyThreshold:
		// 低熵 = 使用高度集中, 剩余长尾标签大概率是近重复, 值得合并
		log.Printf("🟢 触发整理: 使用熵 %.3f <= %.3f", metrics.Entropy, g.entropyThreshold)
		return true, metrics
	}

	log.Printf("⏭️ 词表健康, 跳过本轮整理")
	return false, metrics
}

// computeMetrics 计算语料级指标 (每次评估只算一遍)
func (g *HealthGate) computeMetrics(currentUsage map[string]int, previous *models.RegistrySnapshot) *models.MetricsSnapshot {
	uniqueCount := len(currentUsage)
	previousUniqueCount := 0
	if previous != nil {
		previousUniqueCount = len(previous.Tags)
	}

	totalUsage := 0
	singleUse := 0
	newTags := 0
	for tag, count := range currentUsage {
		totalUsage += count
		if count == 1 {
			singleUse++
		}
		// "新"= 上次快照的规范键和别名里都不存在
		if previous == nil {
			newTags++
			continue
		}
		_, isCanonical := previous.Tags[tag]
		_, isAlias := previous.Aliases[tag]
		if !isCanonical && !isAlias {
			newTags++
		}
	}

	growthRate := 0.0
	if previousUniqueCount > 0 {
		growthRate = float64(uniqueCount-previousUniqueCount) / float64(previousUniqueCount)
	} else if uniqueCount > 0 {
		growthRate = 1.0
	}

	newTagRatio := 0.0
	singleUseRatio := 0.0
	if uniqueCount > 0 {
		newTagRatio = float64(newTags) / float64(uniqueCount)
		singleUseRatio = float64(singleUse) / float64(uniqueCount)
	}

	// Shannon 熵 (bit): -Σ p·log2(p), 总用量为 0 时为 0
	entropy := 0.0
	if totalUsage > 0 {
		for _, count := range currentUsage {
			if count == 0 {
				continue
			}
			p := float64(count) / float64(totalUsage)
			entropy -= p * math.Log2(p)
		}
	}

	return &models.MetricsSnapshot{
		PreviousUniqueTags: previousUniqueCount,
		UniqueTags:         uniqueCount,
		TotalUsage:         totalUsage,
		NewTags:            newTags,
		GrowthRate:         growthRate,
		NewTagRatio:        newTagRatio,
		SingleUseRatio:     singleUseRatio,
		Entropy:            entropy,
		Timestamp:          time.Now().UTC(),
	}
}
