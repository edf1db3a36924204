package services

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/colin-rod/raindrop-classifier/db"
	"github.com/colin-rod/raindrop-classifier/models"
	"github.com/colin-rod/raindrop-classifier/utils"
)

// TagRegistry 规范标签注册表
// 已知词表的唯一权威来源: 规范标签 + 别名 + 使用统计
// 每次运行显式构造一个实例并传入各操作, 不使用包级单例
// 所有写操作串行化 (互斥锁), 注册表变更在并发交错下不可交换
type TagRegistry struct {
	mu          sync.Mutex
	tags        map[string]*models.TagRecord
	aliases     map[string]string
	keyOrder    []string // 规范键的插入顺序, 相似度平局时的稳定次序
	threshold   float64
	store       *db.RegistryStore
	hadSnapshot bool
	lastUpdated time.Time
}

// NewTagRegistry 创建注册表 (调用 Load 前为空)
func NewTagRegistry(store *db.RegistryStore, threshold float64) *TagRegistry {
	return &TagRegistry{
		tags:      map[string]*models.TagRecord{},
		aliases:   map[string]string{},
		keyOrder:  []string{},
		threshold: threshold,
		store:     store,
	}
}

// Load 从持久化快照加载
// 快照不存在时以空注册表引导; 快照损坏则返回错误 (本次运行致命)
func (r *TagRegistry) Load() error {
	snap, existed, err := r.store.Load()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tags = snap.Tags
	r.aliases = snap.Aliases
	r.lastUpdated = snap.LastUpdated
	r.hadSnapshot = existed

	// JSON 对象不保序, 按首次使用时间重建插入顺序 (同时间按键名, 保证确定性)
	r.keyOrder = make([]string, 0, len(r.tags))
	for key := range r.tags {
		r.keyOrder = append(r.keyOrder, key)
	}
	sort.Slice(r.keyOrder, func(i, j int) bool {
		a, b := r.tags[r.keyOrder[i]], r.tags[r.keyOrder[j]]
		if !a.FirstUsed.Equal(b.FirstUsed) {
			return a.FirstUsed.Before(b.FirstUsed)
		}
		return r.keyOrder[i] < r.keyOrder[j]
	})

	if existed {
		log.Printf("✅ 注册表加载成功: %d 个规范标签, %d 个别名", len(r.tags), len(r.aliases))
	} else {
		log.Printf("ℹ️ 未找到注册表快照, 以空词表引导")
	}
	return nil
}

// HadSnapshot 加载时是否存在先前快照 (健康门控的首次运行判断)
func (r *TagRegistry) HadSnapshot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hadSnapshot
}

// Lookup 按规范化键查询标签记录
func (r *TagRegistry) Lookup(key string) (*models.TagRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tags[key]
	if !ok {
		return nil, false
	}
	copied := *rec
	copied.Variants = append([]string(nil), rec.Variants...)
	return &copied, true
}

// ResolveAlias 别名一跳解析: 是别名则返回其规范键, 否则原样返回
// 别名必须直接指向规范键, 不允许别名链
func (r *TagRegistry) ResolveAlias(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveAliasLocked(key)
}

func (r *TagRegistry) resolveAliasLocked(key string) string {
	if canonical, ok := r.aliases[key]; ok {
		return canonical
	}
	return key
}

// RecordUsage 记录一次使用: 已知规范标签则计数 +1, 未知则新建记录
// 空键由调用方提前过滤, 本操作不会失败
func (r *TagRegistry) RecordUsage(key, category string) *models.TagRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.recordUsageLocked(key, category)
	copied := *rec
	copied.Variants = append([]string(nil), rec.Variants...)
	return &copied
}

func (r *TagRegistry) recordUsageLocked(key, category string) *models.TagRecord {
	if rec, ok := r.tags[key]; ok {
		rec.UsageCount++
		if category != "" {
			rec.Category = category
		}
		r.lastUpdated = time.Now().UTC()
		return rec
	}

	rec := &models.TagRecord{
		Category:   category,
		UsageCount: 1,
		FirstUsed:  time.Now().UTC(),
	}
	r.tags[key] = rec
	r.keyOrder = append(r.keyOrder, key)
	r.lastUpdated = time.Now().UTC()
	return rec
}

// ProcessSuggestedTags 处理一批建议标签, 返回实际采用的规范标签
// 逐个处理: 规范化 → 跳过空值 → 已知则直接计数 → 否则模糊匹配已有词表,
// 达到阈值时记到最佳匹配上 (入口即合并), 否则登记为新规范标签
// 输出保持输入顺序, 不做去重 (由下游按需去重)
func (r *TagRegistry) ProcessSuggestedTags(rawTags []string, category string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []string{}
	for _, raw := range rawTags {
		key := utils.NormalizeTag(raw)
		if key == "" {
			continue
		}

		// 别名一跳: 曾被整理折叠过的写法直接回到规范标签
		key = r.resolveAliasLocked(key)

		if _, known := r.tags[key]; known {
			r.recordUsageLocked(key, category)
			result = append(result, key)
			continue
		}

		matches := utils.FindSimilarTags(key, r.keyOrder, r.threshold)
		if len(matches) > 0 {
			best := matches[0]
			log.Printf("🔀 入口合并: %s -> %s (相似度%.2f)", key, best.Tag, best.Similarity)
			r.recordUsageLocked(best.Tag, category)
			result = append(result, best.Tag)
			continue
		}

		r.recordUsageLocked(key, category)
		result = append(result, key)
	}

	return result
}

// Merge 将 variant 折叠进 canonical: 登记别名并合并历史使用次数
// 不变式: 任何键不能同时是别名和规范标签; 目标已是别名时拒绝合并
func (r *TagRegistry) Merge(canonical, variant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if variant == canonical || variant == "" || canonical == "" {
		return nil
	}

	if target, aliased := r.aliases[canonical]; aliased {
		return fmt.Errorf("合并目标 %s 已是 %s 的别名, 拒绝形成别名链", canonical, target)
	}

	if existing, ok := r.aliases[variant]; ok {
		if existing == canonical {
			return nil
		}
		return fmt.Errorf("标签 %s 已是 %s 的别名, 不能再指向 %s", variant, existing, canonical)
	}

	target, ok := r.tags[canonical]
	if !ok {
		// 规范标签还未登记 (提案用了新写法), 先建零用量记录再折叠
		target = &models.TagRecord{FirstUsed: time.Now().UTC()}
		r.tags[canonical] = target
		r.keyOrder = append(r.keyOrder, canonical)
	}

	if vrec, wasCanonical := r.tags[variant]; wasCanonical {
		target.UsageCount += vrec.UsageCount
		if target.Category == "" {
			target.Category = vrec.Category
		}
		delete(r.tags, variant)
		r.removeFromOrderLocked(variant)
	}

	r.aliases[variant] = canonical
	target.Variants = appendUnique(target.Variants, variant)
	r.lastUpdated = time.Now().UTC()

	return nil
}

func (r *TagRegistry) removeFromOrderLocked(key string) {
	for i, k := range r.keyOrder {
		if k == key {
			r.keyOrder = append(r.keyOrder[:i], r.keyOrder[i+1:]...)
			return
		}
	}
}

// Persist 原子持久化当前状态 (检查点: 每条分类后和整理结束后各一次)
// 快照和落盘全程持锁: 并发检查点不能交错, 否则旧快照可能覆盖新检查点
func (r *TagRegistry) Persist() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Persist(r.snapshotLocked()); err != nil {
		return err
	}
	// 落盘成功后磁盘上就有历史快照了, 门控从此按指标判定
	r.hadSnapshot = true
	return nil
}

// Snapshot 当前状态的深拷贝快照
func (r *TagRegistry) Snapshot() *models.RegistrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *TagRegistry) snapshotLocked() *models.RegistrySnapshot {
	snap := models.NewRegistrySnapshot()
	snap.LastUpdated = r.lastUpdated
	for key, rec := range r.tags {
		copied := *rec
		copied.Variants = append([]string(nil), rec.Variants...)
		snap.Tags[key] = &copied
	}
	for alias, canonical := range r.aliases {
		snap.Aliases[alias] = canonical
	}
	return snap
}

// CanonicalKeys 按插入顺序返回所有规范键
func (r *TagRegistry) CanonicalKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keyOrder...)
}

// UsageCounts 各规范标签的使用次数
func (r *TagRegistry) UsageCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int, len(r.tags))
	for key, rec := range r.tags {
		counts[key] = rec.UsageCount
	}
	return counts
}

// Stats 词表统计
func (r *TagRegistry) Stats() *models.TagStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &models.TagStats{
		Total:       len(r.tags),
		Aliases:     len(r.aliases),
		LastUpdated: r.lastUpdated,
		TopTags:     []models.TagCount{},
	}

	all := make([]models.TagCount, 0, len(r.tags))
	for key, rec := range r.tags {
		stats.TotalUsage += rec.UsageCount
		if rec.UsageCount == 1 {
			stats.SingleUse++
		}
		all = append(all, models.TagCount{Name: key, Count: rec.UsageCount, Category: rec.Category})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Name < all[j].Name
	})

	top := utils.Min(10, len(all))
	stats.TopTags = all[:top]

	// 单次使用标签超过三成时提示跑一轮整理
	if stats.Total > 0 && stats.SingleUse*10 >= stats.Total*3 {
		stats.OptimizationNeeded = true
	}

	return stats
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
