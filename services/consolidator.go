package services

import (
	"log"
	"sort"

	"github.com/colin-rod/raindrop-classifier/models"
	"github.com/colin-rod/raindrop-classifier/utils"
)

// Consolidator 批量标签整理
// 与入口处的逐条模糊匹配是两条独立路径: 这里消费外部建议器的分组提案,
// 构建 旧标签 -> 规范标签 映射, 更新注册表并回写书签
type Consolidator struct {
	registry   *TagRegistry
	ai         *AIService
	raindrop   *RaindropService
	gate       *HealthGate
	batchSize  int
	collection int
}

// NewConsolidator 创建整理服务
func NewConsolidator(registry *TagRegistry, ai *AIService, raindrop *RaindropService, gate *HealthGate, batchSize, collection int) *Consolidator {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Consolidator{
		registry:   registry,
		ai:         ai,
		raindrop:   raindrop,
		gate:       gate,
		batchSize:  batchSize,
		collection: collection,
	}
}

// BuildMapping 把分组提案展开为 variant -> canonical 映射
// 同一 variant 出现在多个分组时后组覆盖前组 (确定性的 last-write-wins),
// 并打告警日志方便审计建议器给出的歧义分组
func (c *Consolidator) BuildMapping(groups []models.ConsolidationGroup) map[string]string {
	mapping := map[string]string{}
	for _, group := range groups {
		for _, variant := range group.Variants {
			if variant == group.Canonical {
				continue
			}
			if prev, ok := mapping[variant]; ok && prev != group.Canonical {
				log.Printf("⚠️ 标签 %s 同时出现在多个分组 (%s / %s), 采用后者", variant, prev, group.Canonical)
			}
			mapping[variant] = group.Canonical
		}
	}
	return mapping
}

// ApplyMapping 将映射应用到一条书签的标签列表
// 逐个替换后按首次出现顺序去重; changed 按集合比较 (顺序不同不算变化)
func ApplyMapping(tags []string, mapping map[string]string) ([]string, bool) {
	newTags := []string{}
	seen := map[string]bool{}
	for _, tag := range tags {
		mapped := tag
		if canonical, ok := mapping[tag]; ok {
			mapped = canonical
		}
		if !seen[mapped] {
			seen[mapped] = true
			newTags = append(newTags, mapped)
		}
	}

	return newTags, !sameTagSet(tags, newTags)
}

// Run 执行一轮整理
// 流程: 统计语料 → 健康门控 (跳过则短路) → 分批请求分组提案 → 构建映射
// → 更新注册表 → 回写变化的书签 → 持久化检查点
// dryRun 模式只生成预览, 不改注册表也不回写
func (c *Consolidator) Run(dryRun bool) (*models.ConsolidationResult, error) {
	result := &models.ConsolidationResult{
		Preview: dryRun,
		Actions: []models.ConsolidationAction{},
	}

	raindrops, err := c.raindrop.ListAllRaindrops(c.collection)
	if err != nil {
		return nil, err
	}

	// 当前语料的标签用量 (按规范化键统计)
	usage := map[string]int{}
	for _, rd := range raindrops {
		for _, tag := range rd.Tags {
			key := utils.NormalizeTag(tag)
			if key == "" {
				continue
			}
			usage[key]++
		}
	}
	result.Summary.TagsBefore = len(usage)

	// 健康门控: 每次评估都会追加指标历史, 包括被跳过的评估
	proceed, metrics := c.gate.ShouldConsolidate(usage, c.registry.Snapshot(), c.registry.HadSnapshot())
	result.Metrics = metrics
	if !proceed {
		result.Summary.TagsAfter = result.Summary.TagsBefore
		return result, nil
	}
	result.Executed = true

	// 唯一标签按用量降序分批送给建议器
	uniqueTags := make([]string, 0, len(usage))
	for tag := range usage {
		uniqueTags = append(uniqueTags, tag)
	}
	sort.Slice(uniqueTags, func(i, j int) bool {
		if usage[uniqueTags[i]] != usage[uniqueTags[j]] {
			return usage[uniqueTags[i]] > usage[uniqueTags[j]]
		}
		return uniqueTags[i] < uniqueTags[j]
	})

	groups := []models.ConsolidationGroup{}
	for start := 0; start < len(uniqueTags); start += c.batchSize {
		end := utils.Min(start+c.batchSize, len(uniqueTags))
		proposal, err := c.ai.ProposeConsolidation(uniqueTags[start:end])
		if err != nil {
			// 单批失败不终止整轮, 继续处理剩余批次
			log.Printf("⚠️ 第%d批分组提案失败: %v", start/c.batchSize, err)
			continue
		}
		groups = append(groups, proposal.Groups...)
	}

	mapping := c.BuildMapping(groups)

	for _, group := range groups {
		for _, variant := range group.Variants {
			if variant == group.Canonical {
				continue
			}
			result.Actions = append(result.Actions, models.ConsolidationAction{
				Type:   "merge",
				Source: variant,
				Target: group.Canonical,
				Reason: group.Reason,
			})
		}
	}
	result.Summary.TotalMerges = len(mapping)
	result.Summary.TagsAfter = result.Summary.TagsBefore - len(mapping)

	if dryRun {
		log.Printf("👁️ 预览模式: 将合并 %d 个标签, 影响 %d 个分组", len(mapping), len(groups))
		return result, nil
	}

	// 注册表更新: 登记别名并折叠使用计数
	for _, group := range groups {
		canonKey := utils.NormalizeTag(group.Canonical)
		if canonKey == "" {
			continue
		}
		for _, variant := range group.Variants {
			varKey := utils.NormalizeTag(variant)
			if varKey == "" || varKey == canonKey {
				continue
			}
			if err := c.registry.Merge(canonKey, varKey); err != nil {
				log.Printf("⚠️ 合并失败: %s -> %s, %v", varKey, canonKey, err)
			}
		}
	}

	// 回写标签有实际变化的书签
	// 映射键是规范化后的标签, 老条目上可能还留着未规范化的写法, 先归一再套映射
	for _, rd := range raindrops {
		normTags := make([]string, 0, len(rd.Tags))
		for _, tag := range rd.Tags {
			if key := utils.NormalizeTag(tag); key != "" {
				normTags = append(normTags, key)
			}
		}

		newTags, changed := ApplyMapping(normTags, mapping)
		if !changed {
			continue
		}
		if err := c.raindrop.UpdateTags(rd.ID, newTags); err != nil {
			log.Printf("⚠️ 回写书签失败 ID=%d: %v", rd.ID, err)
			continue
		}
		result.Summary.ItemsUpdated++
	}

	if err := c.registry.Persist(); err != nil {
		return nil, err
	}

	log.Printf("✅ 整理完成: 合并 %d 个标签, 更新 %d 条书签, 标签总数 %d -> %d",
		result.Summary.TotalMerges, result.Summary.ItemsUpdated,
		result.Summary.TagsBefore, result.Summary.TagsAfter)

	return result, nil
}

// sameTagSet 按集合比较两个标签列表 (忽略顺序和重复)
func sameTagSet(a, b []string) bool {
	setA := map[string]bool{}
	for _, t := range a {
		setA[t] = true
	}
	setB := map[string]bool{}
	for _, t := range b {
		setB[t] = true
	}

	if len(setA) != len(setB) {
		return false
	}
	for t := range setA {
		if !setB[t] {
			return false
		}
	}
	return true
}
