package models

// ConsolidationGroup 外部建议器给出的同义标签分组
// 约定: Canonical 语义上是 Variants 之一 (首选写法), 但规范化后不必逐字相等
type ConsolidationGroup struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
	Reason    string   `json:"reason"`
}

// ConsolidationAction 一次整理操作 (预览和执行共用)
type ConsolidationAction struct {
	Type       string  `json:"type"` // "merge"
	Source     string  `json:"source,omitempty"`
	Target     string  `json:"target,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// ConsolidationSummary 整理摘要
type ConsolidationSummary struct {
	TagsBefore   int `json:"tags_before"`
	TagsAfter    int `json:"tags_after"`
	TotalMerges  int `json:"total_merges"`
	ItemsUpdated int `json:"items_updated"`
}

// ConsolidationResult 整理结果
type ConsolidationResult struct {
	Preview  bool                  `json:"preview"`
	Executed bool                  `json:"executed"` // false = 被健康门控跳过
	Actions  []ConsolidationAction `json:"actions"`
	Summary  ConsolidationSummary  `json:"summary"`
	Metrics  *MetricsSnapshot      `json:"metrics,omitempty"`
}
