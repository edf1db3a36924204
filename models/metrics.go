package models

import "time"

// MetricsSnapshot 一次健康度评估的指标快照 (历史只追加, 不重写)
type MetricsSnapshot struct {
	PreviousUniqueTags int       `json:"previous_unique_tags"` // 上次快照的规范标签数
	UniqueTags         int       `json:"unique_tags"`          // 当前语料的唯一标签数
	TotalUsage         int       `json:"total_usage"`          // 当前语料的标签使用总次数
	NewTags            int       `json:"new_tags"`             // 上次快照中不存在的标签数 (规范键和别名都算已知)
	GrowthRate         float64   `json:"growth_rate"`
	NewTagRatio        float64   `json:"new_tag_ratio"`
	SingleUseRatio     float64   `json:"single_use_ratio"`
	Entropy            float64   `json:"entropy"` // Shannon 熵 (bit)
	Timestamp          time.Time `json:"timestamp"`
}
