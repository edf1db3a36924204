package models

import "time"

// TagRecord 规范标签记录 (按规范化键索引, 每个规范标签一条)
type TagRecord struct {
	Category   string    `json:"category"`           // 最近一次关联的分类
	UsageCount int       `json:"usage_count"`        // 使用次数, 只增不减
	FirstUsed  time.Time `json:"first_used"`         // 首次登记时间, 不可变
	Variants   []string  `json:"variants,omitempty"` // 整理时折叠进来的别名
}

// RegistrySnapshot 注册表持久化快照 (序列化/反序列化必须精确往返)
type RegistrySnapshot struct {
	Tags        map[string]*TagRecord `json:"tags"`
	Aliases     map[string]string     `json:"aliases"` // 别名键 -> 规范键, 与 Tags 键空间不相交
	LastUpdated time.Time             `json:"last_updated"`
}

// NewRegistrySnapshot 创建空快照 (首次运行的合法初始状态, 不是错误)
func NewRegistrySnapshot() *RegistrySnapshot {
	return &RegistrySnapshot{
		Tags:    map[string]*TagRecord{},
		Aliases: map[string]string{},
	}
}

// TagCount 标签及其使用次数
type TagCount struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Category string `json:"category"`
}

// TagStats 词表统计信息
type TagStats struct {
	Total              int        `json:"total"`       // 规范标签总数
	Aliases            int        `json:"aliases"`     // 别名总数
	TotalUsage         int        `json:"total_usage"` // 累计使用次数
	SingleUse          int        `json:"single_use"`  // 只用过一次的标签数
	OptimizationNeeded bool       `json:"optimization_needed"`
	TopTags            []TagCount `json:"top_tags"`
	LastUpdated        time.Time  `json:"last_updated"`
}
