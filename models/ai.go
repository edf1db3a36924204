package models

// SuggestResponse 单条书签的 AI 分类结果
type SuggestResponse struct {
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
}

// ConsolidationProposal 一批唯一标签的整理提案
// Standalone 是建议器认为无需合并的标签
type ConsolidationProposal struct {
	Groups     []ConsolidationGroup `json:"groups"`
	Standalone []string             `json:"standalone"`
}

// PageMetadata 网页元数据 (用于补充缺少摘要的书签)
type PageMetadata struct {
	Title       string
	Description string
	OGTitle     string
	OGDesc      string
}
