package db

import (
	"database/sql"
	"fmt"
)

// ProcessedRepository 已分类条目记录 (重跑时跳过已处理的书签)
type ProcessedRepository struct {
	db *sql.DB
}

// NewProcessedRepository 创建已处理条目仓库
func NewProcessedRepository() *ProcessedRepository {
	return &ProcessedRepository{db: DB}
}

// IsProcessed 条目是否已分类过
func (r *ProcessedRepository) IsProcessed(raindropID int) (bool, error) {
	var exists int
	err := r.db.QueryRow("SELECT 1 FROM processed_raindrops WHERE raindrop_id = ?", raindropID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("查询已处理记录失败: %w", err)
	}
	return true, nil
}

// MarkProcessed 标记条目已分类
func (r *ProcessedRepository) MarkProcessed(raindropID int) error {
	_, err := r.db.Exec("INSERT OR IGNORE INTO processed_raindrops (raindrop_id) VALUES (?)", raindropID)
	if err != nil {
		return fmt.Errorf("标记已处理失败: %w", err)
	}
	return nil
}

// Count 已处理条目总数
func (r *ProcessedRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM processed_raindrops").Scan(&count); err != nil {
		return 0, fmt.Errorf("统计已处理条目失败: %w", err)
	}
	return count, nil
}
