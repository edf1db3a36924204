package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/colin-rod/raindrop-classifier/models"
)

// MetricsRepository 指标历史数据库操作 (只追加)
type MetricsRepository struct {
	db *sql.DB
}

// NewMetricsRepository 创建指标历史仓库
func NewMetricsRepository() *MetricsRepository {
	return &MetricsRepository{db: DB}
}

// Append 追加一条指标记录 (历史从不重写, 只会延长)
func (r *MetricsRepository) Append(m *models.MetricsSnapshot) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO tag_metrics
			(previous_unique_tags, unique_tags, total_usage, new_tags,
			 growth_rate, new_tag_ratio, single_use_ratio, entropy, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.PreviousUniqueTags, m.UniqueTags, m.TotalUsage, m.NewTags,
		m.GrowthRate, m.NewTagRatio, m.SingleUseRatio, m.Entropy,
		m.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("追加指标记录失败: %w", err)
	}
	return nil
}

// List 按时间顺序返回最近的指标记录
func (r *MetricsRepository) List(limit int) ([]*models.MetricsSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT previous_unique_tags, unique_tags, total_usage, new_tags,
		       growth_rate, new_tag_ratio, single_use_ratio, entropy, timestamp
		FROM tag_metrics
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询指标历史失败: %w", err)
	}
	defer rows.Close()

	entries := []*models.MetricsSnapshot{}
	for rows.Next() {
		var m models.MetricsSnapshot
		var ts string
		if err := rows.Scan(&m.PreviousUniqueTags, &m.UniqueTags, &m.TotalUsage, &m.NewTags,
			&m.GrowthRate, &m.NewTagRatio, &m.SingleUseRatio, &m.Entropy, &ts); err != nil {
			log.Printf("⚠️ 跳过损坏的指标记录: %v", err)
			continue
		}
		m.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, &m)
	}

	// 翻转为时间升序
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}

// Count 指标记录总数
func (r *MetricsRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tag_metrics").Scan(&count); err != nil {
		return 0, fmt.Errorf("统计指标记录失败: %w", err)
	}
	return count, nil
}
