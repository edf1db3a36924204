package db

import (
	"path/filepath"
	"testing"

	"github.com/colin-rod/raindrop-classifier/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetricsRepo(t *testing.T) *MetricsRepository {
	t.Helper()
	require.NoError(t, Init(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { Close() })
	return NewMetricsRepository()
}

func TestMetricsRepoAppendList(t *testing.T) {
	repo := newTestMetricsRepo(t)

	require.NoError(t, repo.Append(&models.MetricsSnapshot{UniqueTags: 10, GrowthRate: 0.5}))
	require.NoError(t, repo.Append(&models.MetricsSnapshot{UniqueTags: 12, GrowthRate: 0.2}))

	entries, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// 按时间升序
	assert.Equal(t, 10, entries[0].UniqueTags)
	assert.Equal(t, 12, entries[1].UniqueTags)
}

func TestMetricsRepoListSkipsCorruptRow(t *testing.T) {
	repo := newTestMetricsRepo(t)

	require.NoError(t, repo.Append(&models.MetricsSnapshot{UniqueTags: 10}))

	// 手工塞入一条 timestamp 为 NULL 的坏记录
	_, err := DB.Exec(`
		INSERT INTO tag_metrics
			(previous_unique_tags, unique_tags, total_usage, new_tags,
			 growth_rate, new_tag_ratio, single_use_ratio, entropy, timestamp)
		VALUES (0, 5, 0, 0, 0, 0, 0, 0, NULL)
	`)
	require.NoError(t, err)

	// 坏记录跳过, 好记录照常返回
	entries, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].UniqueTags)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
