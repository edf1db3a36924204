package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/colin-rod/raindrop-classifier/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *TagRegistry {
	t.Helper()
	store := db.NewRegistryStore(filepath.Join(t.TempDir(), "registry.json"))
	registry := NewTagRegistry(store, 0.8)
	require.NoError(t, registry.Load())
	return registry
}

func TestProcessSuggestedTags(t *testing.T) {
	registry := newTestRegistry(t)

	result := registry.ProcessSuggestedTags([]string{"JS", "javascript", "JavaScript!!"}, "programming")

	// js 和 javascript 相似度只有 0.2, 不会被入口合并
	assert.Equal(t, []string{"js", "javascript", "javascript"}, result)

	counts := registry.UsageCounts()
	assert.Equal(t, 1, counts["js"])
	assert.Equal(t, 2, counts["javascript"])

	rec, ok := registry.Lookup("javascript")
	require.True(t, ok)
	assert.Equal(t, "programming", rec.Category)
}

func TestProcessSuggestedTagsFuzzyMerge(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("javascript", "programming")

	// 近似变体应该被折叠到已有的规范标签上
	result := registry.ProcessSuggestedTags([]string{"javascripts"}, "programming")
	assert.Equal(t, []string{"javascript"}, result)

	counts := registry.UsageCounts()
	assert.Equal(t, 2, counts["javascript"])
	_, exists := registry.Lookup("javascripts")
	assert.False(t, exists)
}

func TestProcessSuggestedTagsSkipsEmpty(t *testing.T) {
	registry := newTestRegistry(t)

	result := registry.ProcessSuggestedTags([]string{"", "!!??", "golang"}, "")
	assert.Equal(t, []string{"golang"}, result)
	assert.Len(t, registry.UsageCounts(), 1)
}

func TestProcessSuggestedTagsResolvesAlias(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("javascript", "programming")
	registry.RecordUsage("js", "programming")
	require.NoError(t, registry.Merge("javascript", "js"))

	// 被折叠过的写法直接回到规范标签
	result := registry.ProcessSuggestedTags([]string{"JS"}, "")
	assert.Equal(t, []string{"javascript"}, result)

	counts := registry.UsageCounts()
	assert.Equal(t, 3, counts["javascript"])
	assert.NotContains(t, counts, "js")
}

func TestMerge(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("javascript", "programming")
	registry.RecordUsage("javascript", "programming")
	registry.RecordUsage("js", "")

	require.NoError(t, registry.Merge("javascript", "js"))

	rec, ok := registry.Lookup("javascript")
	require.True(t, ok)
	assert.Equal(t, 3, rec.UsageCount)
	assert.Contains(t, rec.Variants, "js")

	_, exists := registry.Lookup("js")
	assert.False(t, exists)
	assert.Equal(t, "javascript", registry.ResolveAlias("js"))
	assert.NotContains(t, registry.CanonicalKeys(), "js")
}

func TestMergeIdempotent(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("javascript", "")
	registry.RecordUsage("js", "")

	require.NoError(t, registry.Merge("javascript", "js"))
	// 重复合并同一对必须是无操作
	require.NoError(t, registry.Merge("javascript", "js"))

	rec, _ := registry.Lookup("javascript")
	assert.Equal(t, 2, rec.UsageCount)
	assert.Equal(t, []string{"js"}, rec.Variants)
}

func TestMergeRejectsAliasChain(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("javascript", "")
	registry.RecordUsage("js", "")
	registry.RecordUsage("ecmascript", "")

	require.NoError(t, registry.Merge("javascript", "js"))

	// js 已是别名, 不能作为合并目标
	assert.Error(t, registry.Merge("js", "ecmascript"))

	// js 已指向 javascript, 不能再指向别的规范标签
	assert.Error(t, registry.Merge("ecmascript", "js"))
}

func TestMergeSelfIsNoop(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("golang", "")
	require.NoError(t, registry.Merge("golang", "golang"))

	rec, _ := registry.Lookup("golang")
	assert.Equal(t, 1, rec.UsageCount)
	assert.Empty(t, rec.Variants)
	assert.Empty(t, registry.Snapshot().Aliases)
}

func TestMergeCreatesMissingCanonical(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("nodejs", "")
	registry.RecordUsage("nodejs", "")

	// 提案用了词表里还没有的规范写法
	require.NoError(t, registry.Merge("node", "nodejs"))

	rec, ok := registry.Lookup("node")
	require.True(t, ok)
	assert.Equal(t, 2, rec.UsageCount)
	assert.Equal(t, "node", registry.ResolveAlias("nodejs"))
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	store := db.NewRegistryStore(path)

	registry := NewTagRegistry(store, 0.8)
	require.NoError(t, registry.Load())
	assert.False(t, registry.HadSnapshot())

	registry.ProcessSuggestedTags([]string{"golang", "golang", "javascript"}, "programming")
	require.NoError(t, registry.Merge("javascript", "js"))
	require.NoError(t, registry.Persist())

	reloaded := NewTagRegistry(store, 0.8)
	require.NoError(t, reloaded.Load())
	assert.True(t, reloaded.HadSnapshot())

	counts := reloaded.UsageCounts()
	assert.Equal(t, 2, counts["golang"])
	assert.Equal(t, 1, counts["javascript"])
	assert.Equal(t, "javascript", reloaded.ResolveAlias("js"))

	// 插入顺序按首次使用时间重建
	assert.Equal(t, registry.CanonicalKeys(), reloaded.CanonicalKeys())
}

func TestPersistMarksSnapshotPresent(t *testing.T) {
	registry := newTestRegistry(t)
	assert.False(t, registry.HadSnapshot())

	registry.RecordUsage("golang", "")
	require.NoError(t, registry.Persist())

	// 落盘成功后门控必须按指标判定, 不能再走首次运行分支
	assert.True(t, registry.HadSnapshot())
}

func TestPersistSerializedUnderConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	store := db.NewRegistryStore(path)
	registry := NewTagRegistry(store, 0.8)
	require.NoError(t, registry.Load())

	// 每个 worker 都登记一个标签并落一次检查点 (classify 模式的写入形态)
	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			registry.RecordUsage(fmt.Sprintf("tag-%d", i), "")
			assert.NoError(t, registry.Persist())
		}(i)
	}
	wg.Wait()

	// 最后一次落盘必须包含所有已发生的变更, 旧快照不能覆盖新检查点
	reloaded := NewTagRegistry(store, 0.8)
	require.NoError(t, reloaded.Load())
	counts := reloaded.UsageCounts()
	require.Len(t, counts, workers)
	for i := 0; i < workers; i++ {
		assert.Equal(t, 1, counts[fmt.Sprintf("tag-%d", i)])
	}
}

func TestLookupIsDeepCopy(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("javascript", "")
	registry.RecordUsage("js", "")
	require.NoError(t, registry.Merge("javascript", "js"))

	rec, ok := registry.Lookup("javascript")
	require.True(t, ok)
	require.Equal(t, []string{"js"}, rec.Variants)

	// 改写返回值不能污染注册表内部状态
	rec.Variants[0] = "tampered"
	again, _ := registry.Lookup("javascript")
	assert.Equal(t, []string{"js"}, again.Variants)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordUsage("golang", "programming")
	snap := registry.Snapshot()

	snap.Tags["golang"].UsageCount = 99
	snap.Tags["injected"] = snap.Tags["golang"]

	rec, _ := registry.Lookup("golang")
	assert.Equal(t, 1, rec.UsageCount)
	_, exists := registry.Lookup("injected")
	assert.False(t, exists)
}

func TestStats(t *testing.T) {
	registry := newTestRegistry(t)

	registry.ProcessSuggestedTags([]string{"golang", "golang", "golang", "javascript", "rust"}, "programming")
	require.NoError(t, registry.Merge("javascript", "js"))

	stats := registry.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Aliases)
	assert.Equal(t, 5, stats.TotalUsage)
	assert.Equal(t, 2, stats.SingleUse)

	require.NotEmpty(t, stats.TopTags)
	assert.Equal(t, "golang", stats.TopTags[0].Name)
	assert.Equal(t, 3, stats.TopTags[0].Count)

	// 单次使用占 2/3, 超过三成阈值
	assert.True(t, stats.OptimizationNeeded)
}
