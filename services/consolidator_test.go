package services

import (
	"testing"

	"github.com/colin-rod/raindrop-classifier/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildMapping(t *testing.T) {
	c := NewConsolidator(nil, nil, nil, nil, 20, 0)

	groups := []models.ConsolidationGroup{
		{Canonical: "javascript", Variants: []string{"js", "java-script"}},
		{Canonical: "golang", Variants: []string{"go-lang", "golang"}},
	}

	mapping := c.BuildMapping(groups)

	assert.Equal(t, map[string]string{
		"js":          "javascript",
		"java-script": "javascript",
		"go-lang":     "golang",
	}, mapping)

	// 规范标签自身不应该出现在映射里
	assert.NotContains(t, mapping, "golang")
}

func TestBuildMappingCollisionLastWins(t *testing.T) {
	c := NewConsolidator(nil, nil, nil, nil, 20, 0)

	groups := []models.ConsolidationGroup{
		{Canonical: "javascript", Variants: []string{"js"}},
		{Canonical: "typescript", Variants: []string{"js"}},
	}

	mapping := c.BuildMapping(groups)
	assert.Equal(t, "typescript", mapping["js"])
}

func TestApplyMapping(t *testing.T) {
	mapping := map[string]string{"js": "javascript"}

	tags, changed := ApplyMapping([]string{"js", "javascript"}, mapping)
	assert.True(t, changed)
	assert.Equal(t, []string{"javascript"}, tags)
}

func TestApplyMappingNoChange(t *testing.T) {
	mapping := map[string]string{"js": "javascript"}

	tags, changed := ApplyMapping([]string{"golang", "rust"}, mapping)
	assert.False(t, changed)
	assert.Equal(t, []string{"golang", "rust"}, tags)
}

func TestApplyMappingPreservesOrder(t *testing.T) {
	mapping := map[string]string{"go-lang": "golang"}

	tags, changed := ApplyMapping([]string{"rust", "go-lang", "python"}, mapping)
	assert.True(t, changed)
	assert.Equal(t, []string{"rust", "golang", "python"}, tags)
}

func TestApplyMappingIdempotent(t *testing.T) {
	mapping := map[string]string{"js": "javascript", "java-script": "javascript"}

	once, _ := ApplyMapping([]string{"js", "java-script", "golang"}, mapping)
	twice, changed := ApplyMapping(once, mapping)

	assert.Equal(t, once, twice)
	assert.False(t, changed)
}

func TestApplyMappingEmpty(t *testing.T) {
	tags, changed := ApplyMapping([]string{}, map[string]string{"js": "javascript"})
	assert.False(t, changed)
	assert.Empty(t, tags)
}
