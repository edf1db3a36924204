package utils

import "sort"

// SimilarMatch 相似标签匹配结果
type SimilarMatch struct {
	Tag        string
	Similarity float64
}

// Similarity 计算两个规范化标签的字符串相似度, 范围 [0,1]
// 定义为 1 - 编辑距离/较长串长度; 两串都为空属于未定义输入, 调用方应提前拒绝
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	lenA := len([]rune(a))
	lenB := len([]rune(b))
	maxLen := lenA
	if lenB > maxLen {
		maxLen = lenB
	}
	if maxLen == 0 {
		return 0
	}

	return 1.0 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}

// LevenshteinDistance 经典编辑距离 (单字符插入/删除/替换, 动态规划)
func LevenshteinDistance(s1, s2 string) int {
	runes1 := []rune(s1)
	runes2 := []rune(s2)

	m := len(runes1)
	n := len(runes2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if runes1[i-1] != runes2[j-1] {
				cost = 1
			}

			dp[i][j] = min3(
				dp[i-1][j]+1,      // 删除
				dp[i][j-1]+1,      // 插入
				dp[i-1][j-1]+cost, // 替换
			)
		}
	}

	return dp[m][n]
}

// FindSimilarTags 在已知规范标签中查找与候选相似的标签
// keys 按注册表插入顺序传入; 结果按相似度降序, 相同相似度保持传入顺序 (稳定排序)
// 与候选完全相同的键不算匹配
func FindSimilarTags(candidate string, keys []string, threshold float64) []SimilarMatch {
	matches := []SimilarMatch{}
	for _, key := range keys {
		if key == candidate || key == "" {
			continue
		}

		score := Similarity(candidate, key)
		if score >= threshold {
			matches = append(matches, SimilarMatch{Tag: key, Similarity: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	return matches
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
