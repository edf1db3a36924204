package utils

import "strings"

// MaxTagLength 规范化后标签的最大长度
const MaxTagLength = 50

// NormalizeTag 将原始标签规范化为可比较的键
// 步骤: 小写 → 只保留 [a-z0-9 &-] → 空白串折叠为单个连字符 → 去首尾连字符 → 截断到 50
// 纯函数, 幂等, 对任意输入都不报错; 结果为空串表示"不可用标签", 由调用方过滤
func NormalizeTag(raw string) string {
	lower := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '&', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteRune(' ')
			// 其余字符全部丢弃
		}
	}

	// 连续空白折叠为单个连字符
	normalized := strings.Join(strings.Fields(b.String()), "-")
	normalized = strings.Trim(normalized, "-")

	if len(normalized) > MaxTagLength {
		// 过滤后只剩 ASCII, 按字节截断是安全的; 截断可能留下尾部连字符, 再修剪一次保证幂等
		normalized = strings.Trim(normalized[:MaxTagLength], "-")
	}

	return normalized
}
