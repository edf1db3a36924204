package utils

import "net/url"

// SanitizeAPIKey 脱敏 API Key（只显示后4位）
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return "未设置"
	}
	if len(apiKey) > 4 {
		return "***" + apiKey[len(apiKey)-4:]
	}
	return "***"
}

// SanitizeURL 脱敏 URL（隐藏查询参数中的敏感信息）
func SanitizeURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	sensitiveParams := []string{"token", "key", "password", "secret", "api_key"}

	query := u.Query()
	for _, param := range sensitiveParams {
		if query.Has(param) {
			query.Set(param, "***")
		}
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// Min 返回两个整数中的较小值
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
