package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/colin-rod/raindrop-classifier/config"
	"github.com/colin-rod/raindrop-classifier/models"
	"github.com/colin-rod/raindrop-classifier/utils"
)

// AIService 标签建议器 (OpenAI 兼容接口的外部协作方)
// 引擎不关心标签怎么来的, 这里只负责: 单条书签的标签/分类建议 + 批量整理分组提案
type AIService struct {
	config  *config.Config
	scraper *ScraperService
}

// NewAIService 创建 AI 建议服务
func NewAIService(cfg *config.Config, scraper *ScraperService) *AIService {
	return &AIService{
		config:  cfg,
		scraper: scraper,
	}
}

// SuggestTags 为单条书签建议标签和分类
func (s *AIService) SuggestTags(rd *models.Raindrop) (*models.SuggestResponse, error) {
	if !s.config.AIEnabled || s.config.AIAPIKey == "" {
		return nil, fmt.Errorf("AI未启用")
	}

	excerpt := rd.Excerpt
	if excerpt == "" && s.scraper != nil {
		// 书签没有摘要时抓取网页元数据补充提示词
		metadata, err := s.scraper.ScrapeWebPage(rd.Link)
		if err != nil {
			log.Printf("⚠️ 网页抓取失败: %v, 降级为只用标题和URL", err)
		} else {
			excerpt = metadata.OGDesc
			if excerpt == "" {
				excerpt = metadata.Description
			}
		}
	}

	prompt := fmt.Sprintf(`为这条书签建议标签和分类, 返回JSON:

URL: %s
标题: %s
摘要: %s

返回以下JSON格式(不要包含markdown代码块标记):
{
  "tags": ["tag1", "tag2", "tag3"],
  "category": "分类名"
}

要求:
1. 标签用英文小写, 单词间用空格或连字符, 3-5个
2. 标签要具体准确, 避免 misc/other 这类空泛词
3. category 从书签的主题归纳, 一个词
4. 只返回JSON, 不要其他内容`, rd.Link, rd.Title, excerpt)

	content, err := s.chat(prompt)
	if err != nil {
		return nil, err
	}

	var resp models.SuggestResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("解析AI JSON失败: %w", err)
	}

	return &resp, nil
}

// ProposeConsolidation 为一批唯一标签请求整理分组提案
// 返回的分组里 canonical 是首选写法, variants 是应折叠进去的同义写法
func (s *AIService) ProposeConsolidation(tags []string) (*models.ConsolidationProposal, error) {
	if !s.config.AIEnabled || s.config.AIAPIKey == "" {
		return nil, fmt.Errorf("AI未启用")
	}

	prompt := fmt.Sprintf(`下面是书签库里的一批标签, 找出其中指同一概念的近重复标签并分组:

%s

返回以下JSON格式(不要包含markdown代码块标记):
{
  "groups": [
    {"canonical": "首选写法", "variants": ["写法1", "写法2"], "reason": "合并原因"}
  ],
  "standalone": ["无需合并的标签"]
}

要求:
1. canonical 必须是 variants 中语义上的首选写法
2. 只分组真正的同义/拼写变体, 语义不同的标签不要合并
3. 每个标签只能出现在一个分组
4. 只返回JSON, 不要其他内容`, strings.Join(tags, ", "))

	content, err := s.chat(prompt)
	if err != nil {
		return nil, err
	}

	var proposal models.ConsolidationProposal
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return nil, fmt.Errorf("解析整理提案失败: %w", err)
	}

	return &proposal, nil
}

// chat 调用 chat completions 接口并返回去除代码块标记后的内容
func (s *AIService) chat(prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": s.config.AIModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("JSON序列化失败: %w", err)
	}

	req, err := http.NewRequest("POST", s.config.AIEndpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.AIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ AI服务返回错误状态: %d %s (key=%s)", resp.StatusCode, resp.Status, utils.SanitizeAPIKey(s.config.AIAPIKey))

		if resp.StatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("AI API认证失败: 请检查AI_API_KEY是否正确 (状态码: %d)", resp.StatusCode)
		}

		return "", fmt.Errorf("AI服务错误: %s (状态码: %d)", resp.Status, resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	// 限制响应体大小为1MB, 防止超大响应
	limitedReader := io.LimitReader(resp.Body, 1024*1024)
	if err := json.NewDecoder(limitedReader).Decode(&result); err != nil {
		return "", fmt.Errorf("解析AI响应失败: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI无响应")
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	return content, nil
}
