package services

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/colin-rod/raindrop-classifier/models"

	"golang.org/x/net/html"
)

// ScraperService 网页元数据抓取
// 分类时书签缺少摘要就抓一次页面, 给提示词补充上下文
type ScraperService struct {
	timeout time.Duration
}

// NewScraperService 创建抓取服务
func NewScraperService() *ScraperService {
	return &ScraperService{
		timeout: 15 * time.Second,
	}
}

// ScrapeWebPage 抓取网页元数据 (title/description/OG/Twitter Card)
func (s *ScraperService) ScrapeWebPage(url string) (*models.PageMetadata, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	// 模拟浏览器访问, 避免被反爬虫拦截
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := &http.Client{
		Timeout: s.timeout,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("网页返回错误状态: %d %s", resp.StatusCode, resp.Status)
	}

	// 元数据都在 head 里, 128KB 足够
	limitedReader := io.LimitReader(resp.Body, 128*1024)

	doc, err := html.Parse(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("HTML解析失败: %w", err)
	}

	metadata := &models.PageMetadata{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && metadata.Title == "" {
					metadata.Title = n.FirstChild.Data
				}
			case "meta":
				var name, property, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "name":
						name = attr.Val
					case "property":
						property = attr.Val
					case "content":
						content = attr.Val
					}
				}

				if name == "description" {
					metadata.Description = content
				}
				if property == "og:title" {
					metadata.OGTitle = content
				}
				if property == "og:description" {
					metadata.OGDesc = content
				}
				if name == "twitter:title" && metadata.OGTitle == "" {
					metadata.OGTitle = content
				}
				if name == "twitter:description" && metadata.OGDesc == "" {
					metadata.OGDesc = content
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return metadata, nil
}
