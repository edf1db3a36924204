package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/colin-rod/raindrop-classifier/config"
	"github.com/colin-rod/raindrop-classifier/models"
)

// RaindropService Raindrop.io API 客户端 (外部条目存储协作方)
// 书签本体永远在 Raindrop 服务端, 本地不保存副本
type RaindropService struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewRaindropService 创建 Raindrop 客户端
func NewRaindropService(cfg *config.Config) *RaindropService {
	return &RaindropService{
		endpoint: cfg.RaindropEndpoint,
		token:    cfg.RaindropToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ListRaindrops 分页获取书签 (collectionID=0 表示全部)
func (s *RaindropService) ListRaindrops(collectionID, page, perPage int) (*models.RaindropListResponse, error) {
	url := fmt.Sprintf("%s/raindrops/%d?page=%d&perpage=%d", s.endpoint, collectionID, page, perPage)

	var listResp models.RaindropListResponse
	if err := s.get(url, &listResp); err != nil {
		return nil, err
	}

	if listResp.Items == nil {
		listResp.Items = []*models.Raindrop{}
	}
	return &listResp, nil
}

// ListAllRaindrops 翻页取完收藏夹下的全部书签
func (s *RaindropService) ListAllRaindrops(collectionID int) ([]*models.Raindrop, error) {
	const perPage = 50

	all := []*models.Raindrop{}
	for page := 0; ; page++ {
		resp, err := s.ListRaindrops(collectionID, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("获取第%d页书签失败: %w", page, err)
		}

		all = append(all, resp.Items...)
		if len(resp.Items) < perPage {
			break
		}
	}

	log.Printf("📚 共获取 %d 条书签 (collection=%d)", len(all), collectionID)
	return all, nil
}

// UpdateTags 回写书签标签
func (s *RaindropService) UpdateTags(raindropID int, tags []string) error {
	url := fmt.Sprintf("%s/raindrop/%d", s.endpoint, raindropID)
	body := map[string]interface{}{"tags": tags}
	return s.put(url, body)
}

// MoveToCollection 把书签移到指定收藏夹 (分类 → 收藏夹路由)
func (s *RaindropService) MoveToCollection(raindropID, collectionID int) error {
	url := fmt.Sprintf("%s/raindrop/%d", s.endpoint, raindropID)
	body := map[string]interface{}{
		"collection": map[string]interface{}{"$id": collectionID},
	}
	return s.put(url, body)
}

// ListCollections 获取所有收藏夹
func (s *RaindropService) ListCollections() ([]*models.Collection, error) {
	var listResp models.CollectionListResponse
	if err := s.get(s.endpoint+"/collections", &listResp); err != nil {
		return nil, err
	}

	if listResp.Items == nil {
		listResp.Items = []*models.Collection{}
	}
	return listResp.Items, nil
}

func (s *RaindropService) get(url string, out interface{}) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("Raindrop请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("Raindrop认证失败: 请检查RAINDROP_TOKEN (状态码: %d)", resp.StatusCode)
		}
		return fmt.Errorf("Raindrop服务错误: %s (状态码: %d)", resp.Status, resp.StatusCode)
	}

	// 限制响应体大小为4MB
	limitedReader := io.LimitReader(resp.Body, 4*1024*1024)
	if err := json.NewDecoder(limitedReader).Decode(out); err != nil {
		return fmt.Errorf("解析Raindrop响应失败: %w", err)
	}
	return nil
}

func (s *RaindropService) put(url string, body interface{}) error {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	req, err := http.NewRequest("PUT", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("Raindrop请求失败: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Raindrop更新失败: %s (状态码: %d)", resp.Status, resp.StatusCode)
	}
	return nil
}
