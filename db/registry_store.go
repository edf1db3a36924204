package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colin-rod/raindrop-classifier/models"
)

// RegistryStore 注册表快照的文件持久化 (JSON 文档, 原子写入)
type RegistryStore struct {
	path string
}

// NewRegistryStore 创建注册表存储
func NewRegistryStore(path string) *RegistryStore {
	return &RegistryStore{path: path}
}

// Load 读取快照
// 文件不存在返回空快照和 existed=false ("无历史"是合法的引导状态, 不是错误)
// 文件存在但解析失败则返回错误, 由调用方视为本次运行的致命错误
func (s *RegistryStore) Load() (*models.RegistrySnapshot, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.NewRegistrySnapshot(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取注册表快照失败: %w", err)
	}

	var snap models.RegistrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("注册表快照损坏 (%s): %w", s.path, err)
	}

	if snap.Tags == nil {
		snap.Tags = map[string]*models.TagRecord{}
	}
	if snap.Aliases == nil {
		snap.Aliases = map[string]string{}
	}

	return &snap, true, nil
}

// Persist 原子写入快照 (先写临时文件再 rename, 避免半写状态)
func (s *RegistryStore) Persist(snap *models.RegistrySnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化注册表失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("写入注册表快照失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("替换注册表快照失败: %w", err)
	}

	return nil
}
