package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// 持久化键名，与既有存量数据保持兼容
const (
	storeKeyAddress = "walletAddress"
	storeKeyKind    = "walletType"
)

// ErrNoSavedSession 存储中不存在已保存的会话
var ErrNoSavedSession = errors.New("no saved wallet session")

// Store 会话持久化接口
//
// 只保存地址与签名器类型两项，不保存任何密钥材料
type Store interface {
	// Save 保存会话
	Save(address string, kind Kind) error

	// Load 读取已保存会话，缺失时返回ErrNoSavedSession
	Load() (address string, kind Kind, err error)

	// Clear 清除已保存会话
	Clear() error
}

// ===== 文件存储 =====

// FileStore 基于JSON文件的会话存储
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore 创建文件存储，目录不存在时自动创建
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create wallet data dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dataDir, "session.json")}, nil
}

// Save 保存会话
func (s *FileStore) Save(address string, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(map[string]string{
		storeKeyAddress: address,
		storeKeyKind:    string(kind),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wallet session: %w", err)
	}

	// 先写临时文件再改名，避免半写状态
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write wallet session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit wallet session: %w", err)
	}
	return nil
}

// Load 读取已保存会话
func (s *FileStore) Load() (string, Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNoSavedSession
		}
		return "", "", fmt.Errorf("read wallet session: %w", err)
	}

	var record map[string]string
	if err := json.Unmarshal(data, &record); err != nil {
		return "", "", fmt.Errorf("decode wallet session: %w", err)
	}

	address := record[storeKeyAddress]
	kind := Kind(record[storeKeyKind])
	if address == "" || !kind.Valid() {
		return "", "", ErrNoSavedSession
	}
	return address, kind, nil
}

// Clear 清除已保存会话
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear wallet session: %w", err)
	}
	return nil
}

// ===== 内存存储 =====

// MemoryStore 进程内会话存储，主要用于测试
type MemoryStore struct {
	mu      sync.Mutex
	saved   bool
	address string
	kind    Kind
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save 保存会话
func (s *MemoryStore) Save(address string, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved, s.address, s.kind = true, address, kind
	return nil
}

// Load 读取已保存会话
func (s *MemoryStore) Load() (string, Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return "", "", ErrNoSavedSession
	}
	return s.address, s.kind, nil
}

// Clear 清除已保存会话
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved, s.address, s.kind = false, "", ""
	return nil
}
