// Package config 提供命令行客户端的本地配置管理
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// 默认配置（测试网）
const (
	DefaultRPCURL            = "https://soroban-testnet.stellar.org"
	DefaultNetworkPassphrase = "Test SDF Network ; September 2015"
	DefaultNetwork           = "TESTNET"
	DefaultExplorerURL       = "https://stellar.expert/explorer/testnet"
)

// ClientConfig 客户端配置
type ClientConfig struct {
	RPCURL            string `json:"rpc_url"`
	NetworkPassphrase string `json:"network_passphrase"`
	Network           string `json:"network"`
	ContractID        string `json:"contract_id"`
	NativeToken       string `json:"native_token,omitempty"`
	ExplorerURL       string `json:"explorer_url"`
	// 各签名器桥接端点
	Bridges map[string]string `json:"bridges,omitempty"`
}

// Manager 客户端配置管理器
type Manager struct {
	dir  string
	path string
}

// NewManager 创建配置管理器，configDir为空时使用 ~/.bountyboard
func NewManager(configDir string) (*Manager, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configDir = filepath.Join(home, ".bountyboard")
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &Manager{
		dir:  configDir,
		path: filepath.Join(configDir, "config.json"),
	}, nil
}

// Dir 返回配置目录
func (m *Manager) Dir() string { return m.dir }

// Load 读取配置，文件不存在时返回默认配置
func (m *Manager) Load() (*ClientConfig, error) {
	cfg := &ClientConfig{
		RPCURL:            DefaultRPCURL,
		NetworkPassphrase: DefaultNetworkPassphrase,
		Network:           DefaultNetwork,
		ExplorerURL:       DefaultExplorerURL,
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read client config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse client config: %w", err)
	}
	return cfg, nil
}

// Save 保存配置
func (m *Manager) Save(cfg *ClientConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode client config: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write client config: %w", err)
	}
	return nil
}
