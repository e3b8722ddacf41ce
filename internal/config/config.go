// Package config 提供应用配置的加载、校验与fx模块
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// 网络默认值（测试网）
const (
	DefaultRPCURL            = "https://soroban-testnet.stellar.org"
	DefaultNetworkPassphrase = "Test SDF Network ; September 2015"
	DefaultNetworkName       = "TESTNET"
	DefaultExplorerURL       = "https://stellar.expert/explorer/testnet"
)

// NetworkOptions 链网络配置
type NetworkOptions struct {
	RPCURL            string `json:"rpc_url"`
	NetworkPassphrase string `json:"network_passphrase"`
	Network           string `json:"network"`
	ContractID        string `json:"contract_id"`
	NativeToken       string `json:"native_token"`
	ExplorerURL       string `json:"explorer_url"`
	RPCTimeoutSeconds int    `json:"rpc_timeout_seconds"`
}

// RPCTimeout 返回RPC请求超时
func (o NetworkOptions) RPCTimeout() time.Duration {
	if o.RPCTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.RPCTimeoutSeconds) * time.Second
}

// HTTPOptions HTTP服务配置
type HTTPOptions struct {
	Listen string `json:"listen"`
}

// LogOptions 日志配置
type LogOptions struct {
	Level        string `json:"level"`
	ToConsole    bool   `json:"to_console"`
	FilePath     string `json:"file_path"`
	MaxSizeMB    int    `json:"max_size"`
	MaxBackups   int    `json:"max_backups"`
	MaxAgeDays   int    `json:"max_age"`
	Compress     bool   `json:"compress"`
	EnableCaller bool   `json:"enable_caller"`
}

// WalletOptions 钱包配置
type WalletOptions struct {
	DataDir string `json:"data_dir"`
	// 各签名器桥接端点，键为签名器类型（freighter/albedo/xbull）
	Bridges            map[string]string `json:"bridges"`
	SignTimeoutSeconds int               `json:"sign_timeout_seconds"`
}

// SignTimeout 返回签名等待超时，签名是用户交互操作，默认给足5分钟
func (o WalletOptions) SignTimeout() time.Duration {
	if o.SignTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(o.SignTimeoutSeconds) * time.Second
}

// PollOptions 交易轮询配置
type PollOptions struct {
	MaxAttempts     int `json:"max_attempts"`
	IntervalSeconds int `json:"interval_seconds"`
}

// Interval 返回轮询间隔
func (o PollOptions) Interval() time.Duration {
	if o.IntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(o.IntervalSeconds) * time.Second
}

// CacheOptions 悬赏列表缓存配置
type CacheOptions struct {
	RefreshSeconds int `json:"refresh_seconds"`
}

// RefreshInterval 返回后台刷新间隔
func (o CacheOptions) RefreshInterval() time.Duration {
	if o.RefreshSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(o.RefreshSeconds) * time.Second
}

// AppConfig 应用配置
type AppConfig struct {
	Network NetworkOptions `json:"network"`
	HTTP    HTTPOptions    `json:"http"`
	Log     LogOptions     `json:"log"`
	Wallet  WalletOptions  `json:"wallet"`
	Poll    PollOptions    `json:"poll"`
	Cache   CacheOptions   `json:"cache"`
}

// Default 返回默认配置
func Default() *AppConfig {
	return &AppConfig{
		Network: NetworkOptions{
			RPCURL:            DefaultRPCURL,
			NetworkPassphrase: DefaultNetworkPassphrase,
			Network:           DefaultNetworkName,
			ExplorerURL:       DefaultExplorerURL,
			RPCTimeoutSeconds: 30,
		},
		HTTP: HTTPOptions{
			Listen: ":8080",
		},
		Log: LogOptions{
			Level:     "info",
			ToConsole: true,
			FilePath:  "./data/logs/bountyboard.log",
		},
		Wallet: WalletOptions{
			DataDir: "./data/wallet",
		},
		Poll: PollOptions{
			MaxAttempts:     30,
			IntervalSeconds: 1,
		},
		Cache: CacheOptions{
			RefreshSeconds: 60,
		},
	}
}

// Load 加载配置文件并叠加到默认值之上
//
// path为空时直接返回默认配置
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 校验配置
//
// 返回的warnings是可运行但受限的配置问题（如未配置合约地址），
// error则是无法启动的硬错误
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.Network.RPCURL == "" {
		return nil, fmt.Errorf("network.rpc_url is required")
	}
	if c.Network.NetworkPassphrase == "" {
		return nil, fmt.Errorf("network.network_passphrase is required")
	}
	if c.Network.ContractID == "" {
		warnings = append(warnings, "network.contract_id is not set: write operations and reads will be unavailable until it is configured")
	}
	if _, ok := map[string]bool{"": true, "TESTNET": true, "PUBLIC": true, "FUTURENET": true, "STANDALONE": true}[c.Network.Network]; !ok {
		warnings = append(warnings, fmt.Sprintf("network.network %q is not a known network name", c.Network.Network))
	}
	return warnings, nil
}
