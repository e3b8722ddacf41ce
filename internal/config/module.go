package config

import (
	"go.uber.org/fx"
)

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	// 配置文件路径，可缺省
	Path string `name:"config_path" optional:"true"`
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideAppConfig,
			// 提供具体的配置段用于依赖注入
			func(cfg *AppConfig) NetworkOptions { return cfg.Network },
			func(cfg *AppConfig) HTTPOptions { return cfg.HTTP },
			func(cfg *AppConfig) WalletOptions { return cfg.Wallet },
			func(cfg *AppConfig) PollOptions { return cfg.Poll },
			func(cfg *AppConfig) CacheOptions { return cfg.Cache },
		),
	)
}

// ProvideAppConfig 提供应用配置
func ProvideAppConfig(params ConfigParams) (*AppConfig, error) {
	cfg, err := Load(params.Path)
	if err != nil {
		return nil, err
	}
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
