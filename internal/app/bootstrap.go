// Package app 装配应用依赖并管理生命周期
package app

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/client/core/tx"
	"github.com/antigravity/bountyboard/client/core/wallet"
	apihttp "github.com/antigravity/bountyboard/internal/api/http"
	"github.com/antigravity/bountyboard/internal/api/http/handlers"
	"github.com/antigravity/bountyboard/internal/api/websocket"
	"github.com/antigravity/bountyboard/internal/cache"
	"github.com/antigravity/bountyboard/internal/config"
	"github.com/antigravity/bountyboard/internal/logging"
)

// New 构建应用
func New(configPath string) *fx.App {
	return fx.New(
		fx.Provide(
			fx.Annotate(
				func() string { return configPath },
				fx.ResultTags(`name:"config_path"`),
			),
		),
		config.Module(),
		logging.Module(),
		coreModule(),
		apiModule(),
		fx.Invoke(run),
	)
}

// coreModule 链客户端、钱包、合约与交易编排
func coreModule() fx.Option {
	return fx.Module("core",
		fx.Provide(
			evbus.New,

			func(network config.NetworkOptions) transport.Client {
				return transport.NewRPCClient(network.RPCURL, network.RPCTimeout())
			},

			func(opts config.WalletOptions) (wallet.Store, error) {
				return wallet.NewFileStore(opts.DataDir)
			},
			func(opts config.WalletOptions) wallet.KitRegistry {
				endpoints := make(map[wallet.Kind]string, len(opts.Bridges))
				for kind, endpoint := range opts.Bridges {
					endpoints[wallet.Kind(kind)] = endpoint
				}
				return wallet.NewBridgeRegistry(endpoints, opts.SignTimeout())
			},
			func(registry wallet.KitRegistry, store wallet.Store, network config.NetworkOptions, logger *zap.Logger, bus evbus.Bus) *wallet.Manager {
				return wallet.NewManager(registry, store, network.NetworkPassphrase,
					wallet.WithLogger(logger.Named("wallet")),
					wallet.WithEventBus(bus))
			},

			func(network config.NetworkOptions, client transport.Client, logger *zap.Logger) *contract.InvocationService {
				return contract.NewInvocationService(
					network.ContractID, network.NativeToken, network.NetworkPassphrase, client,
					contract.WithLogger(logger.Named("contract")))
			},

			func(manager *wallet.Manager, client transport.Client, contracts *contract.InvocationService, network config.NetworkOptions, poll config.PollOptions, logger *zap.Logger, bus evbus.Bus) *tx.Orchestrator {
				return tx.NewOrchestrator(manager, client, contracts, network.NetworkPassphrase,
					tx.WithLogger(logger.Named("tx")),
					tx.WithEventBus(bus),
					tx.WithPolling(poll.MaxAttempts, poll.Interval()))
			},

			func(contracts *contract.InvocationService, opts config.CacheOptions, logger *zap.Logger, bus evbus.Bus) (*cache.BountyCache, error) {
				return cache.NewBountyCache(contracts, opts.RefreshInterval(),
					cache.WithLogger(logger.Named("cache")),
					cache.WithEventBus(bus))
			},
		),
	)
}

// apiModule HTTP与事件推送
func apiModule() fx.Option {
	return fx.Module("api",
		fx.Provide(
			func(c *cache.BountyCache, contracts *contract.InvocationService, orchestrator *tx.Orchestrator, network config.NetworkOptions, logger *zap.Logger) *handlers.BountyHandler {
				return handlers.NewBountyHandler(c, contracts, orchestrator, network.ExplorerURL, logger.Named("api"))
			},
			func(manager *wallet.Manager, logger *zap.Logger) *handlers.WalletHandler {
				return handlers.NewWalletHandler(manager, logger.Named("api"))
			},
			func(client transport.Client, contracts *contract.InvocationService, network config.NetworkOptions) *handlers.HealthHandler {
				return handlers.NewHealthHandler(client, contracts, network)
			},
			func(bus evbus.Bus, logger *zap.Logger) *websocket.Server {
				return websocket.NewServer(bus, logger.Named("ws"))
			},
			apihttp.NewServer,
		),
	)
}

// run 注册生命周期钩子
func run(
	lc fx.Lifecycle,
	cfg *config.AppConfig,
	logger *zap.Logger,
	manager *wallet.Manager,
	bounties *cache.BountyCache,
	ws *websocket.Server,
	server *apihttp.Server,
	client transport.Client,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			warnings, err := cfg.Validate()
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logger.Warn("configuration warning", zap.String("warning", w))
			}

			// 启动时尝试恢复上次会话，失败只记日志
			if _, err := manager.Restore(ctx); err != nil {
				logger.Warn("wallet session restore failed", zap.Error(err))
			}

			if err := ws.Start(); err != nil {
				return err
			}
			bounties.Start()
			server.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Stop(shutdownCtx); err != nil {
				logger.Warn("http shutdown failed", zap.Error(err))
			}
			ws.Stop()
			if err := bounties.Stop(shutdownCtx); err != nil {
				logger.Warn("cache shutdown failed", zap.Error(err))
			}
			return client.Close()
		},
	})
}
