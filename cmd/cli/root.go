package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/client/core/tx"
	"github.com/antigravity/bountyboard/client/core/wallet"
	clientconfig "github.com/antigravity/bountyboard/client/pkg/config"
	"github.com/antigravity/bountyboard/client/pkg/ux/ui"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigDir string // 配置目录
	Verbose   bool   // 详细模式
}

var (
	globalFlags GlobalFlags
	configMgr   *clientconfig.Manager
	cliConfig   *clientconfig.ClientConfig
	logger      ui.Logger
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "bounty",
	Short: "Bounty Board 命令行客户端",
	Long: `Bounty Board CLI - 链上悬赏板的薄客户端

提供完整的悬赏板交互能力:
- 连接/断开外部钱包签名器
- 创建、查询悬赏
- 提交、批准、驳回方案
- 跟踪交易从模拟到上链确认的全过程

签名始终由外部签名器完成,私钥永远不经过本工具。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configMgr, err = clientconfig.NewManager(globalFlags.ConfigDir)
		if err != nil {
			return fmt.Errorf("init config: %w", err)
		}
		cliConfig, err = configMgr.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger = ui.NewConsoleLogger(globalFlags.Verbose)
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigDir, "config-dir", "", "配置目录 (默认: ~/.bountyboard)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "详细输出")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(bountyCmd)
}

// newStack 根据客户端配置构建交互所需的核心对象
func newStack() (transport.Client, *wallet.Manager, *contract.InvocationService, *tx.Orchestrator, error) {
	client := transport.NewRPCClient(cliConfig.RPCURL, 30*time.Second)

	store, err := wallet.NewFileStore(configMgr.Dir())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	endpoints := make(map[wallet.Kind]string, len(cliConfig.Bridges))
	for kind, endpoint := range cliConfig.Bridges {
		endpoints[wallet.Kind(kind)] = endpoint
	}
	// 签名等待的是人而不是机器
	registry := wallet.NewBridgeRegistry(endpoints, 5*time.Minute)
	manager := wallet.NewManager(registry, store, cliConfig.NetworkPassphrase)

	contracts := contract.NewInvocationService(
		cliConfig.ContractID, cliConfig.NativeToken, cliConfig.NetworkPassphrase, client)
	orchestrator := tx.NewOrchestrator(manager, client, contracts, cliConfig.NetworkPassphrase)
	return client, manager, contracts, orchestrator, nil
}

func main() {
	Execute()
}
