package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/antigravity/bountyboard/client/pkg/ux/ui"
)

// configCmd 配置管理命令
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理",
	Long:  "查看与修改客户端配置(RPC端点、网络、合约地址等)",
}

// configShowCmd 显示当前配置
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示当前配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cliConfig, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// configSetCmd 修改配置项
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "修改配置项",
	Long:  "修改配置项并保存。支持: rpc_url, network_passphrase, network, contract_id, native_token, explorer_url",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		switch key {
		case "rpc_url":
			cliConfig.RPCURL = value
		case "network_passphrase":
			cliConfig.NetworkPassphrase = value
		case "network":
			cliConfig.Network = value
		case "contract_id":
			cliConfig.ContractID = value
		case "native_token":
			cliConfig.NativeToken = value
		case "explorer_url":
			cliConfig.ExplorerURL = value
		default:
			return fmt.Errorf("unknown config key %q", key)
		}
		if err := configMgr.Save(cliConfig); err != nil {
			return err
		}
		ui.Success("%s updated", key)
		return nil
	},
}

// configBridgeCmd 配置签名器桥接端点
var configBridgeCmd = &cobra.Command{
	Use:   "bridge <kind> <endpoint>",
	Short: "配置签名器桥接端点",
	Long:  "为指定签名器类型(freighter/albedo/xbull)配置本地桥接端点",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cliConfig.Bridges == nil {
			cliConfig.Bridges = make(map[string]string)
		}
		cliConfig.Bridges[args[0]] = args[1]
		if err := configMgr.Save(cliConfig); err != nil {
			return err
		}
		ui.Success("bridge for %s updated", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configBridgeCmd)
}
