package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/antigravity/bountyboard/client/core/wallet"
	"github.com/antigravity/bountyboard/client/pkg/ux/ui"
	"github.com/antigravity/bountyboard/pkg/types"
)

// walletCmd 钱包管理命令
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "钱包会话管理",
	Long:  "连接、断开、查看外部钱包签名器会话",
}

// walletConnectCmd 连接钱包
var walletConnectCmd = &cobra.Command{
	Use:   "connect <kind>",
	Short: "连接钱包",
	Long:  "连接指定类型的签名器(freighter/albedo/xbull),会在签名器中弹出授权请求",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := wallet.Kind(args[0])
		if !kind.Valid() {
			ui.Error("unsupported wallet kind %q", args[0])
			return nil
		}

		_, manager, _, _, err := newStack()
		if err != nil {
			return err
		}

		spinner, _ := ui.Spinner("Waiting for wallet approval...")
		session, err := manager.Connect(context.Background(), kind)
		if spinner != nil {
			_ = spinner.Stop()
		}
		if err != nil {
			ui.Error("connect failed: %v", err)
			return nil
		}
		ui.Success("connected to %s as %s", session.Kind, types.ShortenAddress(session.Address, 6))
		return nil
	},
}

// walletDisconnectCmd 断开钱包
var walletDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "断开钱包",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, _, _, err := newStack()
		if err != nil {
			return err
		}
		if err := manager.Disconnect(); err != nil {
			return err
		}
		ui.Success("wallet disconnected")
		return nil
	},
}

// walletStatusCmd 查看会话状态
var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "查看会话状态",
	Long:  "显示当前会话。已保存的会话直接恢复,不触发签名器交互",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, _, _, err := newStack()
		if err != nil {
			return err
		}
		session, err := manager.Restore(context.Background())
		if err != nil {
			return err
		}
		if !session.Connected {
			ui.Info("no wallet connected")
			return nil
		}
		ui.Info("connected: %s (%s)", types.ShortenAddress(session.Address, 6), session.Kind)
		logger.Debugf("full address: %s", session.Address)
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletConnectCmd)
	walletCmd.AddCommand(walletDisconnectCmd)
	walletCmd.AddCommand(walletStatusCmd)
}
