package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/bountyboard/client/core/builder"
	"github.com/antigravity/bountyboard/client/core/tx"
	"github.com/antigravity/bountyboard/client/pkg/ux/ui"
	"github.com/antigravity/bountyboard/pkg/types"
)

// bountyCmd 悬赏管理命令
var bountyCmd = &cobra.Command{
	Use:   "bounty",
	Short: "悬赏管理",
	Long:  "创建、查询悬赏,提交、批准、驳回方案",
}

var (
	listOpenOnly bool
	listUser     string
)

// bountyListCmd 列出悬赏
var bountyListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出悬赏",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, contracts, _, err := newStack()
		if err != nil {
			return err
		}
		ctx := context.Background()

		var bounties []types.Bounty
		switch {
		case listUser == "me":
			session, err := manager.Restore(ctx)
			if err != nil {
				return err
			}
			if !session.Connected {
				ui.Error("connect a wallet first, or pass an explicit address with --user")
				return nil
			}
			bounties, err = contracts.GetUserBounties(ctx, session.Address)
			if err != nil {
				return err
			}
		case listUser != "":
			bounties, err = contracts.GetUserBounties(ctx, listUser)
			if err != nil {
				return err
			}
		case listOpenOnly:
			bounties, err = contracts.GetOpenBounties(ctx)
			if err != nil {
				return err
			}
		default:
			bounties, err = contracts.GetAllBounties(ctx)
			if err != nil {
				return err
			}
		}

		if len(bounties) == 0 {
			ui.Info("no bounties found")
			return nil
		}
		return ui.BountyTable(bounties, time.Now())
	},
}

// bountyGetCmd 查询单个悬赏
var bountyGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "查询单个悬赏",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bounty id must be a number: %w", err)
		}
		_, _, contracts, _, err := newStack()
		if err != nil {
			return err
		}
		bounty, err := contracts.GetBounty(context.Background(), id)
		if err != nil {
			return err
		}
		if bounty == nil {
			ui.Warning("bounty %d does not exist", id)
			return nil
		}
		data, err := json.MarshalIndent(bounty, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// bountyCountCmd 查询悬赏总数
var bountyCountCmd = &cobra.Command{
	Use:   "count",
	Short: "查询悬赏总数",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, contracts, _, err := newStack()
		if err != nil {
			return err
		}
		count, err := contracts.GetBountyCount(context.Background())
		if err != nil {
			return err
		}
		ui.Info("%d bounties on chain", count)
		return nil
	},
}

var (
	createReward   string
	createDeadline uint64
)

// bountyCreateCmd 创建悬赏
var bountyCreateCmd = &cobra.Command{
	Use:   "create <title> <description>",
	Short: "创建悬赏",
	Long:  "创建悬赏并锁定奖励。奖励以XLM计,截止时间以天计",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		xlm, err := strconv.ParseFloat(createReward, 64)
		if err != nil {
			return fmt.Errorf("invalid reward: %w", err)
		}
		reward, err := builder.NewAmount(xlm)
		if err != nil {
			return fmt.Errorf("invalid reward: %w", err)
		}
		return runPipeline(func(ctx context.Context, orchestrator *tx.Orchestrator) (*tx.Attempt, error) {
			return orchestrator.CreateBounty(ctx, args[0], args[1], reward, createDeadline)
		})
	},
}

// bountySubmitCmd 提交方案
var bountySubmitCmd = &cobra.Command{
	Use:   "submit <id> <proof-url>",
	Short: "提交方案",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bounty id must be a number: %w", err)
		}
		return runPipeline(func(ctx context.Context, orchestrator *tx.Orchestrator) (*tx.Attempt, error) {
			return orchestrator.SubmitSolution(ctx, id, args[1])
		})
	},
}

// bountyApproveCmd 批准方案
var bountyApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "批准方案并发放奖励",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bounty id must be a number: %w", err)
		}
		return runPipeline(func(ctx context.Context, orchestrator *tx.Orchestrator) (*tx.Attempt, error) {
			return orchestrator.ApproveSolution(ctx, id)
		})
	},
}

// bountyRejectCmd 驳回方案
var bountyRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "驳回方案",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bounty id must be a number: %w", err)
		}
		return runPipeline(func(ctx context.Context, orchestrator *tx.Orchestrator) (*tx.Attempt, error) {
			return orchestrator.RejectSolution(ctx, id)
		})
	},
}

// bountyCancelCmd 取消悬赏
var bountyCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "取消悬赏并退回奖励",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bounty id must be a number: %w", err)
		}
		return runPipeline(func(ctx context.Context, orchestrator *tx.Orchestrator) (*tx.Attempt, error) {
			return orchestrator.CancelBounty(ctx, id)
		})
	},
}

// bountyInitCmd 初始化合约
var bountyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化合约",
	Long:  "初始化悬赏合约,部署后只能成功执行一次",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(func(ctx context.Context, orchestrator *tx.Orchestrator) (*tx.Attempt, error) {
			return orchestrator.Initialize(ctx)
		})
	},
}

// runPipeline 恢复会话并执行一次交易流水线
func runPipeline(invoke func(context.Context, *tx.Orchestrator) (*tx.Attempt, error)) error {
	_, manager, _, orchestrator, err := newStack()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := manager.Restore(ctx)
	if err != nil {
		return err
	}
	if !session.Connected {
		ui.Error("connect a wallet first: bounty wallet connect <kind>")
		return nil
	}
	logger.Debugf("using account %s", session.Address)

	spinner, _ := ui.Spinner("Submitting transaction...")
	attempt, err := invoke(ctx, orchestrator)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		ui.Error("%v", err)
		return nil
	}
	ui.RenderAttempt(attempt.Snapshot(), cliConfig.ExplorerURL)
	return nil
}

func init() {
	bountyListCmd.Flags().BoolVar(&listOpenOnly, "open", false, "只显示开放中的悬赏")
	bountyListCmd.Flags().StringVar(&listUser, "user", "", "按创建者过滤 (地址或 me)")
	bountyCreateCmd.Flags().StringVar(&createReward, "reward", "", "奖励金额 (XLM)")
	bountyCreateCmd.Flags().Uint64Var(&createDeadline, "deadline-days", 7, "截止时间 (天)")
	_ = bountyCreateCmd.MarkFlagRequired("reward")

	bountyCmd.AddCommand(bountyListCmd)
	bountyCmd.AddCommand(bountyGetCmd)
	bountyCmd.AddCommand(bountyCountCmd)
	bountyCmd.AddCommand(bountyCreateCmd)
	bountyCmd.AddCommand(bountySubmitCmd)
	bountyCmd.AddCommand(bountyApproveCmd)
	bountyCmd.AddCommand(bountyRejectCmd)
	bountyCmd.AddCommand(bountyCancelCmd)
	bountyCmd.AddCommand(bountyInitCmd)
}
