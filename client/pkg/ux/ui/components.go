package ui

import (
	"time"

	"github.com/pterm/pterm"

	"github.com/antigravity/bountyboard/client/core/builder"
	"github.com/antigravity/bountyboard/client/core/tx"
	"github.com/antigravity/bountyboard/pkg/types"
)

// Success 输出成功信息
func Success(format string, args ...interface{}) {
	pterm.Success.Printfln(format, args...)
}

// Error 输出错误信息
func Error(format string, args ...interface{}) {
	pterm.Error.Printfln(format, args...)
}

// Info 输出提示信息
func Info(format string, args ...interface{}) {
	pterm.Info.Printfln(format, args...)
}

// Warning 输出警告信息
func Warning(format string, args ...interface{}) {
	pterm.Warning.Printfln(format, args...)
}

// Spinner 启动一个进度指示器
func Spinner(text string) (*pterm.SpinnerPrinter, error) {
	return pterm.DefaultSpinner.Start(text)
}

// BountyTable 以表格形式渲染悬赏列表
func BountyTable(bounties []types.Bounty, now time.Time) error {
	rows := pterm.TableData{
		{"ID", "Title", "Reward", "Status", "Deadline", "Creator"},
	}
	for _, b := range bounties {
		reward := "?"
		if amount, err := builder.NewAmountFromStroops(b.Reward); err == nil {
			reward = amount.StringTrimmed() + " XLM"
		}
		rows = append(rows, []string{
			pterm.Sprintf("%d", b.ID),
			b.Title,
			reward,
			statusLabel(b.Status),
			types.TimeRemaining(b.Deadline, now),
			types.ShortenAddress(b.Creator, 4),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// statusLabel 按状态着色
func statusLabel(status types.BountyStatus) string {
	switch status {
	case types.BountyStatusOpen:
		return pterm.FgGreen.Sprint(string(status))
	case types.BountyStatusAssigned:
		return pterm.FgYellow.Sprint(string(status))
	case types.BountyStatusCompleted:
		return pterm.FgCyan.Sprint(string(status))
	case types.BountyStatusCancelled:
		return pterm.FgGray.Sprint(string(status))
	default:
		return string(status)
	}
}

// RenderAttempt 渲染一次交易尝试的终态
func RenderAttempt(snapshot tx.Snapshot, explorerURL string) {
	switch snapshot.Status {
	case tx.StatusSuccess:
		Success("Transaction confirmed")
		if snapshot.Hash != "" {
			Info("hash: %s", types.FormatTxHash(snapshot.Hash, 8))
			if explorerURL != "" {
				Info("explorer: %s", types.ExplorerURL(explorerURL, types.ExplorerTx, snapshot.Hash))
			}
		}
	case tx.StatusError:
		Error("%s", snapshot.ErrorDetail)
		// 超时是模糊结局：交易可能已经上链
		if snapshot.Hash != "" {
			Warning("submitted hash: %s", snapshot.Hash)
			if explorerURL != "" {
				Warning("check: %s", types.ExplorerURL(explorerURL, types.ExplorerTx, snapshot.Hash))
			}
		}
	default:
		Info("attempt %s is %s", snapshot.ID, snapshot.Status)
	}
}
