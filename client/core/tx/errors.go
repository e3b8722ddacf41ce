package tx

import (
	"errors"
	"strings"

	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/client/core/wallet"
)

// Category 面向用户的失败类别
//
// 各层失败在传播到UI前统一收敛到这个小而封闭的集合
type Category string

const (
	CategoryBalance            Category = "balance"             // 余额不足
	CategoryRejection          Category = "rejection"           // 用户或合约拒绝
	CategoryTimeout            Category = "timeout"             // 轮询超时，结果未知
	CategoryNotFound           Category = "not_found"           // 账户/资源不存在
	CategoryAlreadyInitialized Category = "already_initialized" // 合约已初始化
	CategoryGeneric            Category = "generic"             // 其余失败
)

// Classify 把底层失败归类为用户可见类别并生成一行说明
//
// 优先使用各层在失败源头打好的错误标签（errors.Is判定）；
// 字符串模式匹配仅作为无结构上游消息的兜底手段。
// 已知弱点：兜底匹配依赖上游消息措辞，消息变更会使归类退化为generic
func Classify(err error) (Category, string) {
	if err == nil {
		return CategoryGeneric, ""
	}

	// 标签优先
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return CategoryRejection, "Please connect your wallet first"
	case errors.Is(err, wallet.ErrUserDeclined):
		return CategoryRejection, "Transaction was rejected in the wallet"
	case errors.Is(err, wallet.ErrSignerNotInstalled):
		return CategoryRejection, "Wallet signer is not installed or not reachable"
	case errors.Is(err, transport.ErrPollTimeout):
		return CategoryTimeout, "Transaction submitted but confirmation timed out: unknown outcome, check explorer"
	case errors.Is(err, transport.ErrAccountNotFound):
		return CategoryNotFound, "Account not found: fund the account before transacting"
	case errors.Is(err, transport.ErrNetworkUnreachable):
		return CategoryGeneric, "Network is unreachable, please try again"
	}

	// 兜底：无结构消息的字符串匹配
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient balance") ||
		strings.Contains(msg, "underfunded") ||
		strings.Contains(msg, "insufficient funds"):
		return CategoryBalance, "Insufficient balance to cover reward and fees"
	case strings.Contains(msg, "already initialized"):
		return CategoryAlreadyInitialized, "Contract is already initialized"
	case strings.Contains(msg, "declined") || strings.Contains(msg, "rejected"):
		return CategoryRejection, "Transaction was rejected"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return CategoryTimeout, "Operation timed out: unknown outcome, check explorer"
	case strings.Contains(msg, "not found") || strings.Contains(msg, "missing"):
		return CategoryNotFound, "Requested resource was not found"
	default:
		return CategoryGeneric, "Transaction failed: " + err.Error()
	}
}
