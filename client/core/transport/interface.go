// Package transport 提供与Soroban RPC节点通信的传输层
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/antigravity/bountyboard/client/core/scval"
)

// Client 统一传输客户端接口 - 上层业务与节点通信的唯一通道
// 所有网络调用必须经由此接口，业务层不得直接发起HTTP请求
type Client interface {
	// ===== 账户状态 =====

	// GetAccount 获取账户状态（构建交易所需的最小状态：序列号）
	GetAccount(ctx context.Context, address string) (*AccountState, error)

	// ===== 交易模拟与提交 =====

	// SimulateTransaction 模拟交易（只读探测，不产生任何链上副作用）
	// 返回资源费用估算与可选返回值，或合约层面的诊断错误。
	// 模拟成功不代表最终提交一定成功，只作为前置检查与费用估算。
	SimulateTransaction(ctx context.Context, envelopeXDR string) (*SimulateResult, error)

	// SendTransaction 提交已签名交易
	// 返回立即确认结果：PENDING表示已受理需轮询，ERROR表示立即拒绝（终态）
	SendTransaction(ctx context.Context, signedXDR string) (*SendResult, error)

	// GetTransaction 查询交易结果
	GetTransaction(ctx context.Context, hash string) (*GetTransactionResult, error)

	// PollUntilTerminal 以固定间隔轮询交易直到观察到终态
	// maxAttempts耗尽仍未见终态时返回ErrPollTimeout。
	// 每次轮询相互独立且幂等（重复查询已定案的哈希总是安全的）
	PollUntilTerminal(ctx context.Context, hash string, maxAttempts int, interval time.Duration) (*GetTransactionResult, error)

	// ===== 健康检查 =====

	// Ping 检查节点是否可达
	Ping(ctx context.Context) error

	// Close 关闭客户端连接
	Close() error
}

// ===== 错误 =====

var (
	// ErrNetworkUnreachable 节点不可达
	ErrNetworkUnreachable = errors.New("network unreachable")

	// ErrAccountNotFound 账户不存在（未注资）
	ErrAccountNotFound = errors.New("account not found")

	// ErrPollTimeout 轮询超时，交易结果未知
	// 注意：这不代表交易失败，最终结果需要通过浏览器确认
	ErrPollTimeout = errors.New("transaction polling timed out")
)

// ===== 类型 =====

// AccountState 账户状态（构建交易所需的最小集合）
type AccountState struct {
	Address  string `json:"address"`
	Sequence uint64 `json:"sequence"`
}

// SimulateResult 交易模拟结果
// Error非空表示合约层拒绝（参数错误、业务规则违反等）
type SimulateResult struct {
	Error           string      `json:"error,omitempty"`
	TransactionData string      `json:"transactionData,omitempty"` // 资源数据，装配时合并进信封
	MinResourceFee  int64       `json:"minResourceFee,omitempty"`
	Retval          scval.Value `json:"retval,omitempty"` // 只读调用的返回值
	LatestLedger    uint64      `json:"latestLedger,omitempty"`
}

// IsError 判断模拟是否被拒绝
func (r *SimulateResult) IsError() bool {
	return r != nil && r.Error != ""
}

// SendStatus 提交的立即状态
type SendStatus string

const (
	SendStatusPending SendStatus = "PENDING" // 已受理，需轮询
	SendStatusError   SendStatus = "ERROR"   // 立即拒绝（终态）
)

// SendResult 交易提交结果
type SendResult struct {
	Hash        string     `json:"hash"`
	Status      SendStatus `json:"status"`
	ErrorResult string     `json:"errorResult,omitempty"` // 拒绝原因
}

// TxStatus 交易查询状态
type TxStatus string

const (
	TxStatusNotFound TxStatus = "NOT_FOUND" // 尚未定案，需继续轮询
	TxStatusSuccess  TxStatus = "SUCCESS"   // 终态：成功
	TxStatusFailed   TxStatus = "FAILED"    // 终态：失败
)

// IsTerminal 判断状态是否为终态（继续轮询不会再改变）
func (s TxStatus) IsTerminal() bool {
	return s == TxStatusSuccess || s == TxStatusFailed
}

// GetTransactionResult 交易查询结果
type GetTransactionResult struct {
	Status      TxStatus    `json:"status"`
	Hash        string      `json:"hash,omitempty"`
	Ledger      uint64      `json:"ledger,omitempty"`
	ReturnValue scval.Value `json:"returnValue,omitempty"`
	ResultError string      `json:"resultError,omitempty"` // FAILED时的诊断
}
