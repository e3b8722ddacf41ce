package builder

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/antigravity/bountyboard/client/core/transport"
)

const (
	// BaseFee 基础手续费（stroops）
	BaseFee = 100

	// DefaultTimeoutSeconds 信封默认有效时长
	DefaultTimeoutSeconds = 30
)

var (
	// ErrSimulationFailed 用模拟错误结果装配信封（编程错误，不是可恢复的运行时状态）
	ErrSimulationFailed = errors.New("cannot assemble envelope from failed simulation")

	// ErrInvalidEnvelope 信封内容不完整
	ErrInvalidEnvelope = errors.New("invalid envelope")
)

// Envelope 交易信封（未签名）
//
// 装配（Assemble）会把模拟得到的资源数据与费用合并进来，
// 产生最终可签名的信封。网络要求资源费用准确，否则提交会被拒绝
type Envelope struct {
	Source            string               `json:"source"`
	Sequence          uint64               `json:"sequence"` // 账户当前序列号+1
	Fee               int64                `json:"fee"`      // stroops
	TimeoutSeconds    uint32               `json:"timeout_seconds"`
	NetworkPassphrase string               `json:"network_passphrase"`
	Operation         *OperationDescriptor `json:"operation"`
	TransactionData   string               `json:"transaction_data,omitempty"` // 模拟得到的资源数据
}

// BuildUnsignedEnvelope 构建未签名交易信封
//
// 纯构造，无任何I/O；给定相同输入结果确定
func BuildUnsignedEnvelope(account *transport.AccountState, op *OperationDescriptor, fee int64, timeoutSeconds uint32, networkPassphrase string) (*Envelope, error) {
	if account == nil || account.Address == "" {
		return nil, fmt.Errorf("%w: missing source account", ErrInvalidEnvelope)
	}
	if op == nil || op.Function == "" {
		return nil, fmt.Errorf("%w: missing operation", ErrInvalidEnvelope)
	}
	if fee <= 0 {
		fee = BaseFee
	}
	if timeoutSeconds == 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}

	return &Envelope{
		Source:            account.Address,
		Sequence:          account.Sequence + 1,
		Fee:               fee,
		TimeoutSeconds:    timeoutSeconds,
		NetworkPassphrase: networkPassphrase,
		Operation:         op,
	}, nil
}

// Assemble 将模拟结果合并进信封，产生最终可签名的信封
//
// 纯函数：不修改输入信封，返回新实例。
// 传入模拟错误结果属于调用方编程错误，直接报错
func Assemble(env *Envelope, sim *transport.SimulateResult) (*Envelope, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrInvalidEnvelope)
	}
	if sim == nil {
		return nil, fmt.Errorf("%w: nil simulation result", ErrSimulationFailed)
	}
	if sim.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSimulationFailed, sim.Error)
	}

	assembled := *env
	assembled.Fee = env.Fee + sim.MinResourceFee
	assembled.TransactionData = sim.TransactionData

	return &assembled, nil
}

// Encode 编码为可签名/可提交的线格式（base64）
//
// 内容确定性序列化，签名器与RPC边界将其视为不透明的XDR等价物
func (e *Envelope) Encode() (string, error) {
	if e == nil || e.Source == "" || e.Operation == nil {
		return "", fmt.Errorf("%w: incomplete envelope", ErrInvalidEnvelope)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeEnvelope 从线格式解码信封
func DecodeEnvelope(encoded string) (*Envelope, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Source == "" || env.Operation == nil {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidEnvelope)
	}

	return &env, nil
}
