// Package contract 提供悬赏合约的调用编码与只读查询能力
package contract

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/client/core/builder"
	"github.com/antigravity/bountyboard/client/core/scval"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/pkg/types"
)

// NativeToken 原生代币合约地址（测试网）
const NativeToken = "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQVU2HHGCYSC"

// secondsPerDay 截止时间按天数折算
const secondsPerDay = 86_400

var (
	// ErrContractNotConfigured 合约地址未配置
	ErrContractNotConfigured = errors.New("contract id not configured")

	// ErrReadFailed 只读查询模拟失败
	ErrReadFailed = errors.New("contract read failed")

	// ErrInvalidDeadline 截止时间不合法
	ErrInvalidDeadline = errors.New("deadline must be in the future")
)

// InvocationService 合约调用服务
//
// 写操作只负责编码为操作描述符，签名与提交由上层编排；
// 读操作通过模拟执行完成，不产生任何链上状态变更
type InvocationService struct {
	contractID        string
	nativeToken       string
	networkPassphrase string
	client            transport.Client
	logger            *zap.Logger

	// 可注入，便于测试固定时间与探针地址
	now          func() time.Time
	probeAddress func() string
}

// ServiceOption 服务配置项
type ServiceOption func(*InvocationService)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *InvocationService) { s.logger = logger }
}

// WithClock 设置时间源
func WithClock(now func() time.Time) ServiceOption {
	return func(s *InvocationService) { s.now = now }
}

// WithProbeAddress 设置只读查询用的探针地址生成器
func WithProbeAddress(gen func() string) ServiceOption {
	return func(s *InvocationService) { s.probeAddress = gen }
}

// NewInvocationService 创建合约调用服务
func NewInvocationService(contractID, nativeToken, networkPassphrase string, client transport.Client, opts ...ServiceOption) *InvocationService {
	if nativeToken == "" {
		nativeToken = NativeToken
	}
	s := &InvocationService{
		contractID:        contractID,
		nativeToken:       nativeToken,
		networkPassphrase: networkPassphrase,
		client:            client,
		logger:            zap.NewNop(),
		now:               time.Now,
		probeAddress:      randomProbeAddress,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ContractID 返回合约地址
func (s *InvocationService) ContractID() string { return s.contractID }

// Configured 判断合约地址是否已配置
func (s *InvocationService) Configured() bool { return s.contractID != "" }

// ===== 写操作编码 =====

// EncodeInitialize 编码initialize调用
//
// 合约函数不接受参数，部署后只能成功执行一次
func (s *InvocationService) EncodeInitialize() (*builder.OperationDescriptor, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	return builder.NewOperation(s.contractID, "initialize"), nil
}

// EncodeCreateBounty 编码create_bounty调用
//
// 截止时间以当前时间加天数折算为Unix时间戳，
// 奖励金额以最小单位（stroops）编码为i128，
// 支付代币固定为原生代币
func (s *InvocationService) EncodeCreateBounty(creator, title, description string, reward *builder.Amount, deadlineDays uint64) (*builder.OperationDescriptor, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	if deadlineDays == 0 {
		return nil, ErrInvalidDeadline
	}
	deadline := uint64(s.now().Unix()) + deadlineDays*secondsPerDay

	// 参数顺序必须与合约函数声明一致
	return builder.NewOperation(s.contractID, "create_bounty",
		scval.Address(creator),
		scval.String(title),
		scval.String(description),
		scval.I128(reward.BigInt()),
		scval.U64(deadline),
		scval.Address(s.nativeToken),
	), nil
}

// EncodeSubmitSolution 编码submit_solution调用
func (s *InvocationService) EncodeSubmitSolution(bountyID uint64, assignee, proofURL string) (*builder.OperationDescriptor, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	return builder.NewOperation(s.contractID, "submit_solution",
		scval.U64(bountyID),
		scval.Address(assignee),
		scval.String(proofURL),
	), nil
}

// EncodeApproveSolution 编码approve_solution调用
//
// 第二个参数是支付代币的合约地址，合约用它把奖励转给提交者；
// 创建者身份由合约内的require_auth校验，不作为参数传入
func (s *InvocationService) EncodeApproveSolution(bountyID uint64) (*builder.OperationDescriptor, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	return builder.NewOperation(s.contractID, "approve_solution",
		scval.U64(bountyID),
		scval.Address(s.nativeToken),
	), nil
}

// EncodeRejectSolution 编码reject_solution调用
func (s *InvocationService) EncodeRejectSolution(bountyID uint64) (*builder.OperationDescriptor, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	return builder.NewOperation(s.contractID, "reject_solution",
		scval.U64(bountyID),
	), nil
}

// EncodeCancelBounty 编码cancel_bounty调用
//
// 第二个参数是支付代币的合约地址，合约用它把奖励退回创建者
func (s *InvocationService) EncodeCancelBounty(bountyID uint64) (*builder.OperationDescriptor, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	return builder.NewOperation(s.contractID, "cancel_bounty",
		scval.U64(bountyID),
		scval.Address(s.nativeToken),
	), nil
}

// ===== 只读查询 =====

// GetAllBounties 查询全部悬赏
func (s *InvocationService) GetAllBounties(ctx context.Context) ([]types.Bounty, error) {
	retval, err := s.read(ctx, "get_all_bounties")
	if err != nil {
		return nil, err
	}
	return s.decodeBountyList(retval), nil
}

// GetOpenBounties 查询开放中的悬赏
func (s *InvocationService) GetOpenBounties(ctx context.Context) ([]types.Bounty, error) {
	retval, err := s.read(ctx, "get_open_bounties")
	if err != nil {
		return nil, err
	}
	return s.decodeBountyList(retval), nil
}

// GetUserBounties 查询指定用户创建的悬赏
func (s *InvocationService) GetUserBounties(ctx context.Context, user string) ([]types.Bounty, error) {
	retval, err := s.read(ctx, "get_user_bounties", scval.Address(user))
	if err != nil {
		return nil, err
	}
	return s.decodeBountyList(retval), nil
}

// GetBounty 查询单个悬赏，不存在时返回nil
//
// 合约对不存在的id直接panic("Bounty not found")，
// 体现为模拟诊断信息，这里吸收为"不存在"而不是查询失败
func (s *InvocationService) GetBounty(ctx context.Context, bountyID uint64) (*types.Bounty, error) {
	retval, err := s.read(ctx, "get_bounty", scval.U64(bountyID))
	if err != nil {
		if errors.Is(err, ErrReadFailed) && strings.Contains(err.Error(), "Bounty not found") {
			return nil, nil
		}
		return nil, err
	}
	if retval.IsVoid() {
		return nil, nil
	}
	bounty, err := DecodeBounty(retval)
	if err != nil {
		return nil, fmt.Errorf("decode bounty %d: %w", bountyID, err)
	}
	return bounty, nil
}

// GetBountyCount 查询悬赏总数
func (s *InvocationService) GetBountyCount(ctx context.Context) (uint64, error) {
	retval, err := s.read(ctx, "get_bounty_count")
	if err != nil {
		return 0, err
	}
	return DecodeCount(retval), nil
}

// read 执行一次只读模拟查询
//
// 源账户使用一次性随机探针身份：模拟执行不校验账户存在且永不签名，
// 因此无需任何真实账户参与
func (s *InvocationService) read(ctx context.Context, function string, args ...scval.Value) (scval.Value, error) {
	if err := s.checkConfigured(); err != nil {
		return scval.Void(), err
	}

	account := &transport.AccountState{
		Address:  s.probeAddress(),
		Sequence: 0,
	}
	op := builder.NewOperation(s.contractID, function, args...)
	env, err := builder.BuildUnsignedEnvelope(account, op, builder.BaseFee, builder.DefaultTimeoutSeconds, s.networkPassphrase)
	if err != nil {
		return scval.Void(), fmt.Errorf("build read envelope for %s: %w", function, err)
	}
	envelopeXDR, err := env.Encode()
	if err != nil {
		return scval.Void(), fmt.Errorf("encode read envelope for %s: %w", function, err)
	}

	sim, err := s.client.SimulateTransaction(ctx, envelopeXDR)
	if err != nil {
		return scval.Void(), fmt.Errorf("simulate %s: %w", function, err)
	}
	if sim.IsError() {
		return scval.Void(), fmt.Errorf("%w: %s: %s", ErrReadFailed, function, sim.Error)
	}
	return sim.Retval, nil
}

// decodeBountyList 逐条解码悬赏列表
//
// 单条记录格式异常时丢弃该条并记录日志，不中断整个列表
func (s *InvocationService) decodeBountyList(retval scval.Value) []types.Bounty {
	entries, err := retval.AsVec()
	if err != nil {
		if !retval.IsVoid() {
			s.logger.Warn("bounty list is not a vec, treating as empty", zap.Error(err))
		}
		return []types.Bounty{}
	}

	bounties := make([]types.Bounty, 0, len(entries))
	for i, entry := range entries {
		bounty, err := DecodeBounty(entry)
		if err != nil {
			s.logger.Warn("dropping malformed bounty record",
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		bounties = append(bounties, *bounty)
	}
	return bounties
}

func (s *InvocationService) checkConfigured() error {
	if s.contractID == "" {
		return ErrContractNotConfigured
	}
	return nil
}

// ===== 解码 =====

// DecodeBounty 从合约返回值解码单条悬赏记录
func DecodeBounty(v scval.Value) (*types.Bounty, error) {
	if _, err := v.AsMap(); err != nil {
		return nil, err
	}

	id, err := requiredU64(v, "id")
	if err != nil {
		return nil, err
	}
	creator, err := requiredAddress(v, "creator")
	if err != nil {
		return nil, err
	}
	title, err := requiredString(v, "title")
	if err != nil {
		return nil, err
	}
	description, err := requiredString(v, "description")
	if err != nil {
		return nil, err
	}

	rewardField, ok := v.Field("reward")
	if !ok {
		return nil, fmt.Errorf("%w: missing field reward", scval.ErrMalformed)
	}
	reward, err := rewardField.AsI128()
	if err != nil {
		return nil, fmt.Errorf("field reward: %w", err)
	}
	if !reward.IsInt64() {
		return nil, fmt.Errorf("%w: reward out of range", scval.ErrMalformed)
	}

	deadline, err := requiredU64(v, "deadline")
	if err != nil {
		return nil, err
	}

	statusField, ok := v.Field("status")
	if !ok {
		return nil, fmt.Errorf("%w: missing field status", scval.ErrMalformed)
	}
	code, err := statusField.AsU32()
	if err != nil {
		return nil, fmt.Errorf("field status: %w", err)
	}
	status, ok := types.StatusFromCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status code %d", scval.ErrMalformed, code)
	}

	bounty := &types.Bounty{
		ID:          id,
		Title:       title,
		Description: description,
		Reward:      reward.Int64(),
		Deadline:    deadline,
		Creator:     creator,
		Status:      status,
	}

	// 可选字段：未赋值时合约返回void
	if assignee, ok := v.Field("assignee"); ok && !assignee.IsVoid() {
		addr, err := assignee.AsAddress()
		if err != nil {
			return nil, fmt.Errorf("field assignee: %w", err)
		}
		bounty.Assignee = addr
	}
	if proof, ok := v.Field("proof_url"); ok && !proof.IsVoid() {
		url, err := proof.AsString()
		if err != nil {
			return nil, fmt.Errorf("field proof_url: %w", err)
		}
		bounty.ProofURL = url
	}
	if createdAt, ok := v.Field("created_at"); ok && !createdAt.IsVoid() {
		ts, err := createdAt.AsU64()
		if err != nil {
			return nil, fmt.Errorf("field created_at: %w", err)
		}
		bounty.CreatedAt = ts
	}
	return bounty, nil
}

func requiredString(v scval.Value, name string) (string, error) {
	f, ok := v.Field(name)
	if !ok {
		return "", fmt.Errorf("%w: missing field %s", scval.ErrMalformed, name)
	}
	s, err := f.AsString()
	if err != nil {
		return "", fmt.Errorf("field %s: %w", name, err)
	}
	return s, nil
}

func requiredAddress(v scval.Value, name string) (string, error) {
	f, ok := v.Field(name)
	if !ok {
		return "", fmt.Errorf("%w: missing field %s", scval.ErrMalformed, name)
	}
	addr, err := f.AsAddress()
	if err != nil {
		return "", fmt.Errorf("field %s: %w", name, err)
	}
	return addr, nil
}

func requiredU64(v scval.Value, name string) (uint64, error) {
	f, ok := v.Field(name)
	if !ok {
		return 0, fmt.Errorf("%w: missing field %s", scval.ErrMalformed, name)
	}
	n, err := f.AsU64()
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	return n, nil
}

// DecodeCount 解码计数返回值，格式异常时按0处理
func DecodeCount(v scval.Value) uint64 {
	n, err := v.AsU64()
	if err != nil {
		return 0
	}
	return n
}

// probeAlphabet 探针地址字符集（base32）
const probeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// randomProbeAddress 生成一次性随机账户地址
//
// 仅用作只读模拟的源账户占位，无需对应任何真实账户
func randomProbeAddress() string {
	buf := make([]byte, 55)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand失败时进程已不可信，直接panic
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	out := make([]byte, 56)
	out[0] = 'G'
	for i, b := range buf {
		out[i+1] = probeAlphabet[int(b)%len(probeAlphabet)]
	}
	return string(out)
}
