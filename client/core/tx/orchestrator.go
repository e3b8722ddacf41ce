// Package tx 编排悬赏交易的完整提交流水线
//
// 流水线：编码 → 取账户状态 → 构造信封 → 模拟 → 合并资源 → 外部签名
// → 提交 → 轮询至终态。每次写操作对应一个全新的Attempt，终态后不复用
package tx

import (
	"context"
	"fmt"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/client/core/builder"
	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/client/core/wallet"
)

// TopicTxStatus 交易状态变更事件主题
const TopicTxStatus = "tx:status"

// 轮询默认参数：30次、固定1秒间隔，共识终局窗口内足够
const (
	DefaultPollAttempts = 30
	DefaultPollInterval = time.Second
)

// Status 交易尝试状态
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Terminal 判断是否为终态
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Attempt 单次交易尝试
//
// 状态只能沿 idle → pending → {success|error} 前进；
// Reset是唯一的例外，由UI显式触发（用户关闭状态对话框）
type Attempt struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`

	mu          sync.RWMutex
	status      Status
	hash        string
	errorDetail string
	category    Category
}

func newAttempt(operation string) *Attempt {
	return &Attempt{
		ID:        uuid.NewString(),
		Operation: operation,
		status:    StatusIdle,
	}
}

// Status 返回当前状态
func (a *Attempt) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Hash 返回提交哈希，提交被接受前为空
func (a *Attempt) Hash() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hash
}

// ErrorDetail 返回失败说明
func (a *Attempt) ErrorDetail() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.errorDetail
}

// Category 返回失败类别
func (a *Attempt) Category() Category {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.category
}

// Snapshot 状态快照，用于事件推送与API响应
type Snapshot struct {
	ID          string   `json:"id"`
	Operation   string   `json:"operation"`
	Status      Status   `json:"status"`
	Hash        string   `json:"hash,omitempty"`
	ErrorDetail string   `json:"error_detail,omitempty"`
	Category    Category `json:"category,omitempty"`
}

// Snapshot 返回当前快照
func (a *Attempt) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{
		ID:          a.ID,
		Operation:   a.Operation,
		Status:      a.status,
		Hash:        a.hash,
		ErrorDetail: a.errorDetail,
		Category:    a.category,
	}
}

// Reset 把终态尝试重置回idle，UI驱动的显式转换
func (a *Attempt) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status.Terminal() {
		a.status = StatusIdle
		a.hash = ""
		a.errorDetail = ""
		a.category = ""
	}
}

// markPending 进入pending，仅允许从idle转入
func (a *Attempt) markPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusIdle {
		return false
	}
	a.status = StatusPending
	return true
}

// setHash 记录已被网络接受的提交哈希
func (a *Attempt) setHash(hash string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hash = hash
}

// markSuccess 进入success，仅允许从pending转入
func (a *Attempt) markSuccess() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusPending {
		return false
	}
	a.status = StatusSuccess
	return true
}

// markError 进入error，仅允许从pending转入
func (a *Attempt) markError(category Category, detail string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusPending {
		return false
	}
	a.status = StatusError
	a.category = category
	a.errorDetail = detail
	return true
}

// Wallet 编排器需要的钱包能力
type Wallet interface {
	Session() wallet.Session
	SignTransaction(ctx context.Context, envelopeXDR string) (string, error)
}

// Orchestrator 交易编排器
type Orchestrator struct {
	wallet            Wallet
	client            transport.Client
	contracts         *contract.InvocationService
	networkPassphrase string
	pollAttempts      int
	pollInterval      time.Duration
	logger            *zap.Logger
	bus               evbus.Bus
}

// Option 编排器配置项
type Option func(*Orchestrator)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithEventBus 设置事件总线，状态变更时发布到TopicTxStatus
func WithEventBus(bus evbus.Bus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithPolling 设置轮询次数与间隔
func WithPolling(attempts int, interval time.Duration) Option {
	return func(o *Orchestrator) {
		o.pollAttempts = attempts
		o.pollInterval = interval
	}
}

// NewOrchestrator 创建交易编排器
func NewOrchestrator(w Wallet, client transport.Client, contracts *contract.InvocationService, networkPassphrase string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		wallet:            w,
		client:            client,
		contracts:         contracts,
		networkPassphrase: networkPassphrase,
		pollAttempts:      DefaultPollAttempts,
		pollInterval:      DefaultPollInterval,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit 执行一次完整的交易提交流水线
//
// 无活跃钱包会话时立即返回wallet.ErrNotConnected且不创建任何Attempt：
// 这是"未开始"信号，不是一次失败的尝试。
// 其余任何失败都体现为返回的Attempt进入error终态，err为nil
func (o *Orchestrator) Submit(ctx context.Context, operation string, op *builder.OperationDescriptor) (*Attempt, error) {
	session := o.wallet.Session()
	if !session.Connected {
		return nil, wallet.ErrNotConnected
	}

	attempt := newAttempt(operation)
	attempt.markPending()
	o.publish(attempt)

	o.logger.Info("transaction pipeline started",
		zap.String("attempt", attempt.ID),
		zap.String("operation", operation),
		zap.String("source", session.Address))

	// 取账户状态（序列号）
	account, err := o.client.GetAccount(ctx, session.Address)
	if err != nil {
		return o.fail(attempt, err)
	}

	// 构造未签名信封并模拟
	env, err := builder.BuildUnsignedEnvelope(account, op, builder.BaseFee, builder.DefaultTimeoutSeconds, o.networkPassphrase)
	if err != nil {
		return o.fail(attempt, err)
	}
	unsignedXDR, err := env.Encode()
	if err != nil {
		return o.fail(attempt, err)
	}

	sim, err := o.client.SimulateTransaction(ctx, unsignedXDR)
	if err != nil {
		return o.fail(attempt, err)
	}
	if sim.IsError() {
		// 模拟失败在触达签名器之前终止，原样保留模拟器消息
		o.logger.Warn("simulation rejected transaction",
			zap.String("attempt", attempt.ID),
			zap.String("detail", sim.Error))
		category, _ := Classify(fmt.Errorf("%w: %s", builder.ErrSimulationFailed, sim.Error))
		attempt.markError(category, sim.Error)
		o.publish(attempt)
		return attempt, nil
	}

	// 合并模拟得出的资源数据与费用
	assembled, err := builder.Assemble(env, sim)
	if err != nil {
		return o.fail(attempt, err)
	}
	assembledXDR, err := assembled.Encode()
	if err != nil {
		return o.fail(attempt, err)
	}

	// 外部签名：用户交互点，随时可能被拒绝
	signedXDR, err := o.wallet.SignTransaction(ctx, assembledXDR)
	if err != nil {
		return o.fail(attempt, err)
	}

	// 提交
	sent, err := o.client.SendTransaction(ctx, signedXDR)
	if err != nil {
		return o.fail(attempt, err)
	}
	if sent.Status == transport.SendStatusError {
		return o.fail(attempt, fmt.Errorf("transaction rejected on submission: %s", sent.ErrorResult))
	}

	// 提交已被接受，从此刻起哈希有效，即使后续超时也保留
	attempt.setHash(sent.Hash)
	o.publish(attempt)
	o.logger.Info("transaction accepted",
		zap.String("attempt", attempt.ID),
		zap.String("hash", sent.Hash))

	// 轮询至终态
	result, err := o.client.PollUntilTerminal(ctx, sent.Hash, o.pollAttempts, o.pollInterval)
	if err != nil {
		return o.fail(attempt, err)
	}
	if result.Status == transport.TxStatusFailed {
		return o.fail(attempt, fmt.Errorf("transaction failed on-chain: %s", result.ResultError))
	}

	attempt.markSuccess()
	o.publish(attempt)
	o.logger.Info("transaction confirmed",
		zap.String("attempt", attempt.ID),
		zap.String("hash", attempt.Hash()),
		zap.Uint64("ledger", result.Ledger))
	return attempt, nil
}

// fail 把尝试转入error终态并发布事件
func (o *Orchestrator) fail(attempt *Attempt, err error) (*Attempt, error) {
	category, detail := Classify(err)
	attempt.markError(category, detail)
	o.publish(attempt)
	o.logger.Warn("transaction pipeline failed",
		zap.String("attempt", attempt.ID),
		zap.String("operation", attempt.Operation),
		zap.String("category", string(category)),
		zap.Error(err))
	return attempt, nil
}

// publish 发布状态快照
func (o *Orchestrator) publish(attempt *Attempt) {
	if o.bus != nil {
		o.bus.Publish(TopicTxStatus, attempt.Snapshot())
	}
}

// ===== 业务操作 =====

// Initialize 初始化合约，部署后只能成功执行一次
func (o *Orchestrator) Initialize(ctx context.Context) (*Attempt, error) {
	session := o.wallet.Session()
	if !session.Connected {
		return nil, wallet.ErrNotConnected
	}
	op, err := o.contracts.EncodeInitialize()
	if err != nil {
		return nil, err
	}
	return o.Submit(ctx, "initialize", op)
}

// CreateBounty 创建悬赏，创建者为当前会话账户
func (o *Orchestrator) CreateBounty(ctx context.Context, title, description string, reward *builder.Amount, deadlineDays uint64) (*Attempt, error) {
	session := o.wallet.Session()
	if !session.Connected {
		return nil, wallet.ErrNotConnected
	}
	op, err := o.contracts.EncodeCreateBounty(session.Address, title, description, reward, deadlineDays)
	if err != nil {
		return nil, err
	}
	return o.Submit(ctx, "create_bounty", op)
}

// SubmitSolution 提交方案，提交者为当前会话账户
func (o *Orchestrator) SubmitSolution(ctx context.Context, bountyID uint64, proofURL string) (*Attempt, error) {
	session := o.wallet.Session()
	if !session.Connected {
		return nil, wallet.ErrNotConnected
	}
	op, err := o.contracts.EncodeSubmitSolution(bountyID, session.Address, proofURL)
	if err != nil {
		return nil, err
	}
	return o.Submit(ctx, "submit_solution", op)
}

// ApproveSolution 批准方案并发放奖励，创建者授权由合约校验
func (o *Orchestrator) ApproveSolution(ctx context.Context, bountyID uint64) (*Attempt, error) {
	session := o.wallet.Session()
	if !session.Connected {
		return nil, wallet.ErrNotConnected
	}
	op, err := o.contracts.EncodeApproveSolution(bountyID)
	if err != nil {
		return nil, err
	}
	return o.Submit(ctx, "approve_solution", op)
}

// RejectSolution 驳回方案，悬赏回到开放状态
func (o *Orchestrator) RejectSolution(ctx context.Context, bountyID uint64) (*Attempt, error) {
	session := o.wallet.Session()
	if !session.Connected {
		return nil, wallet.ErrNotConnected
	}
	op, err := o.contracts.EncodeRejectSolution(bountyID)
	if err != nil {
		return nil, err
	}
	return o.Submit(ctx, "reject_solution", op)
}

// CancelBounty 取消悬赏并退回奖励
func (o *Orchestrator) CancelBounty(ctx context.Context, bountyID uint64) (*Attempt, error) {
	session := o.wallet.Session()
	if !session.Connected {
		return nil, wallet.ErrNotConnected
	}
	op, err := o.contracts.EncodeCancelBounty(bountyID)
	if err != nil {
		return nil, err
	}
	return o.Submit(ctx, "cancel_bounty", op)
}
