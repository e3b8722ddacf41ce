package tx

import (
	"context"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/bountyboard/client/core/builder"
	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/client/core/wallet"
)

const (
	testContractID = "CACDYF3CYMJEJTIVFESQYZTN67GCZR5VACJW22QKHUVQ7DUQNRN7PKKS"
	testAccount    = "GBZXN7PIRZGYAPEC2GHY5FLntM5EEM23BB4FFKPP5EHVQEVXKW654DTR"
	testPassphrase = "Test SDF Network ; September 2015"
)

// scriptedWallet 可编程钱包，记录签名次数
type scriptedWallet struct {
	session   wallet.Session
	signErr   error
	signCalls int
}

func (w *scriptedWallet) Session() wallet.Session { return w.session }

func (w *scriptedWallet) SignTransaction(ctx context.Context, envelopeXDR string) (string, error) {
	w.signCalls++
	if w.signErr != nil {
		return "", w.signErr
	}
	return "signed:" + envelopeXDR, nil
}

func connectedWallet() *scriptedWallet {
	return &scriptedWallet{session: wallet.Session{
		Connected: true,
		Address:   testAccount,
		Kind:      wallet.KindFreighter,
	}}
}

// scriptedClient 可编程链客户端，按脚本推进流水线并统计每步调用次数
type scriptedClient struct {
	accountErr error
	simResult  *transport.SimulateResult
	sendResult *transport.SendResult
	pollScript []transport.TxStatus // 依次返回的查询状态

	accountCalls int
	simCalls     int
	sendCalls    int
	pollQueries  int
}

func (c *scriptedClient) GetAccount(ctx context.Context, address string) (*transport.AccountState, error) {
	c.accountCalls++
	if c.accountErr != nil {
		return nil, c.accountErr
	}
	return &transport.AccountState{Address: address, Sequence: 100}, nil
}

func (c *scriptedClient) SimulateTransaction(ctx context.Context, envelopeXDR string) (*transport.SimulateResult, error) {
	c.simCalls++
	if c.simResult != nil {
		return c.simResult, nil
	}
	return &transport.SimulateResult{MinResourceFee: 5000, TransactionData: "resources"}, nil
}

func (c *scriptedClient) SendTransaction(ctx context.Context, signedXDR string) (*transport.SendResult, error) {
	c.sendCalls++
	if c.sendResult != nil {
		return c.sendResult, nil
	}
	return &transport.SendResult{Hash: "abc123", Status: transport.SendStatusPending}, nil
}

func (c *scriptedClient) GetTransaction(ctx context.Context, hash string) (*transport.GetTransactionResult, error) {
	status := transport.TxStatusSuccess
	if c.pollQueries < len(c.pollScript) {
		status = c.pollScript[c.pollQueries]
	}
	c.pollQueries++
	return &transport.GetTransactionResult{Status: status, Hash: hash, Ledger: 99}, nil
}

// PollUntilTerminal 与生产实现相同的有界固定间隔循环，等待为空操作
func (c *scriptedClient) PollUntilTerminal(ctx context.Context, hash string, maxAttempts int, interval time.Duration) (*transport.GetTransactionResult, error) {
	for i := 0; i < maxAttempts; i++ {
		result, err := c.GetTransaction(ctx, hash)
		if err != nil {
			continue
		}
		if result.Status.IsTerminal() {
			return result, nil
		}
	}
	return nil, transport.ErrPollTimeout
}

func (c *scriptedClient) Ping(ctx context.Context) error { return nil }
func (c *scriptedClient) Close() error                   { return nil }

func newOrchestrator(w Wallet, client transport.Client) *Orchestrator {
	contracts := contract.NewInvocationService(testContractID, "", testPassphrase, client)
	return NewOrchestrator(w, client, contracts, testPassphrase,
		WithPolling(30, time.Millisecond))
}

func TestSubmit_WalletNotConnected(t *testing.T) {
	client := &scriptedClient{}
	o := newOrchestrator(&scriptedWallet{}, client)

	reward, _ := builder.NewAmount(10)
	attempt, err := o.CreateBounty(context.Background(), "Fix typo", "Fix a typo in docs", reward, 7)

	// 未开始信号：没有Attempt，没有任何网络调用
	require.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.Nil(t, attempt)
	assert.Zero(t, client.accountCalls)
	assert.Zero(t, client.simCalls)
	assert.Zero(t, client.sendCalls)
}

func TestSubmit_SimulationFailure(t *testing.T) {
	w := connectedWallet()
	client := &scriptedClient{
		simResult: &transport.SimulateResult{Error: "Simulation error: deadline in past"},
	}
	o := newOrchestrator(w, client)

	reward, _ := builder.NewAmount(10)
	attempt, err := o.CreateBounty(context.Background(), "Fix typo", "Fix a typo in docs", reward, 7)

	require.NoError(t, err)
	require.NotNil(t, attempt)
	assert.Equal(t, StatusError, attempt.Status())
	assert.Equal(t, "Simulation error: deadline in past", attempt.ErrorDetail())
	assert.Empty(t, attempt.Hash())

	// 模拟失败在签名之前终止
	assert.Zero(t, w.signCalls, "signer must never be called after a failed simulation")
	assert.Zero(t, client.sendCalls)
}

func TestSubmit_SuccessAfterNotFoundPolls(t *testing.T) {
	w := connectedWallet()
	client := &scriptedClient{
		pollScript: []transport.TxStatus{
			transport.TxStatusNotFound,
			transport.TxStatusNotFound,
			transport.TxStatusNotFound,
			transport.TxStatusSuccess,
		},
	}
	o := newOrchestrator(w, client)

	reward, _ := builder.NewAmount(10)
	attempt, err := o.CreateBounty(context.Background(), "Fix typo", "Fix a typo in docs", reward, 7)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, attempt.Status())
	assert.Equal(t, "abc123", attempt.Hash())
	assert.Equal(t, 1, w.signCalls)
	assert.Equal(t, 4, client.pollQueries)
}

func TestSubmit_SignDeclined(t *testing.T) {
	w := connectedWallet()
	w.signErr = wallet.ErrUserDeclined
	client := &scriptedClient{}
	o := newOrchestrator(w, client)

	attempt, err := o.CancelBounty(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, StatusError, attempt.Status())
	assert.Equal(t, CategoryRejection, attempt.Category())
	// 拒签发生在提交之前，交易从未出手
	assert.Zero(t, client.sendCalls)
	assert.Empty(t, attempt.Hash())
}

func TestSubmit_ImmediateRejection(t *testing.T) {
	w := connectedWallet()
	client := &scriptedClient{
		sendResult: &transport.SendResult{Status: transport.SendStatusError, ErrorResult: "tx_insufficient_balance"},
	}
	o := newOrchestrator(w, client)

	attempt, err := o.ApproveSolution(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, StatusError, attempt.Status())
	assert.Equal(t, CategoryBalance, attempt.Category())
	assert.Empty(t, attempt.Hash(), "rejected submission must not record a hash")
}

func TestSubmit_PollTimeoutKeepsHash(t *testing.T) {
	w := connectedWallet()
	// 永远not-found：有界轮询必须以超时终止
	script := make([]transport.TxStatus, 30)
	for i := range script {
		script[i] = transport.TxStatusNotFound
	}
	client := &scriptedClient{pollScript: script}
	o := newOrchestrator(w, client)

	attempt, err := o.SubmitSolution(context.Background(), 1, "https://example.com/pr/1")

	require.NoError(t, err)
	assert.Equal(t, StatusError, attempt.Status())
	assert.Equal(t, CategoryTimeout, attempt.Category())
	// 提交已被接受：结局未知，哈希必须保留给用户查证
	assert.Equal(t, "abc123", attempt.Hash())
	assert.Contains(t, attempt.ErrorDetail(), "check explorer")
	assert.Equal(t, 30, client.pollQueries)
}

func TestSubmit_OnChainFailure(t *testing.T) {
	w := connectedWallet()
	client := &scriptedClient{
		pollScript: []transport.TxStatus{transport.TxStatusNotFound, transport.TxStatusFailed},
	}
	o := newOrchestrator(w, client)

	attempt, err := o.RejectSolution(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, StatusError, attempt.Status())
	assert.Equal(t, "abc123", attempt.Hash())
}

func TestAttempt_StateMachine(t *testing.T) {
	a := newAttempt("create_bounty")
	assert.Equal(t, StatusIdle, a.Status())

	// idle → success 不可达
	assert.False(t, a.markSuccess())
	assert.Equal(t, StatusIdle, a.Status())

	// idle → error 不可达（钱包预检走的是独立的"未开始"信号）
	assert.False(t, a.markError(CategoryGeneric, "x"))
	assert.Equal(t, StatusIdle, a.Status())

	require.True(t, a.markPending())
	assert.False(t, a.markPending(), "pending is not re-enterable")

	require.True(t, a.markSuccess())
	assert.False(t, a.markError(CategoryGeneric, "x"), "terminal states are final")
	assert.False(t, a.markPending())
}

func TestAttempt_Reset(t *testing.T) {
	a := newAttempt("cancel_bounty")
	a.markPending()
	a.setHash("abc123")
	a.markError(CategoryTimeout, "timed out")

	a.Reset()
	assert.Equal(t, StatusIdle, a.Status())
	assert.Empty(t, a.Hash())
	assert.Empty(t, a.ErrorDetail())

	// 非终态不受Reset影响
	b := newAttempt("x")
	b.markPending()
	b.Reset()
	assert.Equal(t, StatusPending, b.Status())
}

// newRecordingBus 订阅状态主题并把快照追加到events
func newRecordingBus(events *[]Snapshot) evbus.Bus {
	bus := evbus.New()
	_ = bus.Subscribe(TopicTxStatus, func(s Snapshot) {
		*events = append(*events, s)
	})
	return bus
}

func TestSubmit_PublishesStatusEvents(t *testing.T) {
	w := connectedWallet()
	client := &scriptedClient{}
	contracts := contract.NewInvocationService(testContractID, "", testPassphrase, client)

	var events []Snapshot
	bus := newRecordingBus(&events)
	o := NewOrchestrator(w, client, contracts, testPassphrase,
		WithPolling(5, time.Millisecond),
		WithEventBus(bus))

	attempt, err := o.CancelBounty(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, attempt.Status())

	// pending → pending(带哈希) → success
	require.NotEmpty(t, events)
	assert.Equal(t, StatusPending, events[0].Status)
	last := events[len(events)-1]
	assert.Equal(t, StatusSuccess, last.Status)
	assert.Equal(t, "abc123", last.Hash)
}
